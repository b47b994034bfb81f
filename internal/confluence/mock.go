package confluence

import (
	"fmt"
	"net/http"
	"strconv"
)

// UploadCall records one AddAttachment invocation on MockClient.
type UploadCall struct {
	PageID    string
	Filename  string
	Content   []byte
	Comment   *string
	MinorEdit bool
}

// MockClient is an in-memory implementation of ConfluenceClient for tests.
type MockClient struct {
	Pages        map[string]*Page        // pageID -> Page
	PagesByTitle map[string]*Page        // spaceKey:title -> Page
	Attachments  map[string][]Attachment // pageID -> attachments
	Uploads      []UploadCall
	UploadErr    error
	nextID       int
}

func NewMockClient() *MockClient {
	return &MockClient{
		Pages:        make(map[string]*Page),
		PagesByTitle: make(map[string]*Page),
		Attachments:  make(map[string][]Attachment),
	}
}

func (m *MockClient) key(spaceKey, title string) string { return spaceKey + ":" + title }

// AddPage seeds a page so it can be resolved by ID or by space and title.
func (m *MockClient) AddPage(spaceKey, id, title string) *Page {
	p := &Page{ID: id, Title: title}
	p.Space.Key = spaceKey
	p.Version.Number = 1
	m.Pages[id] = p
	m.PagesByTitle[m.key(spaceKey, title)] = p
	return p
}

func (m *MockClient) GetPage(pageID string) (*Page, error) {
	if p, ok := m.Pages[pageID]; ok {
		return p, nil
	}
	return nil, &APIError{Method: http.MethodGet, StatusCode: http.StatusNotFound, Body: "page not found"}
}

func (m *MockClient) FindPageByTitle(spaceKey, title string) (*Page, error) {
	return m.PagesByTitle[m.key(spaceKey, title)], nil
}

func (m *MockClient) GetAttachments(pageID string) (*AttachmentListResult, error) {
	atts := append([]Attachment{}, m.Attachments[pageID]...)
	return &AttachmentListResult{Total: len(atts), Attachments: atts}, nil
}

func (m *MockClient) AddAttachment(pageID string, content []byte, filename string, comment *string, opts *AddAttachmentOptions) (*Attachment, error) {
	call := UploadCall{PageID: pageID, Filename: filename, Content: content, Comment: comment}
	if opts != nil {
		call.MinorEdit = opts.MinorEdit
	}
	m.Uploads = append(m.Uploads, call)
	if m.UploadErr != nil {
		return nil, m.UploadErr
	}

	m.nextID++
	att := Attachment{
		ID:       "att" + strconv.Itoa(m.nextID),
		Title:    filename,
		FileSize: int64(len(content)),
		Version:  1,
		PageID:   pageID,
		Links: AttachmentLinks{
			Download: fmt.Sprintf("/download/attachments/%s/%s", pageID, filename),
		},
	}
	if comment != nil {
		att.Comment = *comment
	}
	m.Attachments[pageID] = append(m.Attachments[pageID], att)
	return &att, nil
}

func (m *MockClient) FindAttachmentByTitle(pageID, filename string) (*Attachment, error) {
	for _, att := range m.Attachments[pageID] {
		if att.Title == filename {
			a := att
			return &a, nil
		}
	}
	return nil, fmt.Errorf("attachment with filename '%s' not found on page %s", filename, pageID)
}

func (m *MockClient) AttachmentDownloadURL(att Attachment) string {
	return "https://mock.example" + att.Links.Download
}

var _ ConfluenceClient = (*MockClient)(nil)
