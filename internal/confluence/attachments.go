package confluence

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// attachmentPageLimit bounds a single listing; no further pages are requested.
const attachmentPageLimit = 100

// RawAttachment is an attachment as Confluence returns it.
type RawAttachment struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    string      `json:"status,omitempty"`
	MediaType string      `json:"mediaType,omitempty"`
	FileSize  int64       `json:"fileSize,omitempty"`
	Comment   *string     `json:"comment,omitempty"`
	Version   *RawVersion `json:"version,omitempty"`
	// Cloud responses nest media type, size and comment under extensions.
	Extensions *RawExtensions `json:"extensions,omitempty"`
	Links      RawLinks       `json:"_links"`
}

type RawVersion struct {
	Number  *int    `json:"number,omitempty"`
	Message string  `json:"message,omitempty"`
	When    string  `json:"when,omitempty"`
	By      RawUser `json:"by"`
}

type RawUser struct {
	AccountID   string `json:"accountId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

type RawExtensions struct {
	MediaType string  `json:"mediaType,omitempty"`
	FileSize  int64   `json:"fileSize,omitempty"`
	Comment   *string `json:"comment,omitempty"`
}

type RawLinks struct {
	WebUI    string `json:"webui,omitempty"`
	Download string `json:"download,omitempty"`
}

// Attachment is the normalized form handed to callers.
type Attachment struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	MediaType string          `json:"mediaType"`
	FileSize  int64           `json:"fileSize"`
	Comment   string          `json:"comment"`
	Version   int             `json:"version"`
	CreatedBy User            `json:"createdBy"`
	Created   string          `json:"created"`
	PageID    string          `json:"pageId"`
	Links     AttachmentLinks `json:"links"`
}

type User struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// AttachmentLinks are server-relative; they are never resolved against the base URL.
type AttachmentLinks struct {
	WebUI    string `json:"webui"`
	Download string `json:"download"`
}

type AttachmentListResult struct {
	Total       int          `json:"total"`
	Attachments []Attachment `json:"attachments"`
}

type AddAttachmentOptions struct {
	MinorEdit bool
}

// normalizeAttachment maps raw onto Attachment. pageID always comes from the caller
// because the API does not reliably echo it.
func normalizeAttachment(raw RawAttachment, pageID string) (Attachment, error) {
	if raw.Version == nil || raw.Version.Number == nil {
		return Attachment{}, fmt.Errorf("attachment %q: %w", raw.ID, ErrMissingVersion)
	}

	att := Attachment{
		ID:        raw.ID,
		Title:     raw.Title,
		MediaType: raw.MediaType,
		FileSize:  raw.FileSize,
		Version:   *raw.Version.Number,
		CreatedBy: User{
			AccountID:   raw.Version.By.AccountID,
			DisplayName: raw.Version.By.DisplayName,
			Email:       raw.Version.By.Email,
		},
		Created: raw.Version.When,
		PageID:  pageID,
		Links: AttachmentLinks{
			WebUI:    raw.Links.WebUI,
			Download: raw.Links.Download,
		},
	}

	comment := raw.Comment
	if ext := raw.Extensions; ext != nil {
		if att.MediaType == "" {
			att.MediaType = ext.MediaType
		}
		if att.FileSize == 0 {
			att.FileSize = ext.FileSize
		}
		if comment == nil {
			comment = ext.Comment
		}
	}
	if comment != nil {
		att.Comment = *comment
	}

	return att, nil
}

func normalizeAttachments(raws []RawAttachment, pageID string) ([]Attachment, error) {
	out := make([]Attachment, 0, len(raws))
	for _, raw := range raws {
		att, err := normalizeAttachment(raw, pageID)
		if err != nil {
			return nil, err
		}
		out = append(out, att)
	}
	return out, nil
}

func (c *Client) attachmentsURL(pageID string) string {
	return c.contentURL(pageID, "child", "attachment")
}

// GetAttachments returns at most one page (100) of attachments, in server order.
func (c *Client) GetAttachments(pageID string) (*AttachmentListResult, error) {
	params := url.Values{}
	params.Add("expand", "version")
	params.Add("limit", strconv.Itoa(attachmentPageLimit))

	req, err := http.NewRequest(http.MethodGet, c.attachmentsURL(pageID)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var result struct {
		Results *[]RawAttachment `json:"results"`
		Size    *int             `json:"size"`
	}
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to list attachments for page %s: %w", pageID, err)
	}

	if result.Results == nil || result.Size == nil {
		return nil, fmt.Errorf("failed to list attachments for page %s: %w: missing results or size", pageID, ErrMalformedResponse)
	}

	attachments, err := normalizeAttachments(*result.Results, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments for page %s: %w", pageID, err)
	}

	c.logger.Debug("Page %s has %d attachment(s)", pageID, *result.Size)

	return &AttachmentListResult{
		Total:       *result.Size,
		Attachments: attachments,
	}, nil
}

// AddAttachment uploads content as a new attachment named filename.
// A nil comment leaves the form field out entirely; a pointer to "" sends it empty.
func (c *Client) AddAttachment(pageID string, content []byte, filename string, comment *string, opts *AddAttachmentOptions) (*Attachment, error) {
	if pageID == "" {
		return nil, errors.New("page ID is required")
	}
	if filename == "" {
		return nil, errors.New("attachment filename is required")
	}

	body, contentType, err := buildAttachmentForm(content, filename, comment, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.attachmentsURL(pageID), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Atlassian-Token", "no-check")

	var result struct {
		Results []RawAttachment `json:"results"`
	}
	if err := c.doJSON(req, &result); err != nil {
		return nil, fmt.Errorf("failed to upload attachment '%s' to page %s: %w", filename, pageID, err)
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("failed to upload attachment '%s' to page %s: %w", filename, pageID, ErrNoResults)
	}

	att, err := normalizeAttachment(result.Results[0], pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment '%s' to page %s: %w", filename, pageID, err)
	}

	c.logger.Debug("Uploaded attachment '%s' (ID: %s, version %d) to page %s", att.Title, att.ID, att.Version, pageID)

	return &att, nil
}

func buildAttachmentForm(content []byte, filename string, comment *string, opts *AddAttachmentOptions) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// CreateFormFile labels the part application/octet-stream.
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write file content: %w", err)
	}

	minorEdit := false
	if opts != nil {
		minorEdit = opts.MinorEdit
	}
	if err := w.WriteField("minorEdit", strconv.FormatBool(minorEdit)); err != nil {
		return nil, "", fmt.Errorf("failed to write minorEdit field: %w", err)
	}

	if comment != nil {
		if err := w.WriteField("comment", *comment); err != nil {
			return nil, "", fmt.Errorf("failed to write comment field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// FindAttachmentByTitle searches the first page of attachments for filename.
func (c *Client) FindAttachmentByTitle(pageID, filename string) (*Attachment, error) {
	list, err := c.GetAttachments(pageID)
	if err != nil {
		return nil, err
	}

	for i := range list.Attachments {
		if list.Attachments[i].Title == filename {
			return &list.Attachments[i], nil
		}
	}

	return nil, fmt.Errorf("attachment with filename '%s' not found on page %s", filename, pageID)
}

// AttachmentDownloadURL joins the client's base URL with att's download link.
func (c *Client) AttachmentDownloadURL(att Attachment) string {
	if att.Links.Download == "" {
		return ""
	}
	return c.baseURL + att.Links.Download
}
