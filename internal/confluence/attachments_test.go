package confluence

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const attachmentsPath = "/wiki/rest/api/content/page-123/child/attachment"

func rawAttachmentJSON(overrides map[string]interface{}) map[string]interface{} {
	raw := map[string]interface{}{
		"id":        "att123",
		"title":     "test-file.txt",
		"status":    "current",
		"pageId":    "page-999",
		"mediaType": "text/plain",
		"fileSize":  1024,
		"comment":   "Initial upload",
		"version": map[string]interface{}{
			"number":  1,
			"message": "Initial upload",
			"when":    "2023-01-04T10:00:00.000Z",
			"by": map[string]interface{}{
				"accountId":   "user-123",
				"displayName": "Test User",
				"email":       "user@example.com",
			},
		},
		"_links": map[string]interface{}{
			"webui":    "/display/SPACE/PageName?preview=/download/attachments/123/test-file.txt",
			"download": "/download/attachments/123/test-file.txt",
		},
	}
	for k, v := range overrides {
		if v == nil {
			delete(raw, k)
			continue
		}
		raw[k] = v
	}
	return raw
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func parseUploadForm(t *testing.T, req *http.Request, body []byte) *multipart.Form {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)
	return form
}

func TestGetAttachments(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(nil)},
		"size":    1,
	})

	result, err := client.GetAttachments("page-123")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Attachments, 1)

	att := result.Attachments[0]
	assert.Equal(t, "att123", att.ID)
	assert.Equal(t, "test-file.txt", att.Title)
	assert.Equal(t, "text/plain", att.MediaType)
	assert.Equal(t, int64(1024), att.FileSize)
	assert.Equal(t, "Initial upload", att.Comment)
	assert.Equal(t, 1, att.Version)
	assert.Equal(t, "Test User", att.CreatedBy.DisplayName)
	assert.Equal(t, "user-123", att.CreatedBy.AccountID)
	assert.Equal(t, "user@example.com", att.CreatedBy.Email)
	assert.Equal(t, "2023-01-04T10:00:00.000Z", att.Created)
	assert.Equal(t, "page-123", att.PageID)
	assert.Equal(t, "/download/attachments/123/test-file.txt", att.Links.Download)
	assert.Equal(t, "/display/SPACE/PageName?preview=/download/attachments/123/test-file.txt", att.Links.WebUI)

	require.Equal(t, 1, mockTransport.getRequestCount())
	req := mockTransport.getLastRequest()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, testBaseURL+"/rest/api/content/page-123/child/attachment?expand=version&limit=100", req.URL.String())
}

func TestGetAttachmentsEmpty(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, "/wiki/rest/api/content/page-no-attachments/child/attachment", http.StatusOK, map[string]interface{}{
		"results": []interface{}{},
		"size":    0,
	})

	result, err := client.GetAttachments("page-no-attachments")
	require.NoError(t, err)

	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.Attachments)
	assert.Empty(t, result.Attachments)
}

func TestGetAttachmentsPreservesOrderAndTotal(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{
			rawAttachmentJSON(map[string]interface{}{"id": "b", "title": "b.png"}),
			rawAttachmentJSON(map[string]interface{}{"id": "a", "title": "a.png"}),
			rawAttachmentJSON(map[string]interface{}{"id": "c", "title": "c.png"}),
		},
		"size": 250,
	})

	result, err := client.GetAttachments("page-123")
	require.NoError(t, err)

	assert.Equal(t, 250, result.Total)
	require.Len(t, result.Attachments, 3)
	for i, id := range []string{"b", "a", "c"} {
		assert.Equal(t, id, result.Attachments[i].ID)
		assert.Equal(t, "page-123", result.Attachments[i].PageID)
	}
}

func TestGetAttachmentsMalformedResponse(t *testing.T) {
	testCases := []struct {
		name string
		body interface{}
	}{
		{"missing size", map[string]interface{}{"results": []interface{}{}}},
		{"missing results", map[string]interface{}{"size": 0}},
		{"not json", "<html>gateway</html>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, mockTransport := createTestClient()
			mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusOK, tc.body)

			result, err := client.GetAttachments("page-123")

			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestGetAttachmentsMissingVersion(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(map[string]interface{}{"version": nil})},
		"size":    1,
	})

	_, err := client.GetAttachments("page-123")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingVersion))
}

func TestGetAttachmentsAPIError(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusInternalServerError, "boom")

	_, err := client.GetAttachments("page-123")

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, 1, mockTransport.getRequestCount(), "no retry expected")
}

func TestAddAttachmentWithComment(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(map[string]interface{}{
			"id":      "new-att-456",
			"title":   "new-upload.pdf",
			"comment": "Upload comment",
		})},
	})

	content := []byte("This is a test file content.")
	att, err := client.AddAttachment("page-123", content, "new-upload.pdf", strPtr("Upload comment"), nil)
	require.NoError(t, err)

	assert.Equal(t, "new-att-456", att.ID)
	assert.Equal(t, "new-upload.pdf", att.Title)
	assert.Equal(t, "Upload comment", att.Comment)
	assert.Equal(t, "page-123", att.PageID)

	require.Equal(t, 1, mockTransport.getRequestCount())
	req := mockTransport.getLastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, testBaseURL+"/rest/api/content/page-123/child/attachment", req.URL.String())
	assert.Equal(t, "no-check", req.Header.Get("X-Atlassian-Token"))

	form := parseUploadForm(t, req, mockTransport.getLastBody())
	assert.Equal(t, []string{"Upload comment"}, form.Value["comment"])
	assert.Equal(t, []string{"false"}, form.Value["minorEdit"])

	require.Len(t, form.File["file"], 1)
	fh := form.File["file"][0]
	assert.Equal(t, "new-upload.pdf", fh.Filename)
	assert.Equal(t, "application/octet-stream", fh.Header.Get("Content-Type"))

	f, err := fh.Open()
	require.NoError(t, err)
	defer f.Close()
	uploaded, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, content, uploaded)
}

func TestAddAttachmentWithoutComment(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, "/wiki/rest/api/content/page-456/child/attachment", http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(map[string]interface{}{
			"id":      "new-att-789",
			"title":   "no-comment.txt",
			"comment": nil,
		})},
	})

	att, err := client.AddAttachment("page-456", []byte("Another test."), "no-comment.txt", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "new-att-789", att.ID)
	assert.Equal(t, "no-comment.txt", att.Title)
	assert.Equal(t, "", att.Comment)
	assert.Equal(t, "page-456", att.PageID)

	form := parseUploadForm(t, mockTransport.getLastRequest(), mockTransport.getLastBody())
	_, hasComment := form.Value["comment"]
	assert.False(t, hasComment, "comment field must be omitted")
	assert.Equal(t, []string{"false"}, form.Value["minorEdit"])
	assert.Len(t, form.File["file"], 1)
}

func TestAddAttachmentEmptyCommentIsSent(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(map[string]interface{}{"comment": ""})},
	})

	att, err := client.AddAttachment("page-123", []byte("x"), "x.txt", strPtr(""), nil)
	require.NoError(t, err)
	assert.Equal(t, "", att.Comment)

	form := parseUploadForm(t, mockTransport.getLastRequest(), mockTransport.getLastBody())
	assert.Equal(t, []string{""}, form.Value["comment"])
}

func TestAddAttachmentMinorEdit(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{rawAttachmentJSON(nil)},
	})

	_, err := client.AddAttachment("page-123", []byte("x"), "x.txt", nil, &AddAttachmentOptions{MinorEdit: true})
	require.NoError(t, err)

	form := parseUploadForm(t, mockTransport.getLastRequest(), mockTransport.getLastBody())
	assert.Equal(t, []string{"true"}, form.Value["minorEdit"])
}

func TestAddAttachmentIgnoresServerPageID(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{
			rawAttachmentJSON(map[string]interface{}{"id": "first", "title": "first.txt", "pageId": "unrelated"}),
			rawAttachmentJSON(map[string]interface{}{"id": "second"}),
		},
	})

	att, err := client.AddAttachment("page-123", []byte("x"), "first.txt", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "first", att.ID)
	assert.Equal(t, "first.txt", att.Title)
	assert.Equal(t, "page-123", att.PageID)
}

func TestAddAttachmentNoResults(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{},
	})

	att, err := client.AddAttachment("page-123", []byte("x"), "x.txt", nil, nil)

	require.Error(t, err)
	assert.Nil(t, att)
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestAddAttachmentAPIError(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodPost, attachmentsPath, http.StatusBadRequest,
		"A file with the same file name as an existing attachment already exists on this page.")

	_, err := client.AddAttachment("page-123", []byte("x"), "dup.txt", nil, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload attachment 'dup.txt' to page page-123")
	assert.Contains(t, err.Error(), "API request failed with status 400")
	assert.Equal(t, 1, mockTransport.getRequestCount(), "upload must not be retried")
}

func TestAddAttachmentValidation(t *testing.T) {
	client, mockTransport := createTestClient()

	_, err := client.AddAttachment("", []byte("x"), "x.txt", nil, nil)
	assert.EqualError(t, err, "page ID is required")

	_, err = client.AddAttachment("page-123", []byte("x"), "", nil, nil)
	assert.EqualError(t, err, "attachment filename is required")

	assert.Equal(t, 0, mockTransport.getRequestCount())
}

func TestNormalizeAttachment(t *testing.T) {
	base := func() RawAttachment {
		return RawAttachment{
			ID:        "att1",
			Title:     "diagram.png",
			MediaType: "image/png",
			FileSize:  42,
			Comment:   strPtr("first"),
			Version: &RawVersion{
				Number: intPtr(3),
				When:   "2024-05-01T08:00:00.000Z",
				By:     RawUser{AccountID: "acc", DisplayName: "Ada", Email: "ada@example.com"},
			},
			Links: RawLinks{WebUI: "/pages/viewpage.action?pageId=1", Download: "/download/attachments/1/diagram.png"},
		}
	}

	t.Run("maps every field", func(t *testing.T) {
		att, err := normalizeAttachment(base(), "p1")
		require.NoError(t, err)

		assert.Equal(t, Attachment{
			ID:        "att1",
			Title:     "diagram.png",
			MediaType: "image/png",
			FileSize:  42,
			Comment:   "first",
			Version:   3,
			CreatedBy: User{AccountID: "acc", DisplayName: "Ada", Email: "ada@example.com"},
			Created:   "2024-05-01T08:00:00.000Z",
			PageID:    "p1",
			Links:     AttachmentLinks{WebUI: "/pages/viewpage.action?pageId=1", Download: "/download/attachments/1/diagram.png"},
		}, att)
	})

	t.Run("page id comes from caller", func(t *testing.T) {
		for _, pid := range []string{"", "p1", "other"} {
			att, err := normalizeAttachment(base(), pid)
			require.NoError(t, err)
			assert.Equal(t, pid, att.PageID)
			assert.Equal(t, 3, att.Version)
			assert.Equal(t, "2024-05-01T08:00:00.000Z", att.Created)
		}
	})

	t.Run("absent comment becomes empty", func(t *testing.T) {
		raw := base()
		raw.Comment = nil
		att, err := normalizeAttachment(raw, "p1")
		require.NoError(t, err)
		assert.Equal(t, "", att.Comment)
	})

	t.Run("extensions fill missing fields", func(t *testing.T) {
		raw := base()
		raw.MediaType = ""
		raw.FileSize = 0
		raw.Comment = nil
		raw.Extensions = &RawExtensions{MediaType: "image/png", FileSize: 99, Comment: strPtr("from extensions")}
		att, err := normalizeAttachment(raw, "p1")
		require.NoError(t, err)
		assert.Equal(t, "image/png", att.MediaType)
		assert.Equal(t, int64(99), att.FileSize)
		assert.Equal(t, "from extensions", att.Comment)
	})

	t.Run("top level wins over extensions", func(t *testing.T) {
		raw := base()
		raw.Extensions = &RawExtensions{MediaType: "text/plain", FileSize: 1, Comment: strPtr("ignored")}
		att, err := normalizeAttachment(raw, "p1")
		require.NoError(t, err)
		assert.Equal(t, "image/png", att.MediaType)
		assert.Equal(t, int64(42), att.FileSize)
		assert.Equal(t, "first", att.Comment)
	})

	t.Run("missing version is an error", func(t *testing.T) {
		raw := base()
		raw.Version = nil
		_, err := normalizeAttachment(raw, "p1")
		assert.True(t, errors.Is(err, ErrMissingVersion))
	})

	t.Run("missing version number is an error", func(t *testing.T) {
		raw := base()
		raw.Version.Number = nil
		_, err := normalizeAttachment(raw, "p1")
		assert.True(t, errors.Is(err, ErrMissingVersion))
		assert.Contains(t, err.Error(), `"att1"`)
	})
}

func TestFindAttachmentByTitle(t *testing.T) {
	client, mockTransport := createTestClient()
	mockTransport.addResponse(http.MethodGet, attachmentsPath, http.StatusOK, map[string]interface{}{
		"results": []interface{}{
			rawAttachmentJSON(map[string]interface{}{"id": "att1", "title": "one.txt"}),
			rawAttachmentJSON(map[string]interface{}{"id": "att2", "title": "two.txt"}),
		},
		"size": 2,
	})

	att, err := client.FindAttachmentByTitle("page-123", "two.txt")
	require.NoError(t, err)
	assert.Equal(t, "att2", att.ID)

	_, err = client.FindAttachmentByTitle("page-123", "missing.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attachment with filename 'missing.txt' not found")
}

func TestAttachmentDownloadURL(t *testing.T) {
	client, _ := createTestClient()

	url := client.AttachmentDownloadURL(Attachment{Links: AttachmentLinks{Download: "/download/att1"}})
	assert.Equal(t, "https://test.atlassian.net/wiki/download/att1", url)

	assert.Equal(t, "", client.AttachmentDownloadURL(Attachment{}))
}
