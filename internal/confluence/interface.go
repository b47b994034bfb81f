package confluence

// ConfluenceClient is the surface the commands depend on.
type ConfluenceClient interface {
	GetPage(pageID string) (*Page, error)
	FindPageByTitle(spaceKey, title string) (*Page, error)
	GetAttachments(pageID string) (*AttachmentListResult, error)
	AddAttachment(pageID string, content []byte, filename string, comment *string, opts *AddAttachmentOptions) (*Attachment, error)
	FindAttachmentByTitle(pageID, filename string) (*Attachment, error)
	AttachmentDownloadURL(att Attachment) string
}

var _ ConfluenceClient = (*Client)(nil)
