package entity

type DocumentStatus string

const (
	DocumentStatusUploading DocumentStatus = "uploading"
	DocumentStatusUploaded  DocumentStatus = "uploaded"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document is one stored unit of text content plus its upload metadata.
// Content stays empty while the upload is still in flight and is attached
// no later than the transition to "uploaded". A failed document never
// carries content.
type Document struct {
	Id         string         `json:"id"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	Type       string         `json:"type,omitempty"`
	UploadedAt string         `json:"uploadedAt"`
	Status     DocumentStatus `json:"status"`
	Progress   int            `json:"progress"`
	Content    string         `json:"content,omitempty"`
}
