package entity

// AnswerPending is the placeholder answer shown while the gateway call is
// in flight. The final entry replaces the placeholder under a derived id
// (placeholder id + FinalIdSuffix).
const (
	AnswerPending      = "Thinking..."
	AnswerDocumentGone = "Error: Document not found"
	FinalIdSuffix      = "-final"
)

type QAEntry struct {
	Id         string `json:"id"`
	DocumentId string `json:"documentId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	CreatedAt  string `json:"createdAt"`
}
