package dto

import "document-qa-be/internal/entity"

type AskQuestionRequest struct {
	DocumentId string `json:"document_id" validate:"required"`
	Question   string `json:"question" validate:"required"`
}

type AskQuestionResponse struct {
	Entry *entity.QAEntry `json:"entry"`
}

type HistoryResponse struct {
	Entries []*entity.QAEntry `json:"entries"`
}

// ExportedEntry is the export artifact element: the id and document
// reference are dropped, matching the downloadable history format.
type ExportedEntry struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	CreatedAt string `json:"createdAt"`
}
