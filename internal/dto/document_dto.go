package dto

import "document-qa-be/internal/entity"

type UploadDocumentResponse struct {
	Document *entity.Document `json:"document"`
}

type ListDocumentsResponse struct {
	Documents          []*entity.Document `json:"documents"`
	SelectedDocumentId string             `json:"selected_document_id,omitempty"`
}

type SelectDocumentRequest struct {
	Id string `json:"id" validate:"required"`
}

type SelectDocumentResponse struct {
	SelectedDocumentId string `json:"selected_document_id"`
}
