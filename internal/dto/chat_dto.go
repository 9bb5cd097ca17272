package dto

import "github.com/google/uuid"

type AskRequest struct {
	Question string `json:"question" validate:"required,max=4000"`
}

type RelatedDocumentDTO struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type AskResponse struct {
	SessionId uuid.UUID            `json:"session_id"`
	Question  string               `json:"question"`
	Answer    string               `json:"answer"`
	Sources   []string             `json:"sources"`
	Related   []RelatedDocumentDTO `json:"related"`
	Fallback  bool                 `json:"fallback"`
	Warning   string               `json:"warning,omitempty"`
}
