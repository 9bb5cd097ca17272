package dto

import (
	"time"

	"github.com/google/uuid"
)

type SettingsDTO struct {
	ModelName string `json:"model_name"`
	Category  string `json:"category"`
	UseRAG    bool   `json:"use_rag"`
}

// UpdateSettingsRequest replaces all three settings at once, as the UI sends
// its full sidebar state on every change.
type UpdateSettingsRequest struct {
	ModelName string `json:"model_name" validate:"required"`
	Category  string `json:"category" validate:"required"`
	UseRAG    *bool  `json:"use_rag" validate:"required"`
}

type MessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SupplementaryDTO struct {
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

type SessionResponse struct {
	Id            uuid.UUID         `json:"id"`
	Settings      SettingsDTO       `json:"settings"`
	History       []MessageDTO      `json:"history"`
	Supplementary *SupplementaryDTO `json:"supplementary,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type AttachDocumentResponse struct {
	Name    string `json:"name"`
	Chunks  int    `json:"chunks"`
	Warning string `json:"warning,omitempty"`
}
