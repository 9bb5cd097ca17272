package store

import (
	"errors"
	"time"

	"careconnect/pkg/rag/history"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

const (
	DefaultModel    = "mixtral-8x7b"
	DefaultCategory = "ALL"
)

// Settings are overwritten on every UI interaction.
type Settings struct {
	ModelName string `json:"model_name"`
	Category  string `json:"category"`
	UseRAG    bool   `json:"use_rag"`
}

func DefaultSettings() Settings {
	return Settings{
		ModelName: DefaultModel,
		Category:  DefaultCategory,
		UseRAG:    true,
	}
}

// Supplementary is the text of the document the user uploaded.
type Supplementary struct {
	Name   string   `json:"name"`
	Chunks []string `json:"chunks"`
}

// Session is the per-user chat context: settings, the conversation and the
// uploaded document.
type Session struct {
	ID            uuid.UUID             `json:"id"`
	Settings      Settings              `json:"settings"`
	Conversation  *history.Conversation `json:"conversation"`
	Supplementary *Supplementary        `json:"supplementary,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func NewSession(settings Settings) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           uuid.New(),
		Settings:     settings,
		Conversation: history.NewConversation(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SupplementaryChunks returns the uploaded chunks, or nil when none.
func (s *Session) SupplementaryChunks() []string {
	if s.Supplementary == nil {
		return nil
	}
	return s.Supplementary.Chunks
}

// Clone deep-copies the session so a caller can read or mutate it without
// sharing state with the stored value.
func (s *Session) Clone() *Session {
	out := *s
	if s.Conversation != nil {
		out.Conversation = s.Conversation.Clone()
	} else {
		out.Conversation = history.NewConversation()
	}
	if s.Supplementary != nil {
		chunks := make([]string, len(s.Supplementary.Chunks))
		copy(chunks, s.Supplementary.Chunks)
		out.Supplementary = &Supplementary{Name: s.Supplementary.Name, Chunks: chunks}
	}
	return &out
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
