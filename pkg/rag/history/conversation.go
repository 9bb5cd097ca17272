// Package history keeps the ordered, role-tagged turns of one chat session.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrInvalidRole = errors.New("invalid message role")

// Message is immutable once appended.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is append-only until Clear. It is owned by exactly one session.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Add appends a message. Only "user" and "assistant" roles are accepted.
func (c *Conversation) Add(role, content string) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
	return nil
}

// AddTurn appends a user question and its answer under one lock so no other
// writer can slip between them.
func (c *Conversation) AddTurn(question, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages,
		Message{Role: RoleUser, Content: question},
		Message{Role: RoleAssistant, Content: answer},
	)
}

// History returns a copy; callers cannot mutate the stored turns.
func (c *Conversation) History() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Last returns the most recent message; ok is false when the history is empty.
func (c *Conversation) Last() (msg Message, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Clone returns an independent conversation holding the same messages.
func (c *Conversation) Clone() *Conversation {
	return &Conversation{messages: c.History()}
}

// Transcript renders the history one "role: content" line per message.
func (c *Conversation) Transcript() string {
	var b strings.Builder
	for _, m := range c.History() {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.History())
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = messages
	return nil
}
