package events

import (
	"encoding/json"
	"time"
)

// ChatTurnCompleted fires after both messages of a turn are stored.
const ChatTurnCompleted = "CHAT_TURN_COMPLETED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form shared by every transport.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Marshal(e Event) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	})
}

func Unmarshal(data []byte) (BaseEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, err
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// TurnCompleted carries one finished question/answer pair.
type TurnCompleted struct {
	SessionID string   `json:"session_id"`
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	Fallback  bool     `json:"fallback"`
	Warning   string   `json:"warning,omitempty"`
}

func (t TurnCompleted) Event() BaseEvent {
	sources := make([]interface{}, 0, len(t.Sources))
	for _, s := range t.Sources {
		sources = append(sources, s)
	}
	data := map[string]interface{}{
		"session_id": t.SessionID,
		"question":   t.Question,
		"answer":     t.Answer,
		"sources":    sources,
		"fallback":   t.Fallback,
	}
	if t.Warning != "" {
		data["warning"] = t.Warning
	}
	return BaseEvent{Type: ChatTurnCompleted, Data: data, OccurredAt: time.Now().UTC()}
}

// SessionID extracts the session a turn event belongs to.
func SessionID(e Event) string {
	id, _ := e.Payload()["session_id"].(string)
	return id
}
