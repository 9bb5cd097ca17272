package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"careconnect/internal/dto"
	"careconnect/internal/pkg/serverutils"

	"github.com/google/uuid"
)

// APIClient drives one chat session on a running careconnect server.
type APIClient struct {
	baseURL   string
	http      *http.Client
	sessionID uuid.UUID
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
}

// Start creates the session every later call runs against.
func (c *APIClient) Start(ctx context.Context) (*dto.SessionResponse, error) {
	var session dto.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/session/v1", nil, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.Id
	return &session, nil
}

func (c *APIClient) SessionID() uuid.UUID {
	return c.sessionID
}

func (c *APIClient) Ask(ctx context.Context, question string) (*dto.AskResponse, error) {
	var res dto.AskResponse
	err := c.do(ctx, http.MethodPost, "/api/chat/v1/"+c.sessionID.String(), dto.AskRequest{Question: question}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *APIClient) UpdateSettings(ctx context.Context, settings dto.SettingsDTO) error {
	useRAG := settings.UseRAG
	req := dto.UpdateSettingsRequest{ModelName: settings.ModelName, Category: settings.Category, UseRAG: &useRAG}
	return c.do(ctx, http.MethodPut, "/api/session/v1/"+c.sessionID.String()+"/settings", req, nil)
}

func (c *APIClient) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/session/v1/"+c.sessionID.String()+"/history", nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope serverutils.Response[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, envelope.Message)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}
