package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"careconnect/internal/dto"
	"careconnect/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClientSessionAndAsk(t *testing.T) {
	id := uuid.New()
	var asked dto.AskRequest
	var settings dto.UpdateSettingsRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/v1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(serverutils.SuccessResponse("Session created", dto.SessionResponse{Id: id}))
	})
	mux.HandleFunc("/api/chat/v1/"+id.String(), func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&asked))
		json.NewEncoder(w).Encode(serverutils.SuccessResponse("Answer", dto.AskResponse{SessionId: id, Answer: "ok"}))
	})
	mux.HandleFunc("/api/session/v1/"+id.String()+"/settings", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&settings))
		json.NewEncoder(w).Encode(serverutils.SuccessResponse("Settings updated", dto.SessionResponse{Id: id}))
	})
	mux.HandleFunc("/api/session/v1/"+id.String()+"/history", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(serverutils.ErrorResponse(http.StatusNotFound, "session not found"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewAPIClient(srv.URL)
	ctx := context.Background()

	session, err := client.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, session.Id)
	assert.Equal(t, id, client.SessionID())

	res, err := client.Ask(ctx, "What lubricant for the premium bike?")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
	assert.Equal(t, "What lubricant for the premium bike?", asked.Question)

	require.NoError(t, client.UpdateSettings(ctx, dto.SettingsDTO{ModelName: "reka-flash", Category: "ALL", UseRAG: false}))
	assert.Equal(t, "reka-flash", settings.ModelName)
	require.NotNil(t, settings.UseRAG)
	assert.False(t, *settings.UseRAG)

	err = client.ClearHistory(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found")
}
