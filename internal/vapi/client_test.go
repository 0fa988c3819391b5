package vapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmind/backend/internal/vapi"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *vapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return vapi.NewClient(srv.URL, "secret-token", 5*time.Second)
}

func TestUploadText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "lease.txt", header.Filename)
		assert.Equal(t, "text/plain; charset=utf-8", header.Header.Get("Content-Type"))

		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "extracted text", string(content))

		w.Write([]byte(`{"id": "file_123"}`))
	})

	id, err := client.UploadText(context.Background(), "extracted text", "lease.pdf")
	require.NoError(t, err)
	assert.Equal(t, "file_123", id)
}

func TestUploadText_DefaultFilename(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "kb.txt", header.Filename)
		w.Write([]byte(`{"id": "file_456"}`))
	})

	id, err := client.UploadText(context.Background(), "text", "")
	require.NoError(t, err)
	assert.Equal(t, "file_456", id)
}

func TestUploadText_MissingIDIsContractBreak(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	})

	_, err := client.UploadText(context.Background(), "text", "doc.pdf")
	assert.ErrorIs(t, err, vapi.ErrMalformedResponse)
	assert.NotErrorIs(t, err, vapi.ErrUploadFailed)
}

func TestUploadText_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.UploadText(context.Background(), "text", "doc.pdf")
	assert.ErrorIs(t, err, vapi.ErrUploadFailed)
}

func TestCreateAssistant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/assistant", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "HOA Bot", payload["name"])

		model := payload["model"].(map[string]any)
		assert.Equal(t, "openai", model["provider"])
		assert.Equal(t, "gpt-4o-mini", model["model"])

		kb := model["knowledgeBase"].(map[string]any)
		assert.Equal(t, []any{"f1", "f2"}, kb["fileIds"])

		messages := model["messages"].([]any)
		require.Len(t, messages, 1)
		assert.Equal(t, "system", messages[0].(map[string]any)["role"])

		voice := payload["voice"].(map[string]any)
		assert.Equal(t, "11labs", voice["provider"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "asst_1", "name": "HOA Bot"}`))
	})

	req := vapi.NewAssistantRequest("HOA Bot", "Hello!", "Be helpful.", []string{"f1", "f2"})
	assistant, err := client.CreateAssistant(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "asst_1", assistant.ID())
}

func TestCreateAssistant_UpstreamRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid voice"}`, http.StatusBadRequest)
	})

	req := vapi.NewAssistantRequest("Bot", "Hi", "Prompt", []string{"f1"})
	_, err := client.CreateAssistant(context.Background(), req)

	var apiErr *vapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid voice")
	assert.NotContains(t, apiErr.Error(), "secret-token")
}

func TestListCalls_QueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call", r.URL.Path)
		assert.Equal(t, "asst_1", r.URL.Query().Get("assistantId"))
		assert.Equal(t, "phone_1", r.URL.Query().Get("phoneNumberId"))
		w.Write([]byte(`[{"id": "call_1"}, {"id": "call_2"}]`))
	})

	calls, err := client.ListCalls(context.Background(), "asst_1", "phone_1")
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestDeleteAssistant_RemoteFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/assistant/asst_1", r.URL.Path)
		http.Error(w, "not found", http.StatusNotFound)
	})

	err := client.DeleteAssistant(context.Background(), "asst_1")
	var apiErr *vapi.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestGetCall(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/call/call_1", r.URL.Path)
		w.Write([]byte(`{"id": "call_1", "status": "ended"}`))
	})

	call, err := client.GetCall(context.Background(), "call_1")
	require.NoError(t, err)
	assert.Equal(t, "ended", call["status"])
}
