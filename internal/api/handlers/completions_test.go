package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightlearn/tutor-ai-platform/internal/chat"
	"github.com/brightlearn/tutor-ai-platform/internal/history"
	"github.com/brightlearn/tutor-ai-platform/pkg/logging"
)

type fakeResponder struct {
	reply chat.Reply
	err   error

	gotMessages []chat.Message
	gotParams   chat.CompletionParams
}

func (f *fakeResponder) Respond(ctx context.Context, messages []chat.Message, params chat.CompletionParams) (chat.Reply, error) {
	f.gotMessages = messages
	f.gotParams = params
	return f.reply, f.err
}

type memTranscript struct {
	mu      sync.Mutex
	entries map[string][]history.Entry
}

func newMemTranscript() *memTranscript {
	return &memTranscript{entries: make(map[string][]history.Entry)}
}

func (m *memTranscript) Append(ctx context.Context, conversationID string, entry history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[conversationID] = append(m.entries[conversationID], entry)
	return nil
}

func (m *memTranscript) List(ctx context.Context, conversationID string, limit int64) ([]history.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.entries[conversationID]
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (m *memTranscript) count(conversationID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[conversationID])
}

func postCompletion(t *testing.T, h *CompletionHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.HandleCompletion(rec, req)
	return rec
}

func TestHandleCompletionSuccess(t *testing.T) {
	responder := &fakeResponder{reply: chat.Reply{
		VisibleText:   "A fraction is part of a whole.",
		ReasoningText: "student asked about fractions",
		Source:        chat.ProviderSource(1),
	}}
	h := NewCompletionHandler(responder, nil, logging.Default())

	rec := postCompletion(t, h, CompletionRequest{
		Messages:    []chat.Message{{Role: chat.RoleUser, Content: "what is a fraction?"}},
		Temperature: 0.5,
		MaxTokens:   256,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, chat.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, "A fraction is part of a whole.", resp.Choices[0].Message.Content)
	assert.Equal(t, "provider-1", resp.Source)
	assert.Equal(t, "student asked about fractions", resp.Reasoning)

	assert.InDelta(t, 0.5, float64(responder.gotParams.Temperature), 1e-6)
	assert.Equal(t, int32(256), responder.gotParams.MaxTokens)
}

func TestHandleCompletionBadRequests(t *testing.T) {
	h := NewCompletionHandler(&fakeResponder{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleCompletion(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postCompletion(t, h, CompletionRequest{Messages: nil})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCompletionEmptyConversationError(t *testing.T) {
	responder := &fakeResponder{err: chat.ErrEmptyConversation}
	h := NewCompletionHandler(responder, nil, logging.Default())

	rec := postCompletion(t, h, CompletionRequest{
		Messages: []chat.Message{{Role: chat.RoleAssistant, Content: "hi"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp CompletionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleCompletionPersistsExchange(t *testing.T) {
	transcript := newMemTranscript()
	responder := &fakeResponder{reply: chat.Reply{VisibleText: "answer", Source: chat.SourceFallback}}
	h := NewCompletionHandler(responder, transcript, logging.Default())

	rec := postCompletion(t, h, CompletionRequest{
		ConversationID: "conv-1",
		Messages:       []chat.Message{{Role: chat.RoleUser, Content: "question"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Persistence is detached from the response path.
	require.Eventually(t, func() bool {
		return transcript.count("conv-1") == 2
	}, time.Second, 10*time.Millisecond)

	entries, err := transcript.List(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, entries[0].Role)
	assert.Equal(t, "question", entries[0].Content)
	assert.Equal(t, chat.RoleAssistant, entries[1].Role)
	assert.Equal(t, "fallback", entries[1].Source)
}

func TestHandleCompletionSkipsPersistenceWithoutConversationID(t *testing.T) {
	transcript := newMemTranscript()
	responder := &fakeResponder{reply: chat.Reply{VisibleText: "answer", Source: chat.ProviderSource(1)}}
	h := NewCompletionHandler(responder, transcript, logging.Default())

	rec := postCompletion(t, h, CompletionRequest{
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "question"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, transcript.count(""))
}

func TestHandleHistory(t *testing.T) {
	transcript := newMemTranscript()
	require.NoError(t, transcript.Append(context.Background(), "conv-9", history.Entry{ID: "a", Role: "user", Content: "hi"}))

	h := NewCompletionHandler(&fakeResponder{}, transcript, logging.Default())
	r := chi.NewRouter()
	r.Get("/v1/conversations/{conversationID}/history", h.HandleHistory)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv-9/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []history.Entry `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "hi", resp.Messages[0].Content)
}

func TestHandleHistoryWithoutStore(t *testing.T) {
	h := NewCompletionHandler(&fakeResponder{}, nil, logging.Default())
	r := chi.NewRouter()
	r.Get("/v1/conversations/{conversationID}/history", h.HandleHistory)

	req := httptest.NewRequest(http.MethodGet, "/v1/conversations/conv-1/history", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "messages")
}

func TestProviderStatusHandler(t *testing.T) {
	board := chat.NewStatusBoard()
	board.Register("openai-fast", "gpt-4o-mini", true)
	h := NewProviderStatusHandler(board)

	req := httptest.NewRequest(http.MethodGet, "/admin/providers/status", nil)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Providers []chat.ProviderStatus `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "openai-fast", resp.Providers[0].Name)
}

func TestHealthCheck(t *testing.T) {
	h := NewCompletionHandler(&fakeResponder{}, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
