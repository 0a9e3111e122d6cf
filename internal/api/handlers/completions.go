package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/brightlearn/tutor-ai-platform/internal/chat"
	"github.com/brightlearn/tutor-ai-platform/internal/history"
	"github.com/brightlearn/tutor-ai-platform/pkg/logging"
)

// Responder is the completion pipeline entrypoint the handler depends on.
type Responder interface {
	Respond(ctx context.Context, messages []chat.Message, params chat.CompletionParams) (chat.Reply, error)
}

// TranscriptStore persists exchanges after a reply is returned. The
// completion core itself never touches storage.
type TranscriptStore interface {
	Append(ctx context.Context, conversationID string, entry history.Entry) error
	List(ctx context.Context, conversationID string, limit int64) ([]history.Entry, error)
}

// CompletionRequest is the stable inbound shape.
type CompletionRequest struct {
	ConversationID string         `json:"conversation_id,omitempty"`
	Messages       []chat.Message `json:"messages"`
	Model          string         `json:"model,omitempty"`
	Temperature    float32        `json:"temperature,omitempty"`
	MaxTokens      int32          `json:"max_tokens,omitempty"`
}

// CompletionResponse is the stable outbound shape, identical regardless of
// which internal path produced the answer.
type CompletionResponse struct {
	Success   bool     `json:"success"`
	Choices   []Choice `json:"choices,omitempty"`
	Source    string   `json:"source,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type Choice struct {
	Message chat.Message `json:"message"`
}

// CompletionHandler serves the synchronous completion endpoint.
type CompletionHandler struct {
	responder  Responder
	transcript TranscriptStore
	logger     *logging.Logger
}

func NewCompletionHandler(responder Responder, transcript TranscriptStore, logger *logging.Logger) *CompletionHandler {
	if responder == nil {
		panic("handlers: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CompletionHandler{
		responder:  responder,
		transcript: transcript,
		logger:     logger,
	}
}

// HandleCompletion accepts a conversation window and returns one assistant
// reply. Malformed requests fail synchronously before any provider runs.
func (h *CompletionHandler) HandleCompletion(w http.ResponseWriter, r *http.Request) {
	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CompletionResponse{Error: "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, CompletionResponse{Error: "messages must not be empty"})
		return
	}

	reply, err := h.responder.Respond(r.Context(), req.Messages, chat.CompletionParams{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyConversation) {
			writeJSON(w, http.StatusBadRequest, CompletionResponse{Error: err.Error()})
			return
		}
		if errors.Is(err, context.Canceled) {
			// Caller went away; nothing useful to write.
			return
		}
		h.logger.Error("completion failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, CompletionResponse{Error: "completion failed"})
		return
	}

	h.persistExchange(req, reply)

	writeJSON(w, http.StatusOK, CompletionResponse{
		Success:   true,
		Choices:   []Choice{{Message: chat.Message{Role: chat.RoleAssistant, Content: reply.VisibleText}}},
		Source:    string(reply.Source),
		Reasoning: reply.ReasoningText,
	})
}

// persistExchange appends both sides of the exchange to the transcript
// store, detached from the response path. Failures are swallowed and
// logged, never propagated.
func (h *CompletionHandler) persistExchange(req CompletionRequest, reply chat.Reply) {
	if h.transcript == nil {
		return
	}
	convID := req.ConversationID
	if convID == "" {
		return
	}
	userMsg, ok := chat.LatestUserMessage(req.Messages)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.transcript.Append(ctx, convID, history.Entry{
			ID:      uuid.NewString(),
			Role:    chat.RoleUser,
			Content: userMsg.Content,
		}); err != nil {
			h.logger.Warn("failed to persist user message", "error", err, "conversation_id", convID)
			return
		}
		if err := h.transcript.Append(ctx, convID, history.Entry{
			ID:      uuid.NewString(),
			Role:    chat.RoleAssistant,
			Content: reply.VisibleText,
			Source:  string(reply.Source),
		}); err != nil {
			h.logger.Warn("failed to persist assistant reply", "error", err, "conversation_id", convID)
		}
	}()
}

// HandleHistory returns the persisted transcript for one conversation.
func (h *CompletionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	convID := strings.TrimSpace(chi.URLParam(r, "conversationID"))
	if convID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "conversation id required"})
		return
	}
	if h.transcript == nil {
		writeJSON(w, http.StatusOK, map[string]any{"messages": []history.Entry{}})
		return
	}

	entries, err := h.transcript.List(r.Context(), convID, 100)
	if err != nil {
		h.logger.Error("failed to load transcript", "error", err, "conversation_id", convID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": entries})
}

// HealthCheck reports liveness.
func (h *CompletionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
