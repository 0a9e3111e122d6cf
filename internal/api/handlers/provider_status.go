package handlers

import (
	"net/http"

	"github.com/brightlearn/tutor-ai-platform/internal/chat"
)

// ProviderStatusHandler exposes the read-only adapter health surface for
// operators. It never influences the orchestration path.
type ProviderStatusHandler struct {
	board *chat.StatusBoard
}

func NewProviderStatusHandler(board *chat.StatusBoard) *ProviderStatusHandler {
	return &ProviderStatusHandler{board: board}
}

// HandleStatus reports, per adapter, whether its credential is configured
// and whether its most recent probe succeeded.
func (h *ProviderStatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	var providers []chat.ProviderStatus
	if h.board != nil {
		providers = h.board.Snapshot()
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}
