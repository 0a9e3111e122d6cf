package chat

import (
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation. Ordering is significant: oldest
// first. Messages are never mutated once appended.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionParams carries the caller-tunable knobs for one request.
// Zero values mean "use the orchestrator defaults".
type CompletionParams struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Request is the uniform payload every provider adapter receives.
type Request struct {
	Model       string
	System      []string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
}

// SourceLabel identifies which internal path produced a reply.
type SourceLabel string

const (
	SourceModeration SourceLabel = "moderation"
	SourceFallback   SourceLabel = "fallback"
)

// ProviderSource labels a reply produced by the nth adapter in the chain
// (1-based, matching the configured priority order).
func ProviderSource(n int) SourceLabel {
	return SourceLabel(fmt.Sprintf("provider-%d", n))
}

// Reply is the terminal artifact of one orchestration run. It is
// constructed once and not mutated afterwards.
type Reply struct {
	VisibleText   string
	ReasoningText string
	Source        SourceLabel
}

// LatestUserMessage returns the most recent user-authored message, if any.
func LatestUserMessage(messages []Message) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser && strings.TrimSpace(messages[i].Content) != "" {
			return messages[i], true
		}
	}
	return Message{}, false
}

// UserMessages returns the user-authored messages in order, keeping at most
// the trailing window of size limit. A limit <= 0 keeps everything.
func UserMessages(messages []Message, limit int) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleUser && strings.TrimSpace(m.Content) != "" {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
