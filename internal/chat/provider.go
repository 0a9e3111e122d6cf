package chat

import (
	"context"
	"sync"
	"time"
)

// Provider is one interchangeable completion backend. Adapters shape the
// outbound payload for their backend and map its failures onto ErrorKind;
// they must not mutate shared state beyond returning their result.
type Provider interface {
	// Name identifies the adapter for logging and the status surface.
	Name() string
	// Model reports the backend model identity this adapter targets.
	Model() string
	// Complete turns a message history into completion text or fails.
	Complete(ctx context.Context, req Request) (string, error)
}

// ProviderResult records the outcome of one adapter attempt. Results live
// only for the duration of a single request, for diagnostics.
type ProviderResult struct {
	Provider string
	Success  bool
	Kind     ErrorKind
	Latency  time.Duration
}

// ProviderStatus is the operator-facing view of one adapter.
type ProviderStatus struct {
	Name                 string    `json:"name"`
	Model                string    `json:"model"`
	CredentialConfigured bool      `json:"credential_configured"`
	LastProbeAt          time.Time `json:"last_probe_at,omitzero"`
	LastProbeOK          bool      `json:"last_probe_ok"`
	LastError            string    `json:"last_error,omitempty"`
}

// StatusBoard tracks per-adapter health for the read-only status surface.
// It is written by the orchestrator after each attempt and read by
// operators; it never influences the orchestration path.
type StatusBoard struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*ProviderStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{entries: make(map[string]*ProviderStatus)}
}

// Register adds an adapter to the board. Adapters without a configured
// credential are registered too, so operators can see why they are absent
// from the chain.
func (b *StatusBoard) Register(name, model string, credentialConfigured bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.entries[name]; !ok {
		b.order = append(b.order, name)
	}
	b.entries[name] = &ProviderStatus{
		Name:                 name,
		Model:                model,
		CredentialConfigured: credentialConfigured,
	}
}

// RecordProbe stores the outcome of the most recent attempt against an
// adapter.
func (b *StatusBoard) RecordProbe(name string, ok bool, errMsg string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, found := b.entries[name]
	if !found {
		return
	}
	entry.LastProbeAt = time.Now().UTC()
	entry.LastProbeOK = ok
	entry.LastError = errMsg
}

// Snapshot returns the adapters in registration order.
func (b *StatusBoard) Snapshot() []ProviderStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ProviderStatus, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, *b.entries[name])
	}
	return out
}
