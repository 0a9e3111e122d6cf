package chat

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/brightlearn/tutor-ai-platform/internal/observability/metrics"
	"github.com/brightlearn/tutor-ai-platform/pkg/logging"
)

var orchestratorTracer = otel.Tracer("tutor/orchestrator")

// tutorSystemPrompt frames every provider request. Caller-supplied system
// messages are appended after it.
const tutorSystemPrompt = `You are a patient, encouraging tutor. Explain concepts step by step, ask guiding questions instead of giving answers away, and adapt your language to the student's level. Keep replies focused on learning.`

const (
	defaultAttemptTimeout = 12 * time.Second
	defaultMaxTokens      = 1024
	defaultTemperature    = 0.7
)

// Orchestrator coordinates one completion run: moderation gate, sequential
// provider chain with per-attempt timeouts, and the local fallback
// generator when every provider fails. All components are injected so
// tests can substitute mock adapters.
type Orchestrator struct {
	providers  []Provider
	moderation *ModerationEngine
	analyzer   *ContextAnalyzer
	fallback   *FallbackGenerator
	post       *ResponsePostProcessor
	status     *StatusBoard
	metrics    *metrics.OrchestrationMetrics
	logger     *logging.Logger

	attemptTimeout time.Duration
	maxTokens      int32
	temperature    float32
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithAttemptTimeout bounds each provider attempt.
func WithAttemptTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

// WithModerationEngine substitutes the moderation rule table.
func WithModerationEngine(e *ModerationEngine) OrchestratorOption {
	return func(o *Orchestrator) {
		if e != nil {
			o.moderation = e
		}
	}
}

// WithFallbackGenerator substitutes the fallback template source.
func WithFallbackGenerator(g *FallbackGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		if g != nil {
			o.fallback = g
		}
	}
}

// WithStatusBoard attaches the operator-facing status board.
func WithStatusBoard(b *StatusBoard) OrchestratorOption {
	return func(o *Orchestrator) { o.status = b }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.OrchestrationMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithCompletionDefaults overrides the token budget and temperature applied
// when the caller does not specify them.
func WithCompletionDefaults(maxTokens int32, temperature float32) OrchestratorOption {
	return func(o *Orchestrator) {
		if maxTokens > 0 {
			o.maxTokens = maxTokens
		}
		if temperature >= 0 {
			o.temperature = temperature
		}
	}
}

// NewOrchestrator wires the pipeline around the supplied providers, in
// priority order. Providers are attempted exactly once per request, first
// success wins.
func NewOrchestrator(providers []Provider, logger *logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}

	o := &Orchestrator{
		providers:      providers,
		moderation:     NewModerationEngine(),
		analyzer:       NewContextAnalyzer(),
		fallback:       NewFallbackGenerator(time.Now().UnixNano()),
		post:           NewResponsePostProcessor(),
		logger:         logger,
		attemptTimeout: defaultAttemptTimeout,
		maxTokens:      defaultMaxTokens,
		temperature:    defaultTemperature,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond produces exactly one assistant reply for the conversation.
// Moderation blocks are normal replies, not errors; the only user-visible
// error before the chain runs is a malformed (empty) conversation.
func (o *Orchestrator) Respond(ctx context.Context, messages []Message, params CompletionParams) (Reply, error) {
	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.respond")
	defer span.End()

	latest, ok := LatestUserMessage(messages)
	if !ok {
		return Reply{}, ErrEmptyConversation
	}

	verdict := o.moderation.Classify(latest.Content)
	if !verdict.Allowed {
		o.metrics.ObserveModeration(string(verdict.Category), "blocked")
		o.metrics.ObserveReply(string(SourceModeration))
		span.SetAttributes(attribute.String("moderation.category", string(verdict.Category)))
		o.logger.Info("message blocked by moderation", "category", verdict.Category)
		return Reply{VisibleText: verdict.CannedReply, Source: SourceModeration}, nil
	}
	if verdict.Bypassed {
		o.metrics.ObserveModeration("", "bypassed")
		o.logger.Debug("moderation bypassed for assessment request")
	} else {
		o.metrics.ObserveModeration("", "allowed")
	}

	req := o.buildRequest(messages, params)

	results := make([]ProviderResult, 0, len(o.providers))
	for i, provider := range o.providers {
		reply, result, done := o.attempt(ctx, provider, i, req)
		results = append(results, result)
		if done {
			o.metrics.ObserveReply(string(reply.Source))
			o.dispatchAnalytics(reply.Source, results)
			return reply, nil
		}
		// A cancelled caller gets no fallback; abandon the chain.
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
	}

	o.logger.Warn("all providers exhausted, using local fallback",
		"attempts", len(results),
	)

	convContext := o.analyzer.Analyze(ctx, messages)
	text := o.fallback.Generate(convContext)
	processed := o.post.Process(text)

	reply := Reply{
		VisibleText:   processed.VisibleText,
		ReasoningText: processed.ReasoningText,
		Source:        SourceFallback,
	}
	o.metrics.ObserveReply(string(SourceFallback))
	o.dispatchAnalytics(SourceFallback, results)
	return reply, nil
}

// attempt runs one provider exactly once under the per-attempt timeout.
// done reports whether the reply should be returned to the caller.
func (o *Orchestrator) attempt(ctx context.Context, provider Provider, index int, req Request) (Reply, ProviderResult, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()

	start := time.Now()
	text, err := provider.Complete(attemptCtx, req)
	latency := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = &ProviderError{Provider: provider.Name(), Kind: ErrKindMalformedResponse}
	}

	if err != nil {
		kind := KindOf(err)
		o.status.recordIfPresent(provider.Name(), false, err.Error())
		o.metrics.ObserveAttempt(provider.Name(), string(kind), latency.Seconds())
		o.logger.Warn("provider attempt failed",
			"provider", provider.Name(),
			"kind", kind,
			"latency_ms", latency.Milliseconds(),
			"error", err.Error(),
		)
		return Reply{}, ProviderResult{Provider: provider.Name(), Kind: kind, Latency: latency}, false
	}

	o.status.recordIfPresent(provider.Name(), true, "")
	o.metrics.ObserveAttempt(provider.Name(), "success", latency.Seconds())

	processed := o.post.Process(text)
	reply := Reply{
		VisibleText:   processed.VisibleText,
		ReasoningText: processed.ReasoningText,
		Source:        ProviderSource(index + 1),
	}
	return reply, ProviderResult{Provider: provider.Name(), Success: true, Latency: latency}, true
}

func (o *Orchestrator) buildRequest(messages []Message, params CompletionParams) Request {
	system := []string{tutorSystemPrompt}
	chain := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if strings.TrimSpace(m.Content) != "" {
				system = append(system, m.Content)
			}
			continue
		}
		chain = append(chain, m)
	}

	req := Request{
		Model:       params.Model,
		System:      system,
		Messages:    chain,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = params.MaxTokens
	}
	if params.Temperature > 0 {
		req.Temperature = params.Temperature
	}
	return req
}

// dispatchAnalytics logs per-request diagnostics off the response path.
// Detached and never awaited; failures are swallowed.
func (o *Orchestrator) dispatchAnalytics(source SourceLabel, results []ProviderResult) {
	snapshot := make([]ProviderResult, len(results))
	copy(snapshot, results)

	go func() {
		for _, r := range snapshot {
			if r.Success {
				continue
			}
			o.logger.Debug("provider attempt diagnostics",
				"provider", r.Provider,
				"kind", r.Kind,
				"latency_ms", r.Latency.Milliseconds(),
			)
		}
		o.logger.Info("reply produced",
			"source", source,
			"attempts", len(snapshot),
		)
	}()
}

// recordIfPresent tolerates a nil status board so the orchestrator can run
// without the operator surface in tests.
func (b *StatusBoard) recordIfPresent(name string, ok bool, errMsg string) {
	if b == nil {
		return
	}
	b.RecordProbe(name, ok, errMsg)
}
