package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider adapts Google's Gemini API as the specialized tertiary
// backend in the chain.
type GeminiProvider struct {
	client *genai.Client
	name   string
	model  string
}

// NewGeminiProvider builds the adapter. Construction fails on a blank API
// key so the orchestrator never carries an unusable adapter.
func NewGeminiProvider(ctx context.Context, apiKey, name, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: gemini api key is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, name: name, model: model}, nil
}

func (p *GeminiProvider) Name() string  { return p.name }
func (p *GeminiProvider) Model() string { return p.model }

// Complete sends the conversation to Gemini. History carries everything but
// the latest message; the latest message is the prompt.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("gemini requires at least one message")}
	}

	model := p.client.GenerativeModel(p.model)
	if req.Temperature > 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}
	if systemText := strings.TrimSpace(strings.Join(req.System, "\n\n")); systemText != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemText))
	}

	cs := model.StartChat()
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == RoleSystem {
			continue
		}
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	last := req.Messages[len(req.Messages)-1]
	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", &ProviderError{Provider: p.name, Kind: classifyGeminiError(err), Err: err}
	}

	if len(resp.Candidates) == 0 {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("gemini returned no candidates")}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("gemini returned empty content")}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("gemini returned no text parts")}
	}
	return out, nil
}

// Close releases resources held by the Gemini client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func classifyGeminiError(err error) ErrorKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrKindUnauthenticated
		case http.StatusTooManyRequests:
			return ErrKindRateLimited
		}
		return ErrKindMalformedResponse
	}
	return classifyTransport(err)
}
