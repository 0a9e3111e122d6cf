package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// openAICompletionAPI is the slice of the OpenAI client the adapter uses;
// narrowed for testability.
type openAICompletionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts the OpenAI chat completion API. Two instances with
// different model identities cover the fast primary and the larger
// same-family secondary slots in the chain.
type OpenAIProvider struct {
	api   openAICompletionAPI
	name  string
	model string
}

// NewOpenAIProvider builds an adapter for one OpenAI model. A blank API key
// means the backend is permanently unavailable for this process, so
// construction fails rather than deferring the error to request time.
func NewOpenAIProvider(apiKey, name, model string) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("chat: openai api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("chat: openai model is required")
	}
	return &OpenAIProvider{
		api:   openai.NewClient(apiKey),
		name:  name,
		model: model,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

// Complete sends the conversation to OpenAI and maps backend failures onto
// the shared ErrorKind taxonomy.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = p.model
	}

	outbound := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		outbound = append(outbound, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: block,
		})
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		outbound = append(outbound, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: content,
		})
	}

	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    outbound,
		MaxTokens:   int(req.MaxTokens),
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", &ProviderError{Provider: p.name, Kind: classifyOpenAIError(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("response contained no choices")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("response contained no text")}
	}
	return text, nil
}

func classifyOpenAIError(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrKindUnauthenticated
		case http.StatusTooManyRequests:
			return ErrKindRateLimited
		}
		return ErrKindMalformedResponse
	}
	return classifyTransport(err)
}
