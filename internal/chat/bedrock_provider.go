package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// bedrockConverseAPI is the slice of the Bedrock runtime client the adapter
// uses; narrowed for testability.
type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider adapts the AWS Bedrock Converse API as the last remote
// backend in the chain.
type BedrockProvider struct {
	api   bedrockConverseAPI
	name  string
	model string
}

// NewBedrockProvider builds the adapter around an already-configured
// Bedrock runtime client.
func NewBedrockProvider(api bedrockConverseAPI, name, model string) (*BedrockProvider, error) {
	if api == nil {
		return nil, errors.New("chat: bedrock converse client is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("chat: bedrock model id is required")
	}
	return &BedrockProvider{api: api, name: name, model: model}, nil
}

func (p *BedrockProvider) Name() string  { return p.name }
func (p *BedrockProvider) Model() string { return p.model }

// Complete shapes the conversation into a Converse call and maps Bedrock
// failures onto the shared taxonomy.
func (p *BedrockProvider) Complete(ctx context.Context, req Request) (string, error) {
	systemBlocks := make([]brtypes.SystemContentBlock, 0, len(req.System))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: block})
	}

	messages := make([]brtypes.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case RoleSystem:
			systemBlocks = append(systemBlocks, &brtypes.SystemContentBlockMemberText{Value: content})
		case RoleUser:
			messages = append(messages, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		case RoleAssistant:
			messages = append(messages, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: content}},
			})
		default:
			return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: errors.New("unsupported role " + msg.Role)}
		}
	}

	inference := &brtypes.InferenceConfiguration{}
	if req.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		inference.Temperature = aws.Float32(req.Temperature)
	}
	if inference.MaxTokens == nil && inference.Temperature == nil {
		inference = nil
	}

	out, err := p.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(p.model),
		System:          systemBlocks,
		Messages:        messages,
		InferenceConfig: inference,
	})
	if err != nil {
		return "", &ProviderError{Provider: p.name, Kind: classifyBedrockError(err), Err: err}
	}

	text, err := bedrockOutputText(out)
	if err != nil {
		return "", &ProviderError{Provider: p.name, Kind: ErrKindMalformedResponse, Err: err}
	}
	return text, nil
}

func bedrockOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", errors.New("bedrock response contained no text content blocks")
	}
	return text, nil
}

func classifyBedrockError(err error) ErrorKind {
	var throttled *brtypes.ThrottlingException
	if errors.As(err, &throttled) {
		return ErrKindRateLimited
	}
	var denied *brtypes.AccessDeniedException
	if errors.As(err, &denied) {
		return ErrKindUnauthenticated
	}
	var modelTimeout *brtypes.ModelTimeoutException
	if errors.As(err, &modelTimeout) {
		return ErrKindTimeout
	}
	var validation *brtypes.ValidationException
	if errors.As(err, &validation) {
		return ErrKindMalformedResponse
	}
	return classifyTransport(err)
}
