package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBedrockAPI struct {
	out *bedrockruntime.ConverseOutput
	err error
	got *bedrockruntime.ConverseInput
}

func (f *fakeBedrockAPI) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.got = params
	return f.out, f.err
}

func bedrockText(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
			},
		},
	}
}

func TestNewBedrockProviderValidation(t *testing.T) {
	_, err := NewBedrockProvider(nil, "bedrock", "model-id")
	assert.Error(t, err)

	_, err = NewBedrockProvider(&fakeBedrockAPI{}, "bedrock", "")
	assert.Error(t, err)

	p, err := NewBedrockProvider(&fakeBedrockAPI{}, "bedrock", "model-id")
	require.NoError(t, err)
	assert.Equal(t, "bedrock", p.Name())
	assert.Equal(t, "model-id", p.Model())
}

func TestBedrockCompleteShapesRequest(t *testing.T) {
	api := &fakeBedrockAPI{out: bedrockText("Start by isolating x.")}
	p, err := NewBedrockProvider(api, "bedrock", "anthropic.claude-3-5-sonnet")
	require.NoError(t, err)

	text, err := p.Complete(context.Background(), Request{
		System: []string{"be a patient tutor"},
		Messages: []Message{
			{Role: RoleUser, Content: "solve 2x+1=7"},
			{Role: RoleAssistant, Content: "What could you subtract first?"},
			{Role: RoleUser, Content: "subtract 1?"},
		},
		MaxTokens:   512,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Start by isolating x.", text)

	require.NotNil(t, api.got)
	assert.Equal(t, "anthropic.claude-3-5-sonnet", *api.got.ModelId)
	require.Len(t, api.got.System, 1)
	require.Len(t, api.got.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleUser, api.got.Messages[0].Role)
	assert.Equal(t, brtypes.ConversationRoleAssistant, api.got.Messages[1].Role)
	require.NotNil(t, api.got.InferenceConfig)
	assert.Equal(t, int32(512), *api.got.InferenceConfig.MaxTokens)
}

func TestBedrockCompleteErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{"throttled", &brtypes.ThrottlingException{}, ErrKindRateLimited},
		{"access denied", &brtypes.AccessDeniedException{}, ErrKindUnauthenticated},
		{"model timeout", &brtypes.ModelTimeoutException{}, ErrKindTimeout},
		{"validation", &brtypes.ValidationException{}, ErrKindMalformedResponse},
		{"deadline", context.DeadlineExceeded, ErrKindTimeout},
		{"unknown", errors.New("connection reset"), ErrKindNetworkFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeBedrockAPI{err: tt.err}
			p, err := NewBedrockProvider(api, "bedrock", "model-id")
			require.NoError(t, err)

			_, err = p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestBedrockCompleteEmptyOutput(t *testing.T) {
	api := &fakeBedrockAPI{out: &bedrockruntime.ConverseOutput{}}
	p, err := NewBedrockProvider(api, "bedrock", "model-id")
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Equal(t, ErrKindMalformedResponse, KindOf(err))
}
