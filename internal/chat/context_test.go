package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func TestAnalyzeDefaults(t *testing.T) {
	analyzer := NewContextAnalyzer()

	result := analyzer.Analyze(context.Background(), nil)
	assert.Empty(t, result.Topics)
	assert.Equal(t, ToneNeutral, result.Tone)
	assert.Equal(t, LevelIntermediate, result.Level)
	assert.Equal(t, IntentOther, result.Intent)

	// Assistant-only history carries no user signal.
	result = analyzer.Analyze(context.Background(), []Message{
		{Role: RoleAssistant, Content: "I love talking about calculus!"},
	})
	assert.Empty(t, result.Topics)
	assert.Equal(t, IntentOther, result.Intent)
}

func TestAnalyzeDeterministic(t *testing.T) {
	analyzer := NewContextAnalyzer()
	history := []Message{
		userMsg("I'm so frustrated with this algebra homework"),
		{Role: RoleAssistant, Content: "Let's take it step by step."},
		userMsg("ugh, my python code has a bug too and I am curious why"),
	}

	first := analyzer.Analyze(context.Background(), history)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, analyzer.Analyze(context.Background(), history))
	}
}

func TestAnalyzeTopics(t *testing.T) {
	analyzer := NewContextAnalyzer()
	result := analyzer.Analyze(context.Background(), []Message{
		userMsg("I'm stuck on this algebra equation"),
		userMsg("also my python function has a bug"),
	})
	// Sorted for determinism.
	assert.Equal(t, []TopicTag{TopicMath, TopicProgramming}, result.Topics)
}

func TestAnalyzeTonePriority(t *testing.T) {
	analyzer := NewContextAnalyzer()

	tests := []struct {
		name string
		text string
		tone Tone
	}{
		{"frustration cue", "I'm so frustrated with this", ToneFrustrated},
		{"curiosity cue", "I'm curious, what if we doubled it?", ToneCurious},
		{"confusion cue", "this doesn't make sense to me", ToneConfused},
		{"confidence cue", "I got this, it's easy", ToneConfident},
		{"no cue", "the assignment is due friday", ToneNeutral},
		// Frustration overrides curiosity when both fire.
		{"frustrated and curious", "I'm frustrated but also curious why this works", ToneFrustrated},
		// Curiosity overrides confusion.
		{"curious and confused", "I'm curious about this but so confused", ToneCurious},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(context.Background(), []Message{userMsg(tt.text)})
			assert.Equal(t, tt.tone, result.Tone)
		})
	}
}

func TestAnalyzeKnowledgeLevel(t *testing.T) {
	analyzer := NewContextAnalyzer()

	tests := []struct {
		name  string
		text  string
		level KnowledgeLevel
	}{
		{"advanced vocabulary", "is the integral of this polynomial related to its derivative?", LevelAdvanced},
		{"novice phrasing", "I'm new to this, can we start with the basics?", LevelBeginner},
		{"no signal", "the homework is about chapter four", LevelIntermediate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(context.Background(), []Message{userMsg(tt.text)})
			assert.Equal(t, tt.level, result.Level)
		})
	}
}

func TestAnalyzeIntent(t *testing.T) {
	analyzer := NewContextAnalyzer()

	tests := []struct {
		name   string
		text   string
		intent Intent
	}{
		{"plain greeting", "hello", IntentGreeting},
		{"greeting with punctuation", "Hey!!", IntentGreeting},
		{"good morning", "good morning", IntentGreeting},
		{"greeting embedded in question is not a greeting", "hello can you solve this equation", IntentHelpRequest},
		{"help request", "I'm stuck on problem three", IntentHelpRequest},
		{"clarification", "what do you mean by denominator", IntentClarification},
		{"acknowledgment", "thanks, got it", IntentAcknowledgment},
		{"other", "the test is on tuesday", IntentOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzer.Analyze(context.Background(), []Message{userMsg(tt.text)})
			assert.Equal(t, tt.intent, result.Intent)
		})
	}
}

func TestAnalyzeIntentUsesLatestMessageOnly(t *testing.T) {
	analyzer := NewContextAnalyzer()

	result := analyzer.Analyze(context.Background(), []Message{
		userMsg("help me with this equation, I'm frustrated"),
		userMsg("thanks, got it"),
	})

	// Intent comes from the latest message; tone still reads the window.
	assert.Equal(t, IntentAcknowledgment, result.Intent)
	assert.Equal(t, ToneFrustrated, result.Tone)
}

func TestAnalyzeWindowLimit(t *testing.T) {
	analyzer := NewContextAnalyzer()

	history := []Message{userMsg("my essay needs work")}
	for i := 0; i < contextWindow; i++ {
		history = append(history, userMsg("more practice please"))
	}

	result := analyzer.Analyze(context.Background(), history)
	require.NotNil(t, result)
	// The writing mention fell outside the trailing window.
	assert.Empty(t, result.Topics)
}
