package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestUserMessage(t *testing.T) {
	_, ok := LatestUserMessage(nil)
	assert.False(t, ok)

	_, ok = LatestUserMessage([]Message{
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "   "},
	})
	assert.False(t, ok, "blank user messages do not count")

	msg, ok := LatestUserMessage([]Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	})
	require.True(t, ok)
	assert.Equal(t, "second", msg.Content)
}

func TestUserMessagesWindow(t *testing.T) {
	history := []Message{
		{Role: RoleSystem, Content: "grade 8"},
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "r1"},
		{Role: RoleUser, Content: "two"},
		{Role: RoleUser, Content: "three"},
	}

	all := UserMessages(history, 0)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)

	windowed := UserMessages(history, 2)
	require.Len(t, windowed, 2)
	assert.Equal(t, "two", windowed[0].Content)
	assert.Equal(t, "three", windowed[1].Content)
}

func TestProviderSourceLabels(t *testing.T) {
	assert.Equal(t, SourceLabel("provider-1"), ProviderSource(1))
	assert.Equal(t, SourceLabel("provider-3"), ProviderSource(3))
}
