// File path: internal/llm/providers/local_test.go
package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMessagesLowercasesRoles(t *testing.T) {
	input := []Message{
		{Role: "System", Content: "be terse"},
		{Role: " USER ", Content: "hello"},
	}
	normalized, err := NormalizeMessages(input)
	require.NoError(t, err)
	assert.Equal(t, "system", normalized[0].Role)
	assert.Equal(t, "user", normalized[1].Role)
	// The caller's slice stays untouched.
	assert.Equal(t, "System", input[0].Role)
}

func TestNormalizeMessagesRejectsEmpty(t *testing.T) {
	_, err := NormalizeMessages(nil)
	require.Error(t, err)
}

func TestLocalChatEchoesLastMessage(t *testing.T) {
	provider := NewLocalProvider()
	answer, err := provider.Chat(context.Background(), []Message{
		{Role: "SYSTEM", Content: "be terse"},
		{Role: "user", Content: "  what is the refund policy  "},
	})
	require.NoError(t, err)
	assert.Equal(t, "[local-stub] what is the refund policy", answer)
}

func TestLocalChatRejectsEmptyRequest(t *testing.T) {
	provider := NewLocalProvider()
	_, err := provider.Chat(context.Background(), nil)
	require.Error(t, err)
}

func TestLocalEmbedDeterministic(t *testing.T) {
	provider := NewLocalProvider()
	first, err := provider.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	second, err := provider.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0], first[1])
}
