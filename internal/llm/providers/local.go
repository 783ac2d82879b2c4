// File path: internal/llm/providers/local.go
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

type Message struct {
	Role    string
	Content string
}

type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Embed(ctx context.Context, input []string) ([][]float32, error)
	Name() string
}

// NormalizeMessages lowercases roles so providers can match them exactly,
// and rejects empty requests before any network call. The input is copied.
func NormalizeMessages(messages []Message) ([]Message, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}
	normalized := make([]Message, len(messages))
	for i, msg := range messages {
		msg.Role = strings.ToLower(strings.TrimSpace(msg.Role))
		normalized[i] = msg
	}
	return normalized, nil
}

// LocalProvider keeps the service runnable without credentials. Embeddings
// are deterministic per input so cache and vector tests behave predictably.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

func (l *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	normalized, err := NormalizeMessages(messages)
	if err != nil {
		return "", err
	}
	last := normalized[len(normalized)-1].Content
	return "[local-stub] " + strings.TrimSpace(last), nil
}

func (l *LocalProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	vectors := make([][]float32, len(input))
	for i, text := range input {
		h := fnv.New32a()
		h.Write([]byte(text))
		seed := h.Sum32()
		vectors[i] = []float32{
			float32(seed%997) / 997,
			float32(seed%499) / 499,
			float32(seed%251) / 251,
		}
	}
	return vectors, nil
}

func (l *LocalProvider) Name() string {
	return "local"
}
