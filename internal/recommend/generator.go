// Package recommend turns the history head into "recommended next search"
// items by asking a text-generation collaborator and parsing its free-form
// answer.
package recommend

import "context"

// Generator produces free-form text for a prompt. An error means the call
// itself failed (transport, status); an unhelpful answer is not an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OfflineGenerator answers every prompt with empty text. With it every
// refresh ends up on the local fallback, which is how the service runs when no
// AI key is configured.
type OfflineGenerator struct{}

func (OfflineGenerator) Generate(context.Context, string) (string, error) {
	return "", nil
}
