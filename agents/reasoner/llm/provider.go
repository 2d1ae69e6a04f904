// ABOUTME: Provider is the adapter seam every concrete backend (Anthropic, OpenAI) implements.
package llm

import "context"

// Provider issues one completion request against a concrete backend.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
