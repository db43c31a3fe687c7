package credentialimage

import "context"

// Generator renders a scannable image encoding content.
//
// For a given content the output must be functionally identical across calls,
// since concurrent cache misses may each generate and write.
type Generator interface {
	Generate(ctx context.Context, content string) ([]byte, error)
}
