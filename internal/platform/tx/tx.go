package tx

import "context"

// Manager wraps transactional boundaries for multi-record operations.
// Implementations reuse a transaction already carried by ctx, so nested
// calls join the outermost one.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}
