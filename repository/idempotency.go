package repository

import "context"

// IdempotencyStore guards order placement against duplicate submissions of
// the same request ID.
type IdempotencyStore interface {
	// Claim marks the key as seen. It returns false when the key was already
	// claimed by an earlier request.
	Claim(ctx context.Context, key string) (bool, error)

	// Release frees a claimed key so a failed placement can be retried.
	Release(ctx context.Context, key string) error
}
