package contract

import "context"

// IKVRepository is the durable key-value layer the in-memory state is
// mirrored to. It never surfaces errors: a missing or unreadable key reads
// as absent, Set reports success as a bool so callers can notify the user
// without unwinding the in-memory mutation, and Delete is best-effort.
type IKVRepository interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) bool
	Delete(ctx context.Context, key string)
}
