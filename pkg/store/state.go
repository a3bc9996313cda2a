package store

import (
	"context"
	"encoding/json"

	"document-qa-be/internal/repository/contract"
)

// The three persisted-state keys. Each collection is saved independently
// whenever it changes; saves are not transactional across keys.
const (
	KeyDocuments = "docs_v1"
	KeyHistory   = "qa_v1"
	KeySelected  = "selected_doc"
)

// LoadJSON reads and decodes one key. Any miss or parse failure yields the
// fallback silently: a corrupt snapshot must never keep the app from
// starting with an empty state.
func LoadJSON[T any](ctx context.Context, repo contract.IKVRepository, key string, fallback T) T {
	raw, ok := repo.Get(ctx, key)
	if !ok {
		return fallback
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback
	}
	return out
}

// SaveJSON encodes and writes one key, reporting success. Serialization
// failure counts as a failed save, not an error to propagate.
func SaveJSON[T any](ctx context.Context, repo contract.IKVRepository, key string, value T) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return repo.Set(ctx, key, string(raw))
}
