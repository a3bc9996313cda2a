package memory

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// AnswerCache remembers resolved answers per (document, question) pair so
// asking the exact same question again skips the gateway round-trip.
type AnswerCache struct {
	cache *cache.Cache
}

func NewAnswerCache() *AnswerCache {
	// Default expiration of 1 hour, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &AnswerCache{
		cache: c,
	}
}

func (r *AnswerCache) Get(documentId, question string) (string, bool) {
	if x, found := r.cache.Get(keyFor(documentId, question)); found {
		return x.(string), true
	}
	return "", false
}

func (r *AnswerCache) Save(documentId, question, answer string) {
	r.cache.Set(keyFor(documentId, question), answer, cache.DefaultExpiration)
}

func (r *AnswerCache) Flush() {
	r.cache.Flush()
}

func keyFor(documentId, question string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(question)))
	return fmt.Sprintf("%s:%x", documentId, sum)
}
