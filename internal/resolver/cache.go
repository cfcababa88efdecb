package resolver

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
)

// AnswerCache remembers resolved screening answers per (user, question)
// so repeated questions across applications do not trigger redundant
// resolver calls.
type AnswerCache interface {
	Get(ctx context.Context, userID, question string) (string, bool, error)
	Put(ctx context.Context, userID, question, answer string) error
}

// questionKey normalizes a question into a stable cache key.
func questionKey(userID, question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s:%x", userID, sum[:8])
}

// MemoryCache is a process-local AnswerCache.
type MemoryCache struct {
	mu      sync.RWMutex
	answers map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{answers: make(map[string]string)}
}

func (c *MemoryCache) Get(_ context.Context, userID, question string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	answer, ok := c.answers[questionKey(userID, question)]
	return answer, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, userID, question, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.answers[questionKey(userID, question)] = answer
	return nil
}
