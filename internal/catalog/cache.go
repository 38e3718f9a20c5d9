// Package catalog serves the subject catalog from memory, refreshing it from
// the backing store once the cached copy is older than its TTL.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/domain"
)

// Source loads the full catalog.
type Source interface {
	Subjects(ctx context.Context) ([]domain.Subject, error)
}

type Cache struct {
	source Source
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	subjects  []domain.Subject
	fetchedAt time.Time
	ttl       time.Duration
}

func NewCache(source Source, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{source: source, ttl: ttl, logger: logger, now: time.Now}
}

// Subjects returns the cached catalog, loading it from the source when the
// cache is empty or stale. A copy is returned so callers may not mutate it.
func (c *Cache) Subjects(ctx context.Context) ([]domain.Subject, error) {
	if cached := c.get(); cached != nil {
		return cached, nil
	}

	subjects, err := c.source.Subjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subject catalog: %w", err)
	}
	c.logger.Debug("subject catalog refreshed", "count", len(subjects))
	c.set(subjects)

	out := make([]domain.Subject, len(subjects))
	copy(out, subjects)
	return out, nil
}

func (c *Cache) get() []domain.Subject {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.subjects == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil
	}

	result := make([]domain.Subject, len(c.subjects))
	copy(result, c.subjects)
	return result
}

func (c *Cache) set(subjects []domain.Subject) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subjects = make([]domain.Subject, len(subjects))
	copy(c.subjects, subjects)
	c.fetchedAt = c.now()
}

// Invalidate drops the cached copy; the next call reloads from the source.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subjects = nil
}
