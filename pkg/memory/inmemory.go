package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory is a bounded, process-local Store.
type InMemory struct {
	mu       sync.RWMutex
	entries  []Entry
	maxItems int
	recall   int
}

// InMemoryOption configures an InMemory store.
type InMemoryOption func(*InMemory)

// WithMaxItems sets the maximum number of entries kept across all users.
func WithMaxItems(max int) InMemoryOption {
	return func(m *InMemory) {
		if max > 0 {
			m.maxItems = max
		}
	}
}

// WithRecall sets how many prior turns Read renders.
func WithRecall(n int) InMemoryOption {
	return func(m *InMemory) {
		if n > 0 {
			m.recall = n
		}
	}
}

// NewInMemory creates an empty store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	m := &InMemory{maxItems: 1000, recall: DefaultRecall}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Read renders the user's most recent turns.
func (m *InMemory) Read(ctx context.Context, userID string) (string, error) {
	entries, err := m.Recent(ctx, userID, m.recall)
	if err != nil {
		return "", err
	}
	return FormatContext(entries), nil
}

// Write stores entry, evicting the oldest entries when over capacity.
func (m *InMemory) Write(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > m.maxItems {
		m.entries = m.entries[len(m.entries)-m.maxItems:]
	}
	return nil
}

// Recent returns up to n of the user's entries, oldest first.
func (m *InMemory) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Count returns the number of stored entries.
func (m *InMemory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
