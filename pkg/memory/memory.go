// Package memory stores condensed turn summaries per user and renders them
// as a context prefix for later turns.
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the memory collaborator used by the director.
type Store interface {
	// Read returns prior context for userID, or "" when there is none.
	Read(ctx context.Context, userID string) (string, error)
	// Write records one turn.
	Write(ctx context.Context, entry Entry) error
}

// Recaller lists a user's most recent turns, oldest first.
type Recaller interface {
	Recent(ctx context.Context, userID string, n int) ([]Entry, error)
}

// Entry is a condensed turn.
type Entry struct {
	ID        string
	UserID    string
	Input     string
	Summary   string
	Plugins   []string
	CreatedAt time.Time
}

// DefaultRecall is the number of prior turns rendered by Read.
const DefaultRecall = 5

// FormatContext renders entries, oldest first, as a context block.
func FormatContext(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Previous turns with this user:\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("- [%s] Q: %s\n  A: %s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), oneLine(e.Input, 200), oneLine(e.Summary, 400)))
	}
	return sb.String()
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
