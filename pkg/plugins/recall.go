package plugins

import (
	"context"
	"fmt"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
)

// Recall surfaces earlier turns whose input or summary overlaps the current
// input, looking further back than the director's recent-turns prefix.
type Recall struct {
	store    memory.Recaller
	lookback int
	maxHits  int
}

// NewRecall returns a recall plugin over store.
func NewRecall(store memory.Recaller) *Recall {
	return &Recall{store: store, lookback: 100, maxHits: 3}
}

// Handle scores recent turns against the input.
func (r *Recall) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	if req.Context.UserID == "" {
		return &plugin.Result{Status: plugin.StatusOK}, nil
	}
	entries, err := r.store.Recent(ctx, req.Context.UserID, r.lookback)
	if err != nil {
		return nil, fmt.Errorf("recall: %w", err)
	}

	kws := keywords(req.Text)
	var hits []hit
	for _, e := range entries {
		if score := relevance(e.Input+" "+e.Summary, kws); score >= 0.5 {
			hits = append(hits, hit{ref: e.ID, content: fmt.Sprintf("Q: %s\nA: %s", e.Input, truncate(e.Summary, 400)), score: score})
		}
	}
	sortHits(hits)
	if len(hits) > r.maxHits {
		hits = hits[:r.maxHits]
	}

	var sb strings.Builder
	for _, h := range hits {
		sb.WriteString(h.content)
		sb.WriteString("\n\n")
	}
	out := strings.TrimSpace(sb.String())
	if out != "" {
		out = "Related earlier turns:\n" + out
	}
	return &plugin.Result{Status: plugin.StatusOK, Output: out, Data: map[string]any{"matches": len(hits)}}, nil
}
