package plugins

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
)

// Docs greps a local directory tree for files relevant to the input.
type Docs struct {
	root       string
	extensions []string
	maxFiles   int
	maxSize    int64
	maxHits    int
}

// DocsOption configures Docs.
type DocsOption func(*Docs)

// WithExtensions restricts the searched file extensions. Empty keeps the default.
func WithExtensions(exts ...string) DocsOption {
	return func(d *Docs) {
		if len(exts) > 0 {
			d.extensions = exts
		}
	}
}

// WithMaxFiles bounds the number of files read per search.
func WithMaxFiles(n int) DocsOption {
	return func(d *Docs) { d.maxFiles = n }
}

// NewDocs returns a document search plugin rooted at root.
func NewDocs(root string, opts ...DocsOption) *Docs {
	d := &Docs{
		root:       root,
		extensions: []string{".md", ".txt"},
		maxFiles:   200,
		maxSize:    1 << 20,
		maxHits:    3,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle searches the tree and returns the most relevant excerpts.
func (d *Docs) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	if d.root == "" {
		return plugin.Unavailable("document search not configured"), nil
	}
	if info, err := os.Stat(d.root); err != nil || !info.IsDir() {
		return plugin.Unavailable(fmt.Sprintf("document root %s is not a directory", d.root)), nil
	}

	kws := keywords(req.Text)
	var hits []hit
	files := 0
	err := filepath.WalkDir(d.root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e.IsDir() {
			name := e.Name()
			if path != d.root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if files >= d.maxFiles {
			return filepath.SkipAll
		}
		if !slices.Contains(d.extensions, filepath.Ext(path)) {
			return nil
		}
		info, err := e.Info()
		if err != nil || info.Size() > d.maxSize {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		files++

		if score := relevance(string(content), kws); score > 0.1 {
			rel, _ := filepath.Rel(d.root, path)
			hits = append(hits, hit{ref: rel, content: string(content), score: score})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("docs: walk %s: %w", d.root, err)
	}

	sortHits(hits)
	if len(hits) > d.maxHits {
		hits = hits[:d.maxHits]
	}

	var sb strings.Builder
	paths := make([]string, 0, len(hits))
	for _, h := range hits {
		paths = append(paths, h.ref)
		sb.WriteString(fmt.Sprintf("From %s (relevance %.2f):\n%s\n\n", h.ref, h.score, truncate(strings.TrimSpace(h.content), 2000)))
	}
	return &plugin.Result{
		Status: plugin.StatusOK,
		Output: strings.TrimSpace(sb.String()),
		Data:   map[string]any{"files": paths, "searched": files},
	}, nil
}
