package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/memory"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/oracle"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/reflexion"
	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/tot"
)

func TestWebSearchUnavailableWithoutKey(t *testing.T) {
	res, err := NewWebSearch("").Handle(context.Background(), &plugin.Request{Text: "latest go release"})
	require.NoError(t, err)
	assert.Equal(t, plugin.StatusUnavailable, res.Status)
	assert.Contains(t, res.Output, "TAVILY_API_KEY")
}

func TestWebSearchQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, false, req["include_answer"])
		assert.Equal(t, "advanced", req["search_depth"])
		assert.Equal(t, "go 1.24 release", req["query"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Go 1.24", "url": "https://go.dev/doc/go1.24", "content": "Go 1.24 adds generic type aliases.", "score": 0.9},
			{"title": "Blog", "url": "https://go.dev/blog", "content": "Release notes.", "score": 0.7}
		]}`))
	}))
	defer srv.Close()

	ws := NewWebSearch("test-key", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	res, err := ws.Handle(context.Background(), &plugin.Request{Text: "go 1.24 release"})
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.Contains(t, res.Output, "1. Go 1.24 (https://go.dev/doc/go1.24)")
	assert.Contains(t, res.Output, "generic type aliases")
	assert.Equal(t, []string{"https://go.dev/doc/go1.24", "https://go.dev/blog"}, res.Data["sources"])
}

func TestWebSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewWebSearch("bad", WithEndpoint(srv.URL)).Handle(context.Background(), &plugin.Request{Text: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDocs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy.md"), []byte("Deployment runbook: rollback with helm rollback."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "menu.txt"), []byte("Lunch menu for friday."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy.go"), []byte("package deploy // rollback"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "rollback.md"), []byte("rollback deployment"), 0o644))

	res, err := NewDocs(root).Handle(context.Background(), &plugin.Request{Text: "How do I rollback a deployment?"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"deploy.md"}, res.Data["files"])
	assert.Contains(t, res.Output, "helm rollback")
	assert.Equal(t, 2, res.Data["searched"])
}

func TestDocsUnavailable(t *testing.T) {
	for _, root := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		res, err := NewDocs(root).Handle(context.Background(), &plugin.Request{Text: "docs"})
		require.NoError(t, err)
		assert.Equal(t, plugin.StatusUnavailable, res.Status)
	}
}

func TestRecall(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemory()
	require.NoError(t, store.Write(ctx, memory.Entry{UserID: "u1", Input: "What is our postgres backup schedule?", Summary: "Nightly at 02:00 UTC."}))
	require.NoError(t, store.Write(ctx, memory.Entry{UserID: "u1", Input: "Recommend a sushi place", Summary: "Try Sushi Ko."}))
	require.NoError(t, store.Write(ctx, memory.Entry{UserID: "u2", Input: "postgres backup schedule", Summary: "other user"}))

	res, err := NewRecall(store).Handle(ctx, &plugin.Request{
		Text:    "postgres backup schedule again?",
		Context: plugin.TurnContext{UserID: "u1"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Nightly at 02:00 UTC.")
	assert.NotContains(t, res.Output, "Sushi")
	assert.NotContains(t, res.Output, "other user")
	assert.Equal(t, 1, res.Data["matches"])

	anon, err := NewRecall(store).Handle(ctx, &plugin.Request{Text: "postgres backup"})
	require.NoError(t, err)
	assert.Empty(t, anon.Output)
}

func TestProblemWithContext(t *testing.T) {
	got := problemWithContext(&plugin.Request{
		Text:    "the question",
		Context: plugin.TurnContext{MemoryContext: "mem", GroundedData: "  ", VerificationData: "checked"},
	})
	assert.Equal(t, "[Conversation memory]\nmem\n\n[Verification]\nchecked\n\nthe question", got)
}

// scriptedOracle answers every prompt kind used by the reasoning engines.
func scriptedOracle() oracle.Oracle {
	return oracle.Func(func(_ context.Context, call oracle.Call) (*oracle.Result, error) {
		p := call.Prompt
		var text string
		switch {
		case strings.Contains(p, "You are grading"):
			text = `{"validity": 10, "progress": 10, "coherence": 10, "promise": 10}`
		case strings.Contains(p, "Propose the single next reasoning step"):
			text = "Multiply.\nFINAL ANSWER: 42"
		case strings.Contains(p, "Solve the following problem independently"):
			text = "FINAL ANSWER: 42"
		case strings.HasPrefix(p, "Critically review"):
			text = `{"confidence": 0.9, "issues": []}`
		case strings.HasPrefix(p, "Break the text"):
			text = `["6 times 7 is 42"]`
		case strings.HasPrefix(p, "Check whether this claim"):
			text = `{"supported": true}`
		case strings.HasPrefix(p, "Answer the following task"):
			text = "6 times 7 is 42."
		default:
			err := errors.New("unexpected prompt")
			return &oracle.Result{Err: err}, err
		}
		return &oracle.Result{Text: text, Success: true}, nil
	})
}

func TestReasoningPlugins(t *testing.T) {
	o := scriptedOracle()
	treeEngine := tot.New(o)
	refl := reflexion.New(o)
	req := &plugin.Request{Text: "what is 6*7?"}
	ctx := context.Background()

	res, err := NewTreeOfThought(treeEngine).Handle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "42", res.FinalAnswer)
	assert.Equal(t, false, res.Data["partial"])

	res, err = NewSelfConsistency(treeEngine).Handle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "FINAL ANSWER: 42", res.FinalAnswer)
	assert.Equal(t, 1.0, res.Data["confidence"])

	res, err = NewReflexion(refl).Handle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "6 times 7 is 42.", res.FinalAnswer)
	assert.Equal(t, 1, res.Data["attempts"])

	res, err = NewVerification(refl).Handle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "6 times 7 is 42.", res.FinalAnswer)
	assert.Equal(t, 0, res.Data["failed"])
}

func TestTreeOfThoughtPartialHasNoFinalAnswer(t *testing.T) {
	o := oracle.Func(func(_ context.Context, call oracle.Call) (*oracle.Result, error) {
		if strings.Contains(call.Prompt, "You are grading") {
			return &oracle.Result{Text: `{"validity": 2, "progress": 2, "coherence": 2, "promise": 2}`, Success: true}, nil
		}
		return &oracle.Result{Text: "think more", Success: true}, nil
	})
	res, err := NewTreeOfThought(tot.New(o)).Handle(context.Background(), &plugin.Request{Text: "hard"})
	require.NoError(t, err)
	assert.Empty(t, res.FinalAnswer)
	assert.Equal(t, true, res.Data["partial"])
	assert.Contains(t, res.Output, "think more")
}

func TestRegister(t *testing.T) {
	o := scriptedOracle()
	reg := plugin.NewRegistry()
	require.NoError(t, Register(reg, Deps{
		ToT:       tot.New(o),
		Reflexion: reflexion.New(o),
		Recall:    memory.NewInMemory(),
	}))

	var names []string
	for _, e := range reg.List() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"recall", "websearch", "docs", "tree-of-thought", "self-consistency", "verification", "reflexion"}, names)

	providers := reg.Providers("search")
	require.Len(t, providers, 2)
	assert.Equal(t, "websearch", providers[0].Name)

	active := plugin.NewDetector(reg).DetectActive("search the latest news")
	require.NotEmpty(t, active)
	assert.Equal(t, "websearch", active[0].Name)

	err := Register(reg, Deps{})
	var cfgErr *plugin.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRegisterWithoutEngines(t *testing.T) {
	reg := plugin.NewRegistry()
	require.NoError(t, Register(reg, Deps{}))
	assert.Len(t, reg.List(), 2)
	assert.Empty(t, reg.ByCategory(plugin.CategoryReasoning))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate(strings.Repeat("ü", 10), 3)
	assert.Equal(t, "üüü...", got)
	assert.True(t, utf8.ValidString(got))
}
