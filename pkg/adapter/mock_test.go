package adapter

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMockAdapterResponses(t *testing.T) {
	a := NewMockAdapterWithResponses(map[string]string{"ping": "pong"}, "")

	resp, err := a.Generate(context.Background(), Request{Prompt: "ping"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "pong" || resp.Model != "mock-1" || resp.Adapter != "mock" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = a.Generate(context.Background(), Request{Prompt: "other"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(resp.Text, "mock response:") {
		t.Fatalf("expected default response, got %q", resp.Text)
	}
}

func TestScriptedAdapterRecordsCalls(t *testing.T) {
	a := NewScriptedAdapter("fake", func(_ context.Context, req Request) (string, error) {
		if req.Prompt == "fail" {
			return "", errors.New("scripted failure")
		}
		return "echo: " + req.Prompt, nil
	})

	resp, err := a.Generate(context.Background(), Request{Prompt: "hello", System: "be brief"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Text != "echo: hello" || resp.Model != "fake-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != resp.Usage.PromptTokens+resp.Usage.CompletionTokens {
		t.Fatalf("expected consistent usage, got %+v", resp.Usage)
	}

	if _, err := a.Generate(context.Background(), Request{Prompt: "fail"}); err == nil {
		t.Fatalf("expected scripted failure")
	}
	if a.Calls() != 2 {
		t.Fatalf("expected 2 calls, got %d", a.Calls())
	}
	if got := a.Requests()[0].System; got != "be brief" {
		t.Fatalf("expected system prompt recorded, got %q", got)
	}
}

func TestScriptedAdapterHonorsCanceledContext(t *testing.T) {
	a := NewScriptedAdapter("fake", func(context.Context, Request) (string, error) {
		return "never", nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Generate(ctx, Request{Prompt: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
