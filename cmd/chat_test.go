package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/samarth-cli/internal/agent"
	"github.com/KaramelBytes/samarth-cli/internal/ai"
	"github.com/KaramelBytes/samarth-cli/internal/tools"
)

// echoRuntime answers with the number of messages it was sent.
type echoRuntime struct {
	calls int
}

func (e *echoRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	e.calls++
	return &ai.GenerateResponse{Choices: []ai.Choice{{
		Message: ai.Message{Role: ai.RoleAssistant, Content: fmt.Sprintf("saw %d messages", len(req.Messages))},
	}}}, nil
}

func TestChatLoop_HistoryAndReset(t *testing.T) {
	rt := &echoRuntime{}
	a := agent.New(rt, tools.NewRegistry(), agent.Options{Model: "test"}, nil)
	in := strings.NewReader("first\n\nsecond\n/history\n/reset\nthird\n/exit\nignored\n")
	var out, errOut bytes.Buffer

	if err := chatLoop(context.Background(), in, &out, &errOut, a, ai.ProviderOpenAI); err != nil {
		t.Fatalf("chat loop: %v", err)
	}
	got := out.String()
	// system + user, then system + 2 history + user, then after reset system + user again.
	for _, want := range []string{"saw 2 messages", "saw 4 messages", "[user] first", "[assistant] saw 2 messages", "✓ Conversation cleared"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in output:\n%s", want, got)
		}
	}
	if strings.Count(got, "saw 2 messages") != 3 {
		t.Fatalf("expected the post-reset question to start fresh:\n%s", got)
	}
	if rt.calls != 3 {
		t.Fatalf("expected 3 model calls, got %d", rt.calls)
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected errors: %s", errOut.String())
	}
}

type failingRuntime struct{}

func (failingRuntime) Generate(context.Context, ai.GenerateRequest) (*ai.GenerateResponse, error) {
	return nil, &ai.AuthError{APIError: &ai.APIError{StatusCode: 401, Message: "bad key"}}
}

func TestChatLoop_ErrorsDoNotEndSession(t *testing.T) {
	a := agent.New(failingRuntime{}, tools.NewRegistry(), agent.Options{Model: "test"}, nil)
	var out, errOut bytes.Buffer
	err := chatLoop(context.Background(), strings.NewReader("q1\nq2\n"), &out, &errOut, a, ai.ProviderOpenAI)
	if err != nil {
		t.Fatalf("chat loop: %v", err)
	}
	if n := strings.Count(errOut.String(), "authentication failed"); n < 2 {
		t.Fatalf("expected an auth hint per question, got:\n%s", errOut.String())
	}
}
