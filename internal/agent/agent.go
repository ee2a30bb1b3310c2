// Package agent runs the tool-calling conversation loop between a language
// model runtime and the query tools.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/samarth-cli/internal/ai"
	"github.com/KaramelBytes/samarth-cli/internal/tools"
	"github.com/KaramelBytes/samarth-cli/internal/utils"
)

// ErrTooManyToolRounds is returned when the model keeps requesting tools
// past the configured limit.
var ErrTooManyToolRounds = errors.New("too many tool-call rounds")

// ErrEmptyResponse is returned when the runtime replies without choices.
var ErrEmptyResponse = errors.New("model returned no choices")

// ToolCaller executes tools and advertises their definitions.
type ToolCaller interface {
	Definitions() []ai.ToolDefinition
	Call(ctx context.Context, name, argsJSON string) tools.Result
}

// Options configure the loop.
type Options struct {
	Model             string
	MaxTokens         int
	Temperature       float64
	MaxToolRounds     int
	HistoryTokenLimit int
	// MaxToolResultTokens caps each tool result handed back to the model.
	MaxToolResultTokens int
}

// ToolTrace records one executed tool call.
type ToolTrace struct {
	Name      string
	Arguments string
	Kind      tools.Kind
	Output    string
	Took      time.Duration
}

// Answer is the final reply to a question.
type Answer struct {
	Content   string
	ToolCalls []ToolTrace
	Rounds    int
	Usage     ai.Usage
}

// Agent drives one runtime with one tool set.
type Agent struct {
	runtime ai.Runtime
	tools   ToolCaller
	opts    Options
	logger  *zap.Logger
}

// New builds an Agent. Zero options fall back to defaults.
func New(runtime ai.Runtime, toolset ToolCaller, opts Options, logger *zap.Logger) *Agent {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 6
	}
	if opts.HistoryTokenLimit <= 0 {
		opts.HistoryTokenLimit = 6000
	}
	if opts.MaxToolResultTokens <= 0 {
		opts.MaxToolResultTokens = 4000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{runtime: runtime, tools: toolset, opts: opts, logger: logger}
}

// Options returns the effective options.
func (a *Agent) Options() Options { return a.opts }

// NewConversation returns an empty history bounded by the agent's limit.
func (a *Agent) NewConversation() *Conversation {
	return NewConversation(a.opts.HistoryTokenLimit)
}

// Ask answers question given prior turns. The history slice is not modified.
func (a *Agent) Ask(ctx context.Context, history []ai.Message, question string) (*Answer, error) {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: SystemPrompt})
	msgs = append(msgs, history...)
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: question})

	defs := a.tools.Definitions()
	ans := &Answer{}
	for {
		resp, err := a.runtime.Generate(ctx, ai.GenerateRequest{
			Model:       a.opts.Model,
			Messages:    msgs,
			MaxTokens:   a.opts.MaxTokens,
			Temperature: a.opts.Temperature,
			Tools:       defs,
		})
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}
		ans.Usage.PromptTokens += resp.Usage.PromptTokens
		ans.Usage.CompletionTokens += resp.Usage.CompletionTokens
		ans.Usage.TotalTokens += resp.Usage.TotalTokens

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			ans.Content = msg.Content
			return ans, nil
		}
		if ans.Rounds >= a.opts.MaxToolRounds {
			return nil, fmt.Errorf("%w (%d)", ErrTooManyToolRounds, a.opts.MaxToolRounds)
		}
		ans.Rounds++

		msgs = append(msgs, ai.Message{Role: ai.RoleAssistant, Content: msg.Content, ToolCalls: msg.ToolCalls})
		for _, tc := range msg.ToolCalls {
			start := time.Now()
			res := a.tools.Call(ctx, tc.Function.Name, tc.Function.Arguments)
			out := utils.TruncateToTokenLimit(res.Render(), a.opts.MaxToolResultTokens)
			trace := ToolTrace{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
				Kind:      res.Kind,
				Output:    out,
				Took:      time.Since(start),
			}
			ans.ToolCalls = append(ans.ToolCalls, trace)
			a.logger.Debug("tool result",
				zap.Int("round", ans.Rounds),
				zap.String("tool", trace.Name),
				zap.String("kind", string(trace.Kind)),
				zap.Duration("took", trace.Took))
			msgs = append(msgs, ai.Message{Role: ai.RoleTool, Content: out, ToolCallID: tc.ID})
		}
	}
}
