package agents

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/tools"
	"github.com/ikeya/chaincouncil/internal/utils"
)

// AnalystStatus tracks where an analyst is in its run.
type AnalystStatus string

const (
	AnalystIdle         AnalystStatus = "idle"
	AnalystAwaitingTool AnalystStatus = "awaiting_tool_results"
	AnalystSynthesizing AnalystStatus = "synthesizing"
	AnalystDone         AnalystStatus = "done"
)

// ErrSynthesisFailure marks an analyst that could not produce a report
// even after its tool phase completed.
var ErrSynthesisFailure = errors.New("analyst produced no report")

// Analyst drives one research specialty end to end: it calls its data
// tools through the model's tool-calling loop, then synthesizes a
// written report. A run whose tool calls all fail still produces a
// report, flagged as degraded.
type Analyst struct {
	kind     string
	model    model.ToolCallingChatModel
	invoker  *tools.Invoker
	maxCalls int
	status   AnalystStatus
}

// AnalystReport is the outcome of one analyst run.
type AnalystReport struct {
	Kind     string `json:"kind"`
	Content  string `json:"content"`
	Degraded bool   `json:"degraded"`
}

// NewAnalyst builds an analyst of the given kind with its tool subset
// bound to the model.
func NewAnalyst(ctx context.Context, kind string, chatModel model.ToolCallingChatModel,
	registry *tools.Registry, invoker *tools.Invoker, cfg *config.Config) (*Analyst, error) {

	infos, err := registry.InfosForAnalyst(ctx, kind)
	if err != nil {
		return nil, &config.ConfigurationError{Option: "enabled_analysts", Reason: err.Error()}
	}
	bound, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("bind %s analyst tools: %w", kind, err)
	}

	return &Analyst{
		kind:     kind,
		model:    bound,
		invoker:  invoker,
		maxCalls: cfg.MaxToolCallsPerAgent,
		status:   AnalystIdle,
	}, nil
}

// Kind returns the analyst specialty.
func (a *Analyst) Kind() string {
	return a.kind
}

// Status returns the analyst's current phase.
func (a *Analyst) Status() AnalystStatus {
	return a.status
}

// Run gathers data and writes the analyst's report for one token and
// date.
func (a *Analyst) Run(ctx context.Context, symbol, tradeDate string) (*AnalystReport, error) {
	systemPrompt, err := utils.LoadPrompt("analysts/" + a.kind + "_analyst")
	if err != nil {
		return nil, fmt.Errorf("load %s analyst prompt: %w", a.kind, err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(fmt.Sprintf(
			"Analyze %s as of %s. Use your tools to gather current data before writing the report.",
			symbol, tradeDate)),
	}

	toolCalls := 0
	toolFailures := 0
	degraded := false

	for {
		if err := ctx.Err(); err != nil {
			a.status = AnalystDone
			return nil, err
		}

		a.status = AnalystSynthesizing
		resp, err := a.model.Generate(ctx, messages)
		if err != nil {
			a.status = AnalystDone
			return nil, fmt.Errorf("%s analyst generation: %w", a.kind, err)
		}

		if len(resp.ToolCalls) == 0 {
			content := strings.TrimSpace(resp.Content)
			a.status = AnalystDone
			if content == "" {
				return nil, fmt.Errorf("%s analyst: %w", a.kind, ErrSynthesisFailure)
			}
			return &AnalystReport{Kind: a.kind, Content: content, Degraded: degraded}, nil
		}

		messages = append(messages, resp)
		a.status = AnalystAwaitingTool

		for _, call := range resp.ToolCalls {
			toolCalls++
			result, invokeErr := a.invoker.Invoke(ctx, call.Function.Name, call.Function.Arguments)
			if invokeErr != nil {
				degraded = true
				toolFailures++
				result = fmt.Sprintf("Tool %s failed: %v. Data unavailable; proceed with what you have.",
					call.Function.Name, invokeErr)
			}
			messages = append(messages, schema.ToolMessage(result, call.ID, schema.WithToolName(call.Function.Name)))
		}

		if toolCalls >= a.maxCalls {
			log.Printf("[Analyst:%s] tool budget exhausted after %d calls (%d failed)", a.kind, toolCalls, toolFailures)
			messages = append(messages, schema.UserMessage(
				"No further tool calls are available. Write your final report now using the data gathered so far. "+
					"Note explicitly any data that was unavailable."))
			return a.finalize(ctx, messages, degraded)
		}
	}
}

// finalize forces a last generation pass with tools exhausted.
func (a *Analyst) finalize(ctx context.Context, messages []*schema.Message, degraded bool) (*AnalystReport, error) {
	a.status = AnalystSynthesizing
	resp, err := a.model.Generate(ctx, messages)
	a.status = AnalystDone
	if err != nil {
		return nil, fmt.Errorf("%s analyst final synthesis: %w", a.kind, err)
	}
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return nil, fmt.Errorf("%s analyst: %w", a.kind, ErrSynthesisFailure)
	}
	return &AnalystReport{Kind: a.kind, Content: content, Degraded: degraded}, nil
}
