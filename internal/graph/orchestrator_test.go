package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/shopspring/decimal"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/dataflows"
	"github.com/ikeya/chaincouncil/internal/llm"
	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/internal/tools"
)

// scriptedModel replays responses in order; when the script runs out
// it repeats the last entry.
type scriptedModel struct {
	responses []*schema.Message
	idx       int
	err       error
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.idx >= len(m.responses) {
		return m.responses[len(m.responses)-1], nil
	}
	resp := m.responses[m.idx]
	m.idx++
	return resp, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *scriptedModel) WithTools(infos []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func say(content string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: content}
}

type offlinePrices struct{}

func (offlinePrices) GetQuote(symbol string) (*dataflows.Candle, error) {
	return nil, errors.New("offline")
}
func (offlinePrices) GetCandleWindow(symbol string, days int) ([]*dataflows.Candle, error) {
	price := decimal.NewFromInt(64000)
	return []*dataflows.Candle{{Symbol: symbol, Date: time.Now(),
		Open: price, High: price, Low: price, Close: price, Volume: decimal.NewFromInt(1)}}, nil
}

type offlineMarkets struct{}

func (offlineMarkets) GetMarketSummary(symbol string) (*dataflows.MarketSummary, error) {
	return &dataflows.MarketSummary{Symbol: symbol, Name: "Bitcoin"}, nil
}
func (offlineMarkets) GetGlobalMarket() (*dataflows.GlobalMarket, error) {
	return &dataflows.GlobalMarket{}, nil
}
func (offlineMarkets) GetFearGreedIndex() (*dataflows.FearGreed, error) {
	return &dataflows.FearGreed{Value: 40, Classification: "Fear"}, nil
}
func (offlineMarkets) GetTrendingCoins() ([]*dataflows.TrendingCoin, error) { return nil, nil }

type offlineChain struct{}

func (offlineChain) GetStats(symbol string) (*dataflows.OnChainStats, error) {
	return &dataflows.OnChainStats{Symbol: symbol}, nil
}

type offlineNews struct{}

func (offlineNews) GetNews(symbol string, limit int) ([]*dataflows.NewsArticle, error) {
	return nil, nil
}

func (offlineNews) GetRegulatoryNews(limit int) ([]*dataflows.NewsArticle, error) {
	return nil, nil
}

func (offlineNews) ScrapeArticle(url string) (string, error) {
	return "", nil
}

func offlineRegistry(cfg *config.Config) (*tools.Registry, *tools.Invoker) {
	r := tools.NewRegistry(&tools.Datasources{
		Prices: offlinePrices{}, Markets: offlineMarkets{},
		Chain: offlineChain{}, News: offlineNews{},
	})
	return r, tools.NewInvoker(r, cfg.CallTimeout)
}

// judgeScript returns the deep-model script: research manager, trader,
// risk judge.
func judgeScript(finalVerdict string) *scriptedModel {
	return &scriptedModel{responses: []*schema.Message{
		say("The debate favors caution. FINAL TRANSACTION PROPOSAL: **" + finalVerdict + "**"),
		say("Position plan per the manager's call. FINAL TRANSACTION PROPOSAL: **" + finalVerdict + "**"),
		say("Risk posture confirmed. FINAL TRANSACTION PROPOSAL: **" + finalVerdict + "**"),
	}}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, quick, deep model.ToolCallingChatModel) *Orchestrator {
	t.Helper()
	registry, invoker := offlineRegistry(cfg)
	o, err := NewOrchestrator(cfg, llm.NewProviderFromModels(deep, quick), registry, invoker, nil)
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}
	return o
}

func TestRunCompletesOffline(t *testing.T) {
	cfg := config.DefaultConfig()
	quick := &scriptedModel{responses: []*schema.Message{say("analysis text")}}
	o := newTestOrchestrator(t, cfg, quick, judgeScript("HOLD"))

	state, err := o.Run(context.Background(), "BTC", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state.Stage != models.StageComplete {
		t.Errorf("got stage %s, want complete", state.Stage)
	}
	if state.Decision == nil {
		t.Fatal("no decision recorded")
	}
	switch state.Decision.Verdict {
	case models.VerdictBuy, models.VerdictSell, models.VerdictHold:
	default:
		t.Errorf("verdict %q outside the allowed set", state.Decision.Verdict)
	}
	for _, kind := range cfg.EnabledAnalysts {
		if _, ok := state.AnalystReports[kind]; !ok {
			t.Errorf("missing report for %s analyst", kind)
		}
	}
}

func TestRunExactDebateLengths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxDebateRounds = 1
	cfg.MaxRiskDiscussRounds = 1
	quick := &scriptedModel{responses: []*schema.Message{say("argument")}}
	o := newTestOrchestrator(t, cfg, quick, judgeScript("HOLD"))

	state, err := o.Run(context.Background(), "BTC", time.Now())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := len(state.InvestmentDebateState.Transcript); got != 2 {
		t.Errorf("research debate with one round should have 2 turns, got %d", got)
	}
	if got := len(state.RiskDebateState.Transcript); got != 3 {
		t.Errorf("risk debate with one round should have 3 turns, got %d", got)
	}

	cfg2 := config.DefaultConfig()
	cfg2.MaxDebateRounds = 2
	cfg2.MaxRiskDiscussRounds = 2
	o2 := newTestOrchestrator(t, cfg2,
		&scriptedModel{responses: []*schema.Message{say("argument")}}, judgeScript("HOLD"))

	state2, err := o2.Run(context.Background(), "BTC", time.Now())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := len(state2.InvestmentDebateState.Transcript); got != 4 {
		t.Errorf("research debate with two rounds should have 4 turns, got %d", got)
	}
	if got := len(state2.RiskDebateState.Transcript); got != 6 {
		t.Errorf("risk debate with two rounds should have 6 turns, got %d", got)
	}
}

func TestRunSurvivesAllAnalystFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	// Quick model fails every call: all analysts fail, every debate
	// turn degrades to a placeholder. The run must still settle.
	quick := &scriptedModel{err: errors.New("model backend down")}
	o := newTestOrchestrator(t, cfg, quick, judgeScript("HOLD"))

	done := make(chan struct{})
	var state *models.TradingState
	var err error
	go func() {
		state, err = o.Run(context.Background(), "BTC", time.Now())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run deadlocked with failing analysts")
	}

	if err != nil {
		t.Fatalf("Run should settle despite analyst failures: %v", err)
	}
	for _, kind := range cfg.EnabledAnalysts {
		if state.AnalystReports[kind] != UnavailableReport {
			t.Errorf("%s analyst should carry the unavailable placeholder", kind)
		}
	}
	if state.Decision.Verdict != models.VerdictHold {
		t.Errorf("got %s, want HOLD", state.Decision.Verdict)
	}
}

func TestRunUnsupportedToken(t *testing.T) {
	cfg := config.DefaultConfig()
	o := newTestOrchestrator(t, cfg,
		&scriptedModel{responses: []*schema.Message{say("x")}}, judgeScript("HOLD"))

	_, err := o.Run(context.Background(), "DOGE2", time.Now())
	var cfgErr *config.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("want ConfigurationError for unsupported token, got %v", err)
	}
}

func TestRunCancellationAborts(t *testing.T) {
	cfg := config.DefaultConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(t, cfg,
		&scriptedModel{responses: []*schema.Message{say("x")}}, judgeScript("HOLD"))

	state, err := o.Run(ctx, "BTC", time.Now())
	if err == nil {
		t.Fatal("cancelled run must return an error")
	}
	if state == nil {
		t.Fatal("cancelled run must still return the partial state")
	}
	if state.Stage != models.StageAborted {
		t.Errorf("got stage %s, want aborted", state.Stage)
	}
	if state.FailedStage == "" {
		t.Error("aborted state should name the failed stage")
	}
}

func TestRunAbortsOnFinalSynthesisFailure(t *testing.T) {
	cfg := config.DefaultConfig()
	quick := &scriptedModel{responses: []*schema.Message{say("argument")}}
	// Deep model fails on its first call (research manager).
	deep := &scriptedModel{err: errors.New("deep model down")}
	o := newTestOrchestrator(t, cfg, quick, deep)

	state, err := o.Run(context.Background(), "BTC", time.Now())
	if err == nil {
		t.Fatal("expected abort when the judge cannot synthesize")
	}
	if state.Stage != models.StageAborted {
		t.Errorf("got stage %s, want aborted", state.Stage)
	}
	if state.FailedStage != "research_debate" {
		t.Errorf("got failed stage %s, want research_debate", state.FailedStage)
	}
	if len(state.InvestmentDebateState.Transcript) != 2*cfg.MaxDebateRounds {
		t.Error("debate transcript should survive the abort")
	}
}

func TestRunDeterministicWithScriptedModels(t *testing.T) {
	run := func() models.Verdict {
		cfg := config.DefaultConfig()
		o := newTestOrchestrator(t, cfg,
			&scriptedModel{responses: []*schema.Message{say("steady analysis")}},
			judgeScript("BUY"))
		state, err := o.Run(context.Background(), "ETH", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return state.Decision.Verdict
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("identical scripted runs disagree: %s vs %s", first, second)
	}
	if first != models.VerdictBuy {
		t.Errorf("got %s, want BUY", first)
	}
}
