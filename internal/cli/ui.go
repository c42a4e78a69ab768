package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/graph"
	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/internal/storage"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(72)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6B7280")).
			Padding(1, 2).
			Width(72)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dangerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	verdictStyles = map[models.Verdict]lipgloss.Style{
		models.VerdictBuy:  successStyle,
		models.VerdictSell: dangerStyle,
		models.VerdictHold: warnStyle,
	}
)

func renderWelcome() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ChainCouncil — Multi-Agent Crypto Trading Analysis"))
	b.WriteString("\n\n")
	b.WriteString("Pipeline:\n")
	b.WriteString("  • Market / On-Chain / News / Social analysts\n")
	b.WriteString("  • Bull vs Bear research debate → Research Manager\n")
	b.WriteString("  • Trader proposal → Risky/Safe/Neutral risk debate → Risk Judge\n")
	return b.String()
}

func renderRunHeader(symbol string, date time.Time, cfg *config.Config) string {
	return headerStyle.Render(fmt.Sprintf(
		"Analyzing %s for %s  |  analysts: %s  |  rounds: %d",
		symbol, date.Format("2006-01-02"),
		strings.Join(cfg.EnabledAnalysts, ","), cfg.MaxDebateRounds))
}

// renderDecision formats the end state of a run, including partial
// traces from aborted runs.
func renderDecision(state *models.TradingState) string {
	var b strings.Builder

	if state.Stage == models.StageAborted {
		b.WriteString(dangerStyle.Render(fmt.Sprintf(
			"✗ run aborted during %s", state.FailedStage)))
		b.WriteString("\n")
	}

	if state.Decision != nil {
		style, ok := verdictStyles[state.Decision.Verdict]
		if !ok {
			style = dimStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("Verdict: %s", state.Decision.Verdict)))
		if state.Decision.Overridden {
			b.WriteString(warnStyle.Render("  (risk override applied)"))
		}
		b.WriteString("\n")
	}

	if degraded := degradedAnalysts(state); len(degraded) > 0 {
		b.WriteString(warnStyle.Render(
			"⚠ data unavailable for: " + strings.Join(degraded, ", ")))
		b.WriteString("\n")
	}

	if state.FinalTradeDecision != "" {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(state.FinalTradeDecision))
	} else if state.InvestmentPlan != "" {
		b.WriteString("\n")
		b.WriteString(panelStyle.Render(state.InvestmentPlan))
	}

	return b.String()
}

// degradedAnalysts lists analysts whose report is a failure placeholder.
func degradedAnalysts(state *models.TradingState) []string {
	var out []string
	for _, kind := range config.AnalystKinds {
		if state.AnalystReports[kind] == graph.UnavailableReport {
			out = append(out, kind)
		}
	}
	return out
}

func renderRunHistory(runs []storage.RunRecord) string {
	if len(runs) == 0 {
		return dimStyle.Render("no runs recorded yet")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Analysis History"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%-6s %-8s %-12s %-8s %-12s %s\n",
		"ID", "TOKEN", "DATE", "VERDICT", "STAGE", "RUN AT"))
	for _, run := range runs {
		verdict := run.Verdict
		if run.Overridden {
			verdict += "*"
		}
		b.WriteString(fmt.Sprintf("%-6d %-8s %-12s %-8s %-12s %s\n",
			run.ID, run.Symbol, run.TradeDate, verdict, run.Stage,
			run.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	b.WriteString(dimStyle.Render("* verdict downgraded by the risk judge"))
	return b.String()
}

func renderTokenList(tokens []string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Supported Tokens"))
	b.WriteString("\n")
	for _, t := range tokens {
		b.WriteString("  • " + t + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderConfig(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Configuration"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  LLM provider:       %s\n", cfg.LLMProvider))
	b.WriteString(fmt.Sprintf("  Deep-think model:   %s\n", cfg.DeepThinkLLM))
	b.WriteString(fmt.Sprintf("  Quick-think model:  %s\n", cfg.QuickThinkLLM))
	b.WriteString(fmt.Sprintf("  Debate rounds:      %d\n", cfg.MaxDebateRounds))
	b.WriteString(fmt.Sprintf("  Risk rounds:        %d\n", cfg.MaxRiskDiscussRounds))
	b.WriteString(fmt.Sprintf("  Tool calls/agent:   %d\n", cfg.MaxToolCallsPerAgent))
	b.WriteString(fmt.Sprintf("  Analysts:           %s\n", strings.Join(cfg.EnabledAnalysts, ", ")))
	b.WriteString(fmt.Sprintf("  Memory enabled:     %t\n", cfg.MemoryEnabled))
	b.WriteString(fmt.Sprintf("  Cache enabled:      %t\n", cfg.CacheEnabled))
	b.WriteString(fmt.Sprintf("  Results dir:        %s\n", cfg.ResultsDir))
	b.WriteString(fmt.Sprintf("  Data dir:           %s", cfg.DataDir))
	return b.String()
}
