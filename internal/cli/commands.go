package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/debug"
	"github.com/ikeya/chaincouncil/internal/graph"
	"github.com/ikeya/chaincouncil/internal/storage"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cfg := config.LoadFromEnv()

	rootCmd := &cobra.Command{
		Use:   "chaincouncil",
		Short: "ChainCouncil - multi-agent crypto trading analysis",
		Long: `ChainCouncil runs a council of LLM-backed agents over live market,
on-chain, news and sentiment data for a crypto token: analysts gather
evidence, bull and bear researchers debate it, a trader drafts a plan,
and a risk team settles the final BUY/SELL/HOLD call.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
				cfg.Debug = true
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand: walk the user through an interactive run.
			return runInteractive(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newTokensCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	var (
		dateStr  string
		analysts []string
		rounds   int
	)

	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run a trading analysis for a crypto token",
		Long: `Run the full agent pipeline for a token and trade date.
Example: chaincouncil analyze BTC --date=2026-03-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))

			date := time.Now()
			if dateStr != "" {
				parsed, err := time.Parse("2006-01-02", dateStr)
				if err != nil {
					return fmt.Errorf("invalid --date %q, use YYYY-MM-DD", dateStr)
				}
				date = parsed
			}

			if len(analysts) > 0 {
				cfg.EnabledAnalysts = analysts
			}
			if rounds > 0 {
				cfg.MaxDebateRounds = rounds
				cfg.MaxRiskDiscussRounds = rounds
			}

			return runAnalysis(cfg, symbol, date)
		},
	}

	cmd.Flags().StringVar(&dateStr, "date", "", "Trade date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().StringSliceVar(&analysts, "analysts", nil,
		"Analysts to run (market,onchain,news,social); all when omitted")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "Debate rounds for both research and risk phases")

	return cmd
}

// newTokensCmd creates the tokens command.
func newTokensCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List supported tokens",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(renderTokenList(cfg.SupportedTokens))
		},
	}
}

// newHistoryCmd creates the history command.
func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var (
		symbol string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewStore(filepath.Join(cfg.DataDir, "agent.db"))
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(strings.ToUpper(symbol), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			fmt.Println(renderRunHistory(runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Filter runs by token symbol")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")

	return cmd
}

// newConfigCmd creates the config command.
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(renderConfig(cfg))
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("✓ configuration is valid"))
			return nil
		},
	})

	return configCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ChainCouncil v1.0.0")
			fmt.Println("Multi-Agent Crypto Trading Analysis")
		},
	}
}

// runAnalysis builds the pipeline and evaluates one token.
func runAnalysis(cfg *config.Config, symbol string, date time.Time) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	debugger := debug.NewEinoDebugger(cfg)
	if err := debugger.Initialize(); err != nil {
		return err
	}
	if debugger.IsEnabled() {
		fmt.Println(dimStyle.Render("eino debug UI: " + debugger.GetDebugURL()))
	}

	fmt.Println(renderRunHeader(symbol, date, cfg))

	g, err := graph.NewTradingAgentsGraph(ctx, cfg)
	if err != nil {
		return err
	}
	defer g.Close()

	state, err := g.Propagate(ctx, symbol, date)
	if state != nil {
		fmt.Println(renderDecision(state))
	}
	if err != nil {
		return fmt.Errorf("analysis for %s did not complete: %w", symbol, err)
	}

	fmt.Println(dimStyle.Render("reports written to " +
		filepath.Join(cfg.ResultsDir, symbol, date.Format("2006-01-02"))))
	return nil
}
