package cli

import (
	"fmt"

	"github.com/ikeya/chaincouncil/internal/config"
)

// runInteractive walks the user through one analysis run.
func runInteractive(cfg *config.Config) error {
	fmt.Println(renderWelcome())

	token, err := PromptForToken(cfg)
	if err != nil {
		return err
	}

	date, err := PromptForTradeDate()
	if err != nil {
		return err
	}

	analysts, err := PromptForAnalysts()
	if err != nil {
		return err
	}
	cfg.EnabledAnalysts = analysts

	rounds, err := PromptForDebateRounds()
	if err != nil {
		return err
	}
	cfg.MaxDebateRounds = rounds
	cfg.MaxRiskDiscussRounds = rounds

	ok, err := PromptForConfirmation(fmt.Sprintf(
		"Analyze %s for %s with %d analyst(s)?", token, date.Format("2006-01-02"), len(analysts)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(dimStyle.Render("cancelled"))
		return nil
	}

	return runAnalysis(cfg, token, date)
}
