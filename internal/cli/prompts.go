package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/ikeya/chaincouncil/internal/config"
)

// PromptForToken asks the user to pick a token from the supported list.
func PromptForToken(cfg *config.Config) (string, error) {
	var token string
	prompt := &survey.Select{
		Message: "Select the token to analyze:",
		Options: cfg.SupportedTokens,
		Default: cfg.SupportedTokens[0],
	}

	if err := survey.AskOne(prompt, &token); err != nil {
		return "", err
	}
	return token, nil
}

// PromptForTradeDate asks for the trade date, defaulting to today.
func PromptForTradeDate() (time.Time, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Enter the trade date (YYYY-MM-DD):",
		Help:    "Leave the default for today's date.",
		Default: time.Now().Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("trade date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return time.Time{}, err
	}

	return time.Parse("2006-01-02", strings.TrimSpace(dateStr))
}

// PromptForAnalysts asks which analysts should run.
func PromptForAnalysts() ([]string, error) {
	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select the analysts to run:",
		Options: config.AnalystKinds,
		Default: config.AnalystKinds,
		Help:    "market = price/technicals, onchain = chain stats, news = headlines, social = sentiment",
	}

	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		if answers, ok := val.([]survey.OptionAnswer); ok && len(answers) == 0 {
			return fmt.Errorf("select at least one analyst")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// PromptForDebateRounds asks how many rounds each debate should run.
func PromptForDebateRounds() (int, error) {
	var choice string
	prompt := &survey.Select{
		Message: "Select the debate depth:",
		Options: []string{
			"Quick   - 1 round per debate",
			"Normal  - 2 rounds per debate",
			"Deep    - 3 rounds per debate",
		},
		Default: "Quick   - 1 round per debate",
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return 0, err
	}

	switch {
	case strings.HasPrefix(choice, "Normal"):
		return 2, nil
	case strings.HasPrefix(choice, "Deep"):
		return 3, nil
	default:
		return 1, nil
	}
}

// PromptForConfirmation asks a yes/no question before a long run.
func PromptForConfirmation(message string) (bool, error) {
	confirmed := true
	prompt := &survey.Confirm{
		Message: message,
		Default: true,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
