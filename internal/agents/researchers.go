package agents

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/ikeya/chaincouncil/consts"
	"github.com/ikeya/chaincouncil/internal/config"
	"github.com/ikeya/chaincouncil/internal/memory"
	"github.com/ikeya/chaincouncil/internal/models"
	"github.com/ikeya/chaincouncil/internal/utils"
)

// reportArgs exposes the analyst reports under the template names the
// prompts use. Absent reports render as empty strings.
func reportArgs(state *models.TradingState) map[string]any {
	return map[string]any{
		"market_report":  state.AnalystReports["market"],
		"onchain_report": state.AnalystReports["onchain"],
		"news_report":    state.AnalystReports["news"],
		"social_report":  state.AnalystReports["social"],
	}
}

// pastMemories retrieves formatted memory matches for prompt
// injection. Retrieval problems degrade to an empty recall rather
// than failing the turn.
func pastMemories(ctx context.Context, bank *memory.Bank, storeName string, situation string, topK int) string {
	if bank == nil {
		return memory.FormatMatches(nil)
	}
	store := bank.Store(storeName)
	if store == nil {
		return memory.FormatMatches(nil)
	}
	matches, err := store.Retrieve(ctx, situation, topK)
	if err != nil {
		log.Printf("[Memory] retrieval from %s failed: %v", storeName, err)
		return memory.FormatMatches(nil)
	}
	return memory.FormatMatches(matches)
}

// generateFromTemplate loads a prompt template, fills it and runs one
// generation pass.
func generateFromTemplate(ctx context.Context, chatModel model.ToolCallingChatModel,
	promptName string, args map[string]any) (string, error) {

	tpl, err := utils.LoadPrompt(promptName)
	if err != nil {
		return "", fmt.Errorf("load prompt %s: %w", promptName, err)
	}

	template := prompt.FromMessages(schema.FString, schema.UserMessage(tpl))
	messages, err := template.Format(ctx, args)
	if err != nil {
		return "", fmt.Errorf("format prompt %s: %w", promptName, err)
	}

	resp, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// NewBullSpeaker argues the long case in the research debate.
func NewBullSpeaker(chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {
	return newResearchSpeaker(consts.BullResearcher, "researchers/bull_researcher", memory.BullMemory,
		chatModel, state, bank, cfg)
}

// NewBearSpeaker argues the short case in the research debate.
func NewBearSpeaker(chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {
	return newResearchSpeaker(consts.BearResearcher, "researchers/bear_researcher", memory.BearMemory,
		chatModel, state, bank, cfg)
}

func newResearchSpeaker(role, promptName, memoryName string,
	chatModel model.ToolCallingChatModel, state *models.TradingState,
	bank *memory.Bank, cfg *config.Config) Speaker {

	return Speaker{
		Role: role,
		Respond: func(ctx context.Context, round int) (string, error) {
			ds := state.InvestmentDebateState
			args := reportArgs(state)
			args["history"] = ds.History
			args["current_response"] = ds.CurrentResponse
			args["past_memory_str"] = pastMemories(ctx, bank, memoryName, state.Situation(), cfg.TopKReflections)

			return generateFromTemplate(ctx, chatModel, promptName, args)
		},
	}
}
