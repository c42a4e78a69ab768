package models

import (
	"encoding/json"
	"time"

	"github.com/ikeya/chaincouncil/internal/config"
)

// Stage identifies where a run currently is in the pipeline. Only the
// orchestrator writes it.
type Stage string

const (
	StageCollectingAnalysts Stage = "collecting_analysts"
	StageResearchDebate     Stage = "research_debate"
	StageTraderDecision     Stage = "trader_decision"
	StageRiskDebate         Stage = "risk_debate"
	StageFinalDecision      Stage = "final_decision"
	StageComplete           Stage = "complete"
	StageAborted            Stage = "aborted"
)

// DebateTurn is one utterance in a debate transcript. Transcripts are
// append-only within a session.
type DebateTurn struct {
	Role      string    `json:"role"`
	Round     int       `json:"round"` // 1-based
	Text      string    `json:"text"`
	Degraded  bool      `json:"degraded,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InvestDebateState tracks the bull/bear research debate.
type InvestDebateState struct {
	Transcript      []DebateTurn `json:"transcript"`
	BullHistory     string       `json:"bull_history"`
	BearHistory     string       `json:"bear_history"`
	History         string       `json:"history"`
	CurrentResponse string       `json:"current_response"`
	JudgeDecision   string       `json:"judge_decision"`
	Count           int          `json:"count"`
	CurrentRound    int          `json:"current_round"`
	Complete        bool         `json:"complete"`
}

// RiskDebateState tracks the risky/safe/neutral risk discussion.
type RiskDebateState struct {
	Transcript     []DebateTurn `json:"transcript"`
	RiskyHistory   string       `json:"risky_history"`
	SafeHistory    string       `json:"safe_history"`
	NeutralHistory string       `json:"neutral_history"`
	History        string       `json:"history"`
	LatestSpeaker  string       `json:"latest_speaker"`
	JudgeDecision  string       `json:"judge_decision"`
	Count          int          `json:"count"`
	CurrentRound   int          `json:"current_round"`
	Complete       bool         `json:"complete"`
}

// TradingState is the single mutable record for one (symbol, date)
// evaluation. The orchestrator owns it; agents append to
// sub-structures through it but never replace it wholesale.
type TradingState struct {
	CompanyOfInterest string `json:"company_of_interest"`
	TradeDate         string `json:"trade_date"`

	// Reports by analyst kind. A key is absent until its analyst has
	// settled; a degraded analyst still contributes a placeholder.
	AnalystReports map[string]string `json:"analyst_reports"`

	InvestmentDebateState *InvestDebateState `json:"investment_debate_state"`
	RiskDebateState       *RiskDebateState   `json:"risk_debate_state"`

	InvestmentPlan       string `json:"investment_plan"`        // research manager verdict + rationale
	TraderInvestmentPlan string `json:"trader_investment_plan"` // trader proposal
	FinalTradeDecision   string `json:"final_trade_decision"`   // risk judge output

	Decision *TradingDecision `json:"decision"`

	Stage       Stage  `json:"stage"`
	FailedStage string `json:"failed_stage,omitempty"`

	Config *config.Config `json:"-"`
}

func NewTradingState(symbol string, date time.Time, cfg *config.Config) *TradingState {
	return &TradingState{
		CompanyOfInterest: symbol,
		TradeDate:         date.Format("2006-01-02"),
		AnalystReports:    make(map[string]string),
		InvestmentDebateState: &InvestDebateState{
			Transcript: []DebateTurn{},
		},
		RiskDebateState: &RiskDebateState{
			Transcript: []DebateTurn{},
		},
		Stage:  StageCollectingAnalysts,
		Config: cfg,
	}
}

// AppendInvestTurn records a research-debate turn and keeps the
// teacher-style history strings in sync with the transcript.
func (s *TradingState) AppendInvestTurn(turn DebateTurn) {
	ds := s.InvestmentDebateState
	ds.Transcript = append(ds.Transcript, turn)
	labeled := labelFor(turn.Role) + ": " + turn.Text
	ds.History = joinHistory(ds.History, labeled)
	switch turn.Role {
	case "bull":
		ds.BullHistory = joinHistory(ds.BullHistory, labeled)
	case "bear":
		ds.BearHistory = joinHistory(ds.BearHistory, labeled)
	}
	ds.CurrentResponse = labeled
	ds.Count++
	ds.CurrentRound = turn.Round
}

// AppendRiskTurn records a risk-debate turn.
func (s *TradingState) AppendRiskTurn(turn DebateTurn) {
	ds := s.RiskDebateState
	ds.Transcript = append(ds.Transcript, turn)
	labeled := labelFor(turn.Role) + ": " + turn.Text
	ds.History = joinHistory(ds.History, labeled)
	switch turn.Role {
	case "risky":
		ds.RiskyHistory = joinHistory(ds.RiskyHistory, labeled)
	case "safe":
		ds.SafeHistory = joinHistory(ds.SafeHistory, labeled)
	case "neutral":
		ds.NeutralHistory = joinHistory(ds.NeutralHistory, labeled)
	}
	ds.LatestSpeaker = turn.Role
	ds.Count++
	ds.CurrentRound = turn.Round
}

// Situation summarizes the collected analyst reports; it is the query
// text for memory retrieval.
func (s *TradingState) Situation() string {
	summary := ""
	for _, kind := range config.AnalystKinds {
		if report, ok := s.AnalystReports[kind]; ok && report != "" {
			if summary != "" {
				summary += "\n\n"
			}
			summary += report
		}
	}
	return summary
}

// TraceJSON renders the full state for audit storage.
func (s *TradingState) TraceJSON() string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func labelFor(role string) string {
	switch role {
	case "bull":
		return "Bull Analyst"
	case "bear":
		return "Bear Analyst"
	case "risky":
		return "Risky Analyst"
	case "safe":
		return "Safe Analyst"
	case "neutral":
		return "Neutral Analyst"
	default:
		return role
	}
}

func joinHistory(history, entry string) string {
	if history == "" {
		return entry
	}
	return history + "\n" + entry
}
