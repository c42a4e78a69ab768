package models

import (
	"regexp"
	"strings"
)

// Verdict is the categorical trading action. No other values exist.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictSell Verdict = "SELL"
	VerdictHold Verdict = "HOLD"
)

// TradingDecision is the final, risk-adjusted output of a run.
type TradingDecision struct {
	Symbol     string  `json:"symbol"`
	Date       string  `json:"date"` // trade date, YYYY-MM-DD
	Verdict    Verdict `json:"verdict"`
	Rationale  string  `json:"rationale"`
	Overridden bool    `json:"overridden"` // risk judge replaced the trader proposal
}

var proposalMarker = regexp.MustCompile(`FINAL TRANSACTION PROPOSAL:\s*\**\s*(BUY|SELL|HOLD)`)

// ExtractVerdict pulls the verdict out of an agent's free-form answer.
// Agents are instructed to end with
// "FINAL TRANSACTION PROPOSAL: **BUY/HOLD/SELL**"; when the marker is
// missing we fall back to scanning for a bare action word, and default
// to HOLD on insufficient evidence.
func ExtractVerdict(text string) Verdict {
	upper := strings.ToUpper(text)

	if m := proposalMarker.FindStringSubmatch(upper); m != nil {
		return Verdict(m[1])
	}

	// Last-mentioned action wins; rationale text usually discusses
	// alternatives before settling.
	best := VerdictHold
	bestIdx := -1
	for _, v := range []Verdict{VerdictBuy, VerdictSell, VerdictHold} {
		if idx := strings.LastIndex(upper, string(v)); idx > bestIdx {
			best = v
			bestIdx = idx
		}
	}
	return best
}
