package agents

import (
	"context"
	"log"
	"strings"
)

// PlaceholderArgument is recorded for a speaker whose turn failed, so
// the transcript keeps its shape and the debate can continue.
const PlaceholderArgument = "(no argument produced)"

// Speaker is one debate participant. Respond sees the debate so far
// through the shared state and returns this turn's argument.
type Speaker struct {
	Role    string
	Respond func(ctx context.Context, round int) (string, error)
}

// RecordTurn receives each completed turn in order.
type RecordTurn func(role string, round int, text string, degraded bool)

// DebateController runs a fixed-order, fixed-length debate. Every
// speaker gets exactly one turn per round and the debate always runs
// exactly maxRounds rounds; a failed turn degrades to a placeholder
// instead of shortening the debate. Cancellation stops the debate
// between turns, leaving the partial transcript in place.
type DebateController struct {
	name      string
	speakers  []Speaker
	maxRounds int
	record    RecordTurn
}

// NewDebateController creates a controller over an ordered speaker
// list.
func NewDebateController(name string, speakers []Speaker, maxRounds int, record RecordTurn) *DebateController {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &DebateController{name: name, speakers: speakers, maxRounds: maxRounds, record: record}
}

// Run executes the debate. The only error it returns is the context's,
// when cancelled mid-debate.
func (dc *DebateController) Run(ctx context.Context) error {
	for round := 1; round <= dc.maxRounds; round++ {
		for _, speaker := range dc.speakers {
			if err := ctx.Err(); err != nil {
				log.Printf("[Debate:%s] cancelled in round %d before %s", dc.name, round, speaker.Role)
				return err
			}

			text, err := speaker.Respond(ctx, round)
			degraded := false
			if err != nil {
				if ctx.Err() != nil {
					log.Printf("[Debate:%s] cancelled during %s turn in round %d", dc.name, speaker.Role, round)
					return ctx.Err()
				}
				log.Printf("[Debate:%s] %s turn failed in round %d: %v", dc.name, speaker.Role, round, err)
				text = PlaceholderArgument
				degraded = true
			} else if strings.TrimSpace(text) == "" {
				text = PlaceholderArgument
				degraded = true
			}

			dc.record(speaker.Role, round, strings.TrimSpace(text), degraded)
		}
	}
	return nil
}
