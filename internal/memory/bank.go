package memory

import (
	"github.com/cloudwego/eino/components/embedding"
)

// Agent memory names. Each reflective agent keeps its own store so
// lessons stay with the role that learned them.
const (
	BullMemory        = "bull_memory"
	BearMemory        = "bear_memory"
	TraderMemory      = "trader_memory"
	InvestJudgeMemory = "invest_judge_memory"
	RiskManagerMemory = "risk_manager_memory"
)

// Bank holds the per-agent memory stores behind one embedder.
type Bank struct {
	stores map[string]*Store
}

// NewBank creates empty stores for every reflective agent.
func NewBank(embedder embedding.Embedder) *Bank {
	b := &Bank{stores: make(map[string]*Store)}
	for _, name := range []string{
		BullMemory, BearMemory, TraderMemory, InvestJudgeMemory, RiskManagerMemory,
	} {
		b.stores[name] = NewStore(name, embedder)
	}
	return b
}

// Store returns the named agent store, or nil if the name is unknown.
func (b *Bank) Store(name string) *Store {
	return b.stores[name]
}
