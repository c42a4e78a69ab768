package consts

// Analyst kinds. The on-chain analyst replaces the traditional
// fundamentals analyst for crypto assets.
const (
	MarketAnalyst  = "market"
	OnChainAnalyst = "onchain"
	NewsAnalyst    = "news"
	SocialAnalyst  = "social"
)

// Research debate roles.
const (
	BullResearcher  = "bull"
	BearResearcher  = "bear"
	ResearchManager = "research_manager"
)

// Trading role.
const Trader = "trader"

// Risk debate roles.
const (
	RiskyAnalyst   = "risky"
	SafeAnalyst    = "safe"
	NeutralAnalyst = "neutral"
	RiskJudge      = "risk_judge"
)
