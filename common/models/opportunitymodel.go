package models

const (
	STRATEGY_SPATIAL    = "spatial"
	STRATEGY_TRIANGULAR = "triangular"
)

type OpportunityLeg struct {
	From  string
	To    string
	Rate  float64
	Venue string
	Fee   uint32
}

// VenueComparison is a fabricated competitor spread carried for relative
// display only. It is not a second live feed.
type VenueComparison struct {
	VenueA  string
	VenueB  string
	ProfitA float64
	ProfitB float64
	Spread  float64
	Winner  string
}

type Opportunity struct {
	Strategy     string
	TierUSD      float64
	Path         []string
	Legs         []OpportunityLeg
	ProfitPct    float64
	GasCostUSD   float64
	NetProfitUSD float64
	Logs         []string
	Comparison   *VenueComparison
}

// Rejection is a sanity-filter drop surfaced for diagnostics instead of
// disappearing silently.
type Rejection struct {
	Reason string
	Detail string
}

type ScanResult struct {
	TotalScanned int
	Count        int
	Tiers        []float64
	BestByTier   map[float64]*Opportunity
	Best         *Opportunity
	Ranking      []Opportunity
	Rejections   []Rejection
	TotalTimeMs  float64
}
