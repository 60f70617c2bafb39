package domain

// Candidate is a retrievable catalog item as reported by a single strategy.
// Key is the stable product code used as the dedup identity across strategies.
// Attributes carry strategy-specific technical data and are passed through
// unmodified by the consolidation layer.
type Candidate struct {
	Key         string            `json:"key"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// StrategyResult is one strategy's full response to one request.
// Scores maps candidate key to a strategy-normalized score in [0,1]; strategies
// that cannot score (pure relational filters) leave it nil rather than inventing
// values. Metadata is diagnostic only.
type StrategyResult struct {
	StrategyName string             `json:"strategy_name"`
	Candidates   []Candidate        `json:"candidates"`
	Scores       map[string]float64 `json:"scores,omitempty"`
	Metadata     map[string]string  `json:"metadata,omitempty"`
}

// ConsolidatedCandidate is the merged view of one candidate key across every
// strategy that returned it. The first strategy to report a key supplies the
// display fields; later strategies contribute only to scoring.
type ConsolidatedCandidate struct {
	Candidate

	ConsolidatedScore float64            `json:"consolidated_score"`
	PerStrategyScore  map[string]float64 `json:"per_strategy_score,omitempty"`
	FoundBy           []string           `json:"found_by"`
}
