package model

// CanonicalTactics is the fixed taxonomy of rhetorical manipulation tactics.
// Every report carries exactly these eight, in this order.
var CanonicalTactics = []string{
	"Appeal to Emotion",
	"Appeal to Authority",
	"Cherry-Picking",
	"False Dichotomy",
	"Loaded Language",
	"Bandwagon",
	"Strawman",
	"Repetition",
}

// ManipulationTactic scores one tactic's presence in the source content
type ManipulationTactic struct {
	Tactic      string `json:"tactic"`
	Score       int    `json:"score"` // [0,100]
	Example     string `json:"example"`
	Explanation string `json:"explanation"`
}

// ManipulationReport is the rhetorical analysis half of a report
type ManipulationReport struct {
	Tactics           []ManipulationTactic `json:"tactics"`
	ManipulationScore int                  `json:"manipulationScore"` // [0,100]
	Summary           string               `json:"summary"`
}

// ZeroManipulation returns the deterministic all-zero manipulation report
// used when analysis fails. It still carries all eight canonical tactics.
func ZeroManipulation(summary string) ManipulationReport {
	tactics := make([]ManipulationTactic, len(CanonicalTactics))
	for i, name := range CanonicalTactics {
		tactics[i] = ManipulationTactic{Tactic: name}
	}
	return ManipulationReport{
		Tactics:           tactics,
		ManipulationScore: 0,
		Summary:           summary,
	}
}

// Meta holds verdict counts for a report
type Meta struct {
	TotalClaims     int `json:"totalClaims"`
	TrueCount       int `json:"trueCount"`
	FalseCount      int `json:"falseCount"`
	UnverifiedCount int `json:"unverifiedCount"`
}

// AnalysisReport is the aggregate result of one analysis. It is constructed
// once per request and never mutated or persisted.
type AnalysisReport struct {
	URL          string             `json:"url,omitempty"`
	Topic        string             `json:"topic"`
	Summary      string             `json:"summary"`
	TruthScore   int                `json:"truthScore"` // [0,100]
	Claims       []VerifiedClaim    `json:"claims"`
	Manipulation ManipulationReport `json:"manipulation"`
	Meta         Meta               `json:"meta"`
	Details      string             `json:"details,omitempty"` // diagnostic detail for degraded reports
}
