package domain

import "time"

// ScoredLink is one ranked link from a scoring run. It is ephemeral:
// computed per invocation, persisted only into the score cache (for the
// promotion baseline) or the top-content set (on promotion).
type ScoredLink struct {
	URL         string    `json:"url"`
	Article     *Article  `json:"article,omitempty"`
	Shares      int64     `json:"shares"`
	Influence   float64   `json:"influence"`
	Score       float64   `json:"score"`
	Rank        int       `json:"rank"`
	FirstShare  time.Time `json:"first_share"`
	FirstShared string    `json:"first_shared"`
	// Trail is the human-readable score derivation: one line per
	// contributing user with the running total, plus the decay step.
	// Reproducible from the same inputs.
	Trail []string `json:"trail,omitempty"`
}
