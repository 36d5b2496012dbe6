// Package moderation scores campaign content and applies the resulting
// publish decision.
package moderation

import "github.com/fundfox/fundfox/app/models"

const (
	// FlagThreshold is the lowest score that puts a campaign in the review queue.
	FlagThreshold = 50
	// RejectThreshold is the lowest score that rejects a campaign outright.
	RejectThreshold = 90
)

const (
	CategorySpam          = "spam"
	CategoryScam          = "scam"
	CategoryInappropriate = "inappropriate"
	CategoryProhibited    = "prohibited"
)

type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeFlagged  Outcome = "flagged"
	OutcomeRejected Outcome = "rejected"
)

// Decision is what a score means for a campaign being published.
type Decision struct {
	Outcome Outcome `json:"outcome"`
	Status  string  `json:"status"`
	Flagged bool    `json:"flagged"`
	Score   int     `json:"score"`
}

// Visible reports whether the campaign is listed after this decision.
func (d Decision) Visible() bool {
	return d.Outcome != OutcomeRejected
}

// Decide maps a 0-100 score onto a decision. Out of range scores are clamped.
func Decide(score int) Decision {
	score = clamp(score)
	switch {
	case score >= RejectThreshold:
		return Decision{Outcome: OutcomeRejected, Status: models.CampaignStatusRejected, Score: score}
	case score >= FlagThreshold:
		return Decision{Outcome: OutcomeFlagged, Status: models.CampaignStatusActive, Flagged: true, Score: score}
	default:
		return Decision{Outcome: OutcomeApproved, Status: models.CampaignStatusActive, Score: score}
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
