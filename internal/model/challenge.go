package model

import (
	"time"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
)

// Narrative is the qualitative summary attached to a completed challenge.
type Narrative struct {
	Headline   string `json:"headline"`
	Body       string `json:"body"`
	InsightTip string `json:"insight_tip,omitempty"`
}

// Challenge is one 7-day scoring period. Exactly one challenge is current
// per household; past challenges are read-only after the one-time
// completion transition sets WinnerID, IsTie, and IsCompleted.
type Challenge struct {
	ID          string     `json:"id"`
	HouseholdID string     `json:"household_id"`
	StartDayKey daykey.Key `json:"start_day_key"`
	EndDayKey   daykey.Key `json:"end_day_key"`
	Prize       string     `json:"prize,omitempty"`
	WinnerID    *string    `json:"winner_id,omitempty"`
	IsTie       bool       `json:"is_tie"`
	IsCompleted bool       `json:"is_completed"`
	Narrative   *Narrative `json:"narrative,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
