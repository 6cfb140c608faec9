package model

import "time"

type Household struct {
	ID           string       `json:"id"`
	Timezone     string       `json:"timezone"`
	WeekStartDay int          `json:"week_start_day"`
	Prize        string       `json:"prize,omitempty"`
	Competitors  []Competitor `json:"competitors"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Competitor is one housemate slot. A nil UserID means the slot is a
// pending invite that no account has claimed yet.
type Competitor struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	UserID      *string   `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
