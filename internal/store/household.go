package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matt0223/house-cup-sub001/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Timezone, &h.WeekStartDay, &h.Prize, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanCompetitor(scanner interface{ Scan(...any) error }) (*model.Competitor, error) {
	var c model.Competitor
	var userID sql.NullString
	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.Color, &userID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	return &c, nil
}

const householdCols = `id, timezone, week_start_day, prize, created_at, updated_at`
const competitorCols = `id, household_id, name, color, user_id, created_at, updated_at`

// Create inserts a household with its competitor slots. Competitors carry
// only name and color at onboarding; IDs and timestamps are minted here.
func (s *HouseholdStore) Create(timezone string, weekStartDay int, prize string, competitors []model.Competitor) (*model.Household, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	now := time.Now().UTC()
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO households (id, timezone, week_start_day, prize, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, timezone, weekStartDay, prize, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}

	for _, c := range competitors {
		_, err = tx.Exec(
			`INSERT INTO competitors (id, household_id, name, color, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), id, c.Name, c.Color, nullString(c.UserID), now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert competitor: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the household with its competitors, or nil if absent.
func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}

	competitors, err := s.ListCompetitors(id)
	if err != nil {
		return nil, err
	}
	h.Competitors = competitors
	return h, nil
}

// First returns the household this instance serves, or nil before
// onboarding. A kiosk install holds exactly one.
func (s *HouseholdStore) First() (*model.Household, error) {
	row := s.db.QueryRow(`SELECT ` + householdCols + ` FROM households ORDER BY created_at ASC LIMIT 1`)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first household: %w", err)
	}

	competitors, err := s.ListCompetitors(h.ID)
	if err != nil {
		return nil, err
	}
	h.Competitors = competitors
	return h, nil
}

// List returns all households without competitors loaded.
func (s *HouseholdStore) List() ([]model.Household, error) {
	rows, err := s.db.Query(`SELECT ` + householdCols + ` FROM households ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}

// UpdateSettings changes the household's temporal convention and prize.
func (s *HouseholdStore) UpdateSettings(id, timezone string, weekStartDay int, prize string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET timezone = ?, week_start_day = ?, prize = ?, updated_at = ? WHERE id = ?`,
		timezone, weekStartDay, prize, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) ListCompetitors(householdID string) ([]model.Competitor, error) {
	rows, err := s.db.Query(
		`SELECT `+competitorCols+` FROM competitors WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var competitors []model.Competitor
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan competitor: %w", err)
		}
		competitors = append(competitors, *c)
	}
	return competitors, rows.Err()
}

func (s *HouseholdStore) GetCompetitor(id string) (*model.Competitor, error) {
	row := s.db.QueryRow(`SELECT `+competitorCols+` FROM competitors WHERE id = ?`, id)
	c, err := scanCompetitor(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get competitor: %w", err)
	}
	return c, nil
}

func (s *HouseholdStore) UpdateCompetitor(id, name, color string) (*model.Competitor, error) {
	_, err := s.db.Exec(
		`UPDATE competitors SET name = ?, color = ?, updated_at = ? WHERE id = ?`,
		name, color, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update competitor: %w", err)
	}
	return s.GetCompetitor(id)
}

// LinkCompetitor claims a pending invite slot for a user account.
func (s *HouseholdStore) LinkCompetitor(id, userID string) (*model.Competitor, error) {
	_, err := s.db.Exec(
		`UPDATE competitors SET user_id = ?, updated_at = ? WHERE id = ?`,
		userID, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("link competitor: %w", err)
	}
	return s.GetCompetitor(id)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
