package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/matt0223/house-cup-sub001/internal/daykey"
	"github.com/matt0223/house-cup-sub001/internal/model"
)

type ChallengeStore struct {
	db *sql.DB
}

func NewChallengeStore(db *sql.DB) *ChallengeStore {
	return &ChallengeStore{db: db}
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*model.Challenge, error) {
	var c model.Challenge
	var winnerID, headline, body, tip sql.NullString
	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.StartDayKey, &c.EndDayKey, &c.Prize,
		&winnerID, &c.IsTie, &c.IsCompleted,
		&headline, &body, &tip, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winnerID.Valid {
		c.WinnerID = &winnerID.String
	}
	if headline.Valid {
		c.Narrative = &model.Narrative{
			Headline:   headline.String,
			Body:       body.String,
			InsightTip: tip.String,
		}
	}
	return &c, nil
}

const challengeCols = `id, household_id, start_day_key, end_day_key, prize, winner_id, is_tie, is_completed, narrative_headline, narrative_body, narrative_tip, created_at`

// Create inserts a challenge for the given window. The unique index on
// (household, start day) makes concurrent creation for the same window a
// no-op; the winner of the race is returned either way.
func (s *ChallengeStore) Create(householdID string, start, end daykey.Key, prize string) (*model.Challenge, error) {
	_, err := s.db.Exec(
		`INSERT INTO challenges (id, household_id, start_day_key, end_day_key, prize, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (household_id, start_day_key) DO NOTHING`,
		uuid.NewString(), householdID, string(start), string(end), prize, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert challenge: %w", err)
	}
	return s.GetByStartDay(householdID, start)
}

func (s *ChallengeStore) GetByID(id string) (*model.Challenge, error) {
	row := s.db.QueryRow(`SELECT `+challengeCols+` FROM challenges WHERE id = ?`, id)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeStore) GetByStartDay(householdID string, start daykey.Key) (*model.Challenge, error) {
	row := s.db.QueryRow(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? AND start_day_key = ?`,
		householdID, string(start),
	)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge by start day: %w", err)
	}
	return c, nil
}

// Current returns the latest incomplete challenge, or nil.
func (s *ChallengeStore) Current(householdID string) (*model.Challenge, error) {
	row := s.db.QueryRow(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? AND is_completed = 0 ORDER BY start_day_key DESC LIMIT 1`,
		householdID,
	)
	c, err := scanChallenge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeStore) ListByHousehold(householdID string) ([]model.Challenge, error) {
	rows, err := s.db.Query(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? ORDER BY start_day_key ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

// ListCompleted returns completed challenges in chronological order,
// the narrative selector's history input.
func (s *ChallengeStore) ListCompleted(householdID string) ([]model.Challenge, error) {
	rows, err := s.db.Query(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? AND is_completed = 1 ORDER BY start_day_key ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed challenges: %w", err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

// ListElapsed returns incomplete challenges whose window has fully passed
// relative to today, the completion worker's queue.
func (s *ChallengeStore) ListElapsed(householdID string, today daykey.Key) ([]model.Challenge, error) {
	rows, err := s.db.Query(
		`SELECT `+challengeCols+` FROM challenges WHERE household_id = ? AND is_completed = 0 AND end_day_key < ? ORDER BY start_day_key ASC`,
		householdID, string(today),
	)
	if err != nil {
		return nil, fmt.Errorf("list elapsed challenges: %w", err)
	}
	defer rows.Close()
	return collectChallenges(rows)
}

func collectChallenges(rows *sql.Rows) ([]model.Challenge, error) {
	var challenges []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

// Complete performs the one-time completion transition. A challenge that
// is already completed is left untouched and reported as false.
func (s *ChallengeStore) Complete(id string, winnerID *string, isTie bool) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE challenges SET winner_id = ?, is_tie = ?, is_completed = 1 WHERE id = ? AND is_completed = 0`,
		nullString(winnerID), isTie, id,
	)
	if err != nil {
		return false, fmt.Errorf("complete challenge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SetNarrativeIfAbsent stores a narrative only when none exists yet:
// the idempotency guard that keeps a re-triggered generator from
// overwriting an earlier narrative. Reports whether the write happened.
func (s *ChallengeStore) SetNarrativeIfAbsent(id string, n model.Narrative) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE challenges SET narrative_headline = ?, narrative_body = ?, narrative_tip = ? WHERE id = ? AND narrative_headline IS NULL`,
		n.Headline, n.Body, n.InsightTip, id,
	)
	if err != nil {
		return false, fmt.Errorf("set narrative: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// PriorInsightTips returns every insight tip already issued to the
// household, used to keep the generator from repeating itself.
func (s *ChallengeStore) PriorInsightTips(householdID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT narrative_tip FROM challenges WHERE household_id = ? AND narrative_tip IS NOT NULL AND narrative_tip != ''`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list insight tips: %w", err)
	}
	defer rows.Close()

	var tips []string
	for rows.Next() {
		var tip string
		if err := rows.Scan(&tip); err != nil {
			return nil, fmt.Errorf("scan insight tip: %w", err)
		}
		tips = append(tips, tip)
	}
	return tips, rows.Err()
}
