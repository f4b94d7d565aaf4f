package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watzon/uiproof/internal/database"
)

// ErrNotFound indicates the requested schedule does not exist.
var ErrNotFound = fmt.Errorf("schedule: %w", database.ErrNotFound)

// Store handles database operations for schedules.
type Store struct {
	db     *database.DB
	parser *CronParser
}

// NewStore creates a new schedule store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, parser: NewCronParser()}
}

// Create validates the cron expression, computes the first run time and
// persists the schedule.
func (s *Store) Create(ctx context.Context, sc *Schedule) error {
	next, err := s.parser.NextRun(sc.Expression, time.Now().UTC())
	if err != nil {
		return err
	}

	if sc.ID == "" {
		sc.ID = uuid.New().String()
	}
	if sc.Mode == "" {
		sc.Mode = "batch"
	}
	now := time.Now().UTC()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	sc.NextRun = &next

	caseIDs, err := json.Marshal(sc.CaseIDs)
	if err != nil {
		return fmt.Errorf("encoding case ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (
			id, name, expression, mode, case_ids, enabled,
			next_run, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sc.ID,
		sc.Name,
		sc.Expression,
		sc.Mode,
		string(caseIDs),
		boolToInt(sc.Enabled),
		database.FormatTime(next),
		database.FormatTime(sc.CreatedAt),
		database.FormatTime(sc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", err)
	}

	return nil
}

// Get retrieves a schedule by ID.
func (s *Store) Get(ctx context.Context, id string) (*Schedule, error) {
	sc, err := scanSchedule(s.db.QueryRowContext(ctx, `
		SELECT id, name, expression, mode, case_ids, enabled,
		       last_run, next_run, created_at, updated_at
		FROM schedules
		WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying schedule: %w", err)
	}
	return sc, nil
}

// List retrieves every schedule, newest first.
func (s *Store) List(ctx context.Context) ([]*Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, expression, mode, case_ids, enabled,
		       last_run, next_run, created_at, updated_at
		FROM schedules
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var result []*Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// Due returns enabled schedules whose next run is at or before now. The
// time comparison happens in Go: stored timestamps are RFC3339Nano strings,
// and string comparison misorders values with mixed sub-second precision
// (a whole-second "...00Z" sorts after "...00.3Z" in the same second).
func (s *Store) Due(ctx context.Context, now time.Time) ([]*Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, expression, mode, case_ids, enabled,
		       last_run, next_run, created_at, updated_at
		FROM schedules
		WHERE enabled = 1 AND next_run IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("querying due schedules: %w", err)
	}
	defer rows.Close()

	var result []*Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule: %w", err)
		}
		if sc.NextRun != nil && !sc.NextRun.After(now) {
			result = append(result, sc)
		}
	}

	return result, rows.Err()
}

// MarkRun stamps the last run and advances the next run time.
func (s *Store) MarkRun(ctx context.Context, id string, ranAt, nextRun time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE schedules
		SET last_run = ?, next_run = ?, updated_at = ?
		WHERE id = ?
	`,
		database.FormatTime(ranAt),
		database.FormatTime(nextRun),
		database.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetEnabled toggles a schedule on or off.
func (s *Store) SetEnabled(ctx context.Context, id string, enabled bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE schedules SET enabled = ?, updated_at = ? WHERE id = ?
	`, boolToInt(enabled), database.Now(), id)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a schedule.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting schedule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*Schedule, error) {
	var sc Schedule
	var caseIDs, lastRun, nextRun sql.NullString
	var enabled int
	var createdAt, updatedAt string

	if err := row.Scan(
		&sc.ID,
		&sc.Name,
		&sc.Expression,
		&sc.Mode,
		&caseIDs,
		&enabled,
		&lastRun,
		&nextRun,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	sc.Enabled = enabled != 0

	if caseIDs.String != "" {
		if err := json.Unmarshal([]byte(caseIDs.String), &sc.CaseIDs); err != nil {
			return nil, fmt.Errorf("decoding case ids: %w", err)
		}
	}

	var err error
	if sc.LastRun, err = parseNullTime(lastRun); err != nil {
		return nil, fmt.Errorf("parsing last_run: %w", err)
	}
	if sc.NextRun, err = parseNullTime(nextRun); err != nil {
		return nil, fmt.Errorf("parsing next_run: %w", err)
	}
	if sc.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sc.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &sc, nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := database.ParseTime(v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
