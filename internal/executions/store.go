package executions

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

// ErrNotFound indicates the requested execution does not exist.
var ErrNotFound = fmt.Errorf("execution: %w", database.ErrNotFound)

// Store handles database operations for executions and case outcomes.
type Store struct {
	db *database.DB
}

// NewStore creates a new execution store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Create persists a new execution row.
func (s *Store) Create(ctx context.Context, e *Execution) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Status == "" {
		e.Status = StatusPending
	}
	e.CreatedAt = time.Now().UTC()

	caseIDs, err := json.Marshal(e.CaseIDs)
	if err != nil {
		return fmt.Errorf("encoding case ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO executions (
			id, mode, browser, headless, window_size, case_ids, status,
			total_count, success_count, fail_count, skip_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		string(e.Mode),
		e.Browser,
		boolToInt(e.Headless),
		e.WindowSize,
		string(caseIDs),
		string(e.Status),
		e.TotalCount,
		e.SuccessCount,
		e.FailCount,
		e.SkipCount,
		database.FormatTime(e.CreatedAt),
	)
	if err != nil {
		if database.IsConstraintError(err) {
			return fmt.Errorf("%w: execution %s", database.ErrConflict, e.ID)
		}
		return fmt.Errorf("inserting execution: %w", err)
	}

	return nil
}

// Get retrieves an execution by ID.
func (s *Store) Get(ctx context.Context, id string) (*Execution, error) {
	e, err := scanExecution(s.db.QueryRowContext(ctx, `
		SELECT id, mode, browser, headless, window_size, case_ids, status,
		       total_count, success_count, fail_count, skip_count,
		       start_time, end_time, created_at
		FROM executions
		WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying execution: %w", err)
	}
	return e, nil
}

// List retrieves executions with optional status/browser filters, newest first.
func (s *Store) List(ctx context.Context, filters map[string]any, limit, offset int) ([]*Execution, error) {
	query := `
		SELECT id, mode, browser, headless, window_size, case_ids, status,
		       total_count, success_count, fail_count, skip_count,
		       start_time, end_time, created_at
		FROM executions
		WHERE 1=1
	`
	args := []any{}

	if status, ok := filters["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	if browserKind, ok := filters["browser"].(string); ok && browserKind != "" {
		query += " AND browser = ?"
		args = append(args, browserKind)
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	} else if offset > 0 {
		// sqlite needs a LIMIT before OFFSET; -1 means unbounded.
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var result []*Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		result = append(result, e)
	}

	return result, rows.Err()
}

// MarkRunning transitions an execution to running and stamps its start time.
func (s *Store) MarkRunning(ctx context.Context, id string, startTime time.Time) error {
	return s.update(ctx, id, `
		UPDATE executions SET status = ?, start_time = ? WHERE id = ?
	`, string(StatusRunning), database.FormatTime(startTime), id)
}

// Finish sets a terminal status and stamps the end time.
func (s *Store) Finish(ctx context.Context, id string, status Status, endTime time.Time) error {
	return s.update(ctx, id, `
		UPDATE executions SET status = ?, end_time = ? WHERE id = ?
	`, string(status), database.FormatTime(endTime), id)
}

// IncrementCounters bumps the success/fail counters by the given deltas.
// Counters only ever grow; callers pass at most one non-zero delta per case.
func (s *Store) IncrementCounters(ctx context.Context, id string, successDelta, failDelta int) error {
	return s.update(ctx, id, `
		UPDATE executions
		SET success_count = success_count + ?, fail_count = fail_count + ?
		WHERE id = ?
	`, successDelta, failDelta, id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating execution: %w", err)
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

// CreateOutcome persists a new case outcome row.
func (s *Store) CreateOutcome(ctx context.Context, o *CaseOutcome) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	o.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_outcomes (
			id, execution_id, case_id, case_name, case_order, status,
			error_message, error_detail, screenshot_path, step_logs,
			start_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ID,
		o.ExecutionID,
		o.CaseID,
		o.CaseName,
		o.CaseOrder,
		o.Status,
		o.ErrorMessage,
		o.ErrorDetail,
		o.ScreenshotPath,
		o.StepLogs,
		database.FormatTime(o.StartTime),
		database.FormatTime(o.CreatedAt),
	)
	if err != nil {
		// A foreign key failure means the parent execution is gone.
		if database.IsConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, o.ExecutionID)
		}
		return fmt.Errorf("inserting case outcome: %w", err)
	}

	return nil
}

// UpdateOutcome rewrites the mutable fields of a case outcome.
func (s *Store) UpdateOutcome(ctx context.Context, o *CaseOutcome) error {
	var endTime any
	if o.EndTime != nil {
		endTime = database.FormatTime(*o.EndTime)
	}
	var durationMs any
	if o.DurationMs != nil {
		durationMs = *o.DurationMs
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE case_outcomes
		SET status = ?, error_message = ?, error_detail = ?,
		    screenshot_path = ?, step_logs = ?, end_time = ?, duration_ms = ?
		WHERE id = ?
	`,
		o.Status,
		o.ErrorMessage,
		o.ErrorDetail,
		o.ScreenshotPath,
		o.StepLogs,
		endTime,
		durationMs,
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("updating case outcome: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("case outcome not found: %s", o.ID)
	}

	return nil
}

// ListOutcomes returns the case outcomes of an execution in run order.
func (s *Store) ListOutcomes(ctx context.Context, executionID string) ([]*CaseOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, execution_id, case_id, case_name, case_order, status,
		       error_message, error_detail, screenshot_path, step_logs,
		       start_time, end_time, duration_ms, created_at
		FROM case_outcomes
		WHERE execution_id = ?
		ORDER BY case_order ASC
	`, executionID)
	if err != nil {
		return nil, fmt.Errorf("querying case outcomes: %w", err)
	}
	defer rows.Close()

	var result []*CaseOutcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning case outcome: %w", err)
		}
		result = append(result, o)
	}

	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*Execution, error) {
	var e Execution
	var mode, status string
	var headless int
	var windowSize, caseIDs, startTime, endTime sql.NullString
	var createdAt string

	if err := row.Scan(
		&e.ID,
		&mode,
		&e.Browser,
		&headless,
		&windowSize,
		&caseIDs,
		&status,
		&e.TotalCount,
		&e.SuccessCount,
		&e.FailCount,
		&e.SkipCount,
		&startTime,
		&endTime,
		&createdAt,
	); err != nil {
		return nil, err
	}

	e.Mode = Mode(mode)
	e.Status = Status(status)
	e.Headless = headless != 0
	e.WindowSize = windowSize.String

	if caseIDs.String != "" {
		if err := json.Unmarshal([]byte(caseIDs.String), &e.CaseIDs); err != nil {
			return nil, fmt.Errorf("decoding case ids: %w", err)
		}
	}

	var err error
	if e.StartTime, err = parseNullTime(startTime); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if e.EndTime, err = parseNullTime(endTime); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if e.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &e, nil
}

func scanOutcome(row rowScanner) (*CaseOutcome, error) {
	var o CaseOutcome
	var errorMessage, errorDetail, screenshotPath, stepLogs, endTime sql.NullString
	var durationMs sql.NullInt64
	var startTime, createdAt string

	if err := row.Scan(
		&o.ID,
		&o.ExecutionID,
		&o.CaseID,
		&o.CaseName,
		&o.CaseOrder,
		&o.Status,
		&errorMessage,
		&errorDetail,
		&screenshotPath,
		&stepLogs,
		&startTime,
		&endTime,
		&durationMs,
		&createdAt,
	); err != nil {
		return nil, err
	}

	o.ErrorMessage = errorMessage.String
	o.ErrorDetail = errorDetail.String
	o.ScreenshotPath = screenshotPath.String
	o.StepLogs = stepLogs.String
	if durationMs.Valid {
		o.DurationMs = &durationMs.Int64
	}

	var err error
	if o.StartTime, err = database.ParseTime(startTime); err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	if o.EndTime, err = parseNullTime(endTime); err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	if o.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &o, nil
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
