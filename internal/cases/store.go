package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/watzon/uiproof/internal/database"
)

// ErrNotFound indicates the requested case does not exist.
var ErrNotFound = fmt.Errorf("test case: %w", database.ErrNotFound)

// Store handles database operations for test cases and their steps.
type Store struct {
	db *database.DB
}

// NewStore creates a new case store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Create inserts a case together with its steps in one transaction.
func (s *Store) Create(ctx context.Context, tc *TestCase) error {
	if tc.ID == "" {
		tc.ID = uuid.New().String()
	}
	if tc.Priority == "" {
		tc.Priority = "P1"
	}
	now := time.Now().UTC()
	tc.CreatedAt = now
	tc.UpdatedAt = now

	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO test_cases (id, name, description, priority, tags, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			tc.ID,
			tc.Name,
			tc.Description,
			tc.Priority,
			tc.Tags,
			database.FormatTime(tc.CreatedAt),
			database.FormatTime(tc.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting test case: %w", err)
		}

		for i := range tc.Steps {
			step := &tc.Steps[i]
			step.CaseID = tc.ID
			if step.ID == "" {
				step.ID = uuid.New().String()
			}
			if step.Order == 0 {
				step.Order = i + 1
			}
			step.CreatedAt = now
			step.UpdatedAt = now

			if err := insertStep(ctx, tx, step); err != nil {
				return err
			}
		}

		return nil
	})
}

func insertStep(ctx context.Context, tx *database.Tx, step *TestStep) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO test_steps (
			id, case_id, step_order, action_type, locator_type,
			element_locator, action_params, expected_result, description,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		step.ID,
		step.CaseID,
		step.Order,
		step.ActionType,
		step.LocatorType,
		step.Locator,
		step.Params,
		step.ExpectedResult,
		step.Description,
		database.FormatTime(step.CreatedAt),
		database.FormatTime(step.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting test step: %w", err)
	}
	return nil
}

// Update rewrites a case and replaces its steps.
func (s *Store) Update(ctx context.Context, tc *TestCase) error {
	tc.UpdatedAt = time.Now().UTC()

	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE test_cases
			SET name = ?, description = ?, priority = ?, tags = ?, updated_at = ?
			WHERE id = ?
		`,
			tc.Name,
			tc.Description,
			tc.Priority,
			tc.Tags,
			database.FormatTime(tc.UpdatedAt),
			tc.ID,
		)
		if err != nil {
			return fmt.Errorf("updating test case: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("getting rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, tc.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM test_steps WHERE case_id = ?`, tc.ID); err != nil {
			return fmt.Errorf("clearing test steps: %w", err)
		}

		now := time.Now().UTC()
		for i := range tc.Steps {
			step := &tc.Steps[i]
			step.CaseID = tc.ID
			if step.ID == "" {
				step.ID = uuid.New().String()
			}
			if step.Order == 0 {
				step.Order = i + 1
			}
			step.CreatedAt = now
			step.UpdatedAt = now

			if err := insertStep(ctx, tx, step); err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete removes a case; steps cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM test_cases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting test case: %w", err)
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

// Get retrieves a case by ID with its steps ordered by step_order.
func (s *Store) Get(ctx context.Context, id string) (*TestCase, error) {
	tc, err := s.scanCase(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, priority, tags, created_at, updated_at
		FROM test_cases
		WHERE id = ?
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("querying test case: %w", err)
	}

	steps, err := s.stepsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	tc.Steps = steps

	return tc, nil
}

// List retrieves cases with optional priority/tag filters, newest first.
func (s *Store) List(ctx context.Context, filters map[string]any, limit, offset int) ([]*TestCase, error) {
	query := `
		SELECT id, name, description, priority, tags, created_at, updated_at
		FROM test_cases
		WHERE 1=1
	`
	args := []any{}

	if priority, ok := filters["priority"].(string); ok && priority != "" {
		query += " AND priority = ?"
		args = append(args, priority)
	}
	if tag, ok := filters["tag"].(string); ok && tag != "" {
		query += " AND tags LIKE ?"
		args = append(args, "%"+tag+"%")
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
		return nil, fmt.Errorf("querying test cases: %w", err)
	}
	defer rows.Close()

	var result []*TestCase
	for rows.Next() {
		tc, err := s.scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning test case: %w", err)
		}
		result = append(result, tc)
	}

	return result, rows.Err()
}

// FirstID returns the ID of the oldest case, used as the single-mode default.
func (s *Store) FirstID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM test_cases ORDER BY created_at ASC LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying first test case: %w", err)
	}
	return id, nil
}

// AllIDs returns every case ID, oldest first.
func (s *Store) AllIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM test_cases ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying test case ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning test case id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// LoadSnapshots loads full cases (with steps) for the given IDs, preserving
// the ID order. Missing IDs are skipped rather than failing the load.
func (s *Store) LoadSnapshots(ctx context.Context, ids []string) ([]*TestCase, error) {
	var snapshots []*TestCase
	for _, id := range ids {
		tc, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		snapshots = append(snapshots, tc)
	}
	return snapshots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanCase(row rowScanner) (*TestCase, error) {
	var tc TestCase
	var description, tags sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(
		&tc.ID,
		&tc.Name,
		&description,
		&tc.Priority,
		&tags,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	tc.Description = description.String
	tc.Tags = tags.String

	var err error
	if tc.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if tc.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &tc, nil
}

func (s *Store) stepsFor(ctx context.Context, caseID string) ([]TestStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, step_order, action_type, locator_type,
		       element_locator, action_params, expected_result, description,
		       created_at, updated_at
		FROM test_steps
		WHERE case_id = ?
		ORDER BY step_order ASC
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying test steps: %w", err)
	}
	defer rows.Close()

	var steps []TestStep
	for rows.Next() {
		var step TestStep
		var locatorType, loc, params, expected, description sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(
			&step.ID,
			&step.CaseID,
			&step.Order,
			&step.ActionType,
			&locatorType,
			&loc,
			&params,
			&expected,
			&description,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning test step: %w", err)
		}

		step.LocatorType = locatorType.String
		step.Locator = loc.String
		step.Params = params.String
		step.ExpectedResult = expected.String
		step.Description = description.String

		if step.CreatedAt, err = database.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if step.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		steps = append(steps, step)
	}

	return steps, rows.Err()
}
