package executions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/uiproof/internal/config"
	"github.com/watzon/uiproof/internal/database"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		ForeignKeys: true,
		BusyTimeout: time.Second,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	e := &Execution{
		Mode:       ModeBatch,
		Browser:    "chrome",
		Headless:   true,
		WindowSize: "1920x1080",
		CaseIDs:    []string{"a", "b"},
		TotalCount: 2,
	}
	require.NoError(t, store.Create(ctx, e))
	require.NotEmpty(t, e.ID)

	got, err := store.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.Equal(t, ModeBatch, got.Mode)
	require.True(t, got.Headless)
	require.Equal(t, []string{"a", "b"}, got.CaseIDs)
	require.Equal(t, 2, got.TotalCount)
	require.Nil(t, got.StartTime)
	require.Nil(t, got.EndTime)
	require.Nil(t, got.DurationMs())
}

func TestStore_Get_NotFound(t *testing.T) {
	store := NewStore(testDB(t))

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LifecycleUpdates(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	e := &Execution{Mode: ModeSingle, Browser: "chrome", CaseIDs: []string{"a"}, TotalCount: 1}
	require.NoError(t, store.Create(ctx, e))

	start := time.Now().UTC()
	require.NoError(t, store.MarkRunning(ctx, e.ID, start))

	got, err := store.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, got.Status)
	require.NotNil(t, got.StartTime)
	require.Nil(t, got.DurationMs())

	require.NoError(t, store.IncrementCounters(ctx, e.ID, 1, 0))
	require.NoError(t, store.IncrementCounters(ctx, e.ID, 0, 1))

	end := start.Add(1234 * time.Millisecond)
	require.NoError(t, store.Finish(ctx, e.ID, StatusFailed, end))

	got, err = store.Get(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, got.Status)
	require.Equal(t, 1, got.SuccessCount)
	require.Equal(t, 1, got.FailCount)
	require.Zero(t, got.SkipCount)
	require.NotNil(t, got.DurationMs())
	require.Equal(t, int64(1234), *got.DurationMs())
}

func TestStore_UpdateMissing(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	require.ErrorIs(t, store.MarkRunning(ctx, "nope", time.Now()), ErrNotFound)
	require.ErrorIs(t, store.Finish(ctx, "nope", StatusFailed, time.Now()), ErrNotFound)
	require.ErrorIs(t, store.IncrementCounters(ctx, "nope", 1, 0), ErrNotFound)
}

func TestStore_List_Filters(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	chrome := &Execution{Mode: ModeSingle, Browser: "chrome", CaseIDs: []string{"a"}, TotalCount: 1}
	require.NoError(t, store.Create(ctx, chrome))
	require.NoError(t, store.Finish(ctx, chrome.ID, StatusCompleted, time.Now().UTC()))

	firefox := &Execution{Mode: ModeSingle, Browser: "firefox", CaseIDs: []string{"a"}, TotalCount: 1}
	require.NoError(t, store.Create(ctx, firefox))

	all, err := store.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	completed, err := store.List(ctx, map[string]any{"status": "completed"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, chrome.ID, completed[0].ID)

	ff, err := store.List(ctx, map[string]any{"browser": "firefox"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, ff, 1)
	require.Equal(t, firefox.ID, ff[0].ID)

	limited, err := store.List(ctx, nil, 1, 0)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestStore_Outcomes(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	e := &Execution{Mode: ModeBatch, Browser: "chrome", CaseIDs: []string{"a", "b"}, TotalCount: 2}
	require.NoError(t, store.Create(ctx, e))

	first := &CaseOutcome{
		ExecutionID: e.ID,
		CaseID:      "a",
		CaseName:    "first",
		CaseOrder:   1,
		Status:      OutcomeRunning,
		StartTime:   time.Now().UTC(),
	}
	require.NoError(t, store.CreateOutcome(ctx, first))

	second := &CaseOutcome{
		ExecutionID: e.ID,
		CaseID:      "b",
		CaseName:    "second",
		CaseOrder:   2,
		Status:      OutcomeRunning,
		StartTime:   time.Now().UTC(),
	}
	require.NoError(t, store.CreateOutcome(ctx, second))

	end := first.StartTime.Add(500 * time.Millisecond)
	ms := int64(500)
	first.Status = OutcomeFailed
	first.ErrorMessage = "1 of 3 steps failed"
	first.ErrorDetail = "driver error"
	first.ScreenshotPath = "screenshots/error_1.png"
	first.StepLogs = `[{"step_order":1,"success":false}]`
	first.EndTime = &end
	first.DurationMs = &ms
	require.NoError(t, store.UpdateOutcome(ctx, first))

	outcomes, err := store.ListOutcomes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	// Run order is preserved.
	require.Equal(t, "first", outcomes[0].CaseName)
	require.Equal(t, "second", outcomes[1].CaseName)

	require.Equal(t, OutcomeFailed, outcomes[0].Status)
	require.Equal(t, "driver error", outcomes[0].ErrorDetail)
	require.Equal(t, "screenshots/error_1.png", outcomes[0].ScreenshotPath)
	require.NotNil(t, outcomes[0].DurationMs)
	require.Equal(t, int64(500), *outcomes[0].DurationMs)
	require.Equal(t, OutcomeRunning, outcomes[1].Status)
	require.Nil(t, outcomes[1].EndTime)
}

func TestStore_ListOutcomes_RunOrder(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	e := &Execution{Mode: ModeBatch, Browser: "chrome", CaseIDs: []string{"a", "b", "c"}, TotalCount: 3}
	require.NoError(t, store.Create(ctx, e))

	// Insert out of order with an identical timestamp: only case_order can
	// reconstruct the run sequence.
	at := time.Now().UTC()
	for _, order := range []int{2, 3, 1} {
		require.NoError(t, store.CreateOutcome(ctx, &CaseOutcome{
			ExecutionID: e.ID,
			CaseID:      "case",
			CaseName:    "case",
			CaseOrder:   order,
			Status:      OutcomeSuccess,
			StartTime:   at,
		}))
	}

	outcomes, err := store.ListOutcomes(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for i, o := range outcomes {
		require.Equal(t, i+1, o.CaseOrder)
	}
}

func TestStore_Create_DuplicateID(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	e := &Execution{Mode: ModeSingle, Browser: "chrome", CaseIDs: []string{"a"}, TotalCount: 1}
	require.NoError(t, store.Create(ctx, e))

	dup := &Execution{ID: e.ID, Mode: ModeSingle, Browser: "chrome", CaseIDs: []string{"a"}, TotalCount: 1}
	require.ErrorIs(t, store.Create(ctx, dup), database.ErrConflict)
}

func TestStore_CreateOutcome_MissingExecution(t *testing.T) {
	store := NewStore(testDB(t))

	err := store.CreateOutcome(context.Background(), &CaseOutcome{
		ExecutionID: "nope",
		CaseID:      "a",
		CaseName:    "a",
		CaseOrder:   1,
		Status:      OutcomeRunning,
		StartTime:   time.Now().UTC(),
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestStore_UpdateOutcome_Missing(t *testing.T) {
	store := NewStore(testDB(t))

	err := store.UpdateOutcome(context.Background(), &CaseOutcome{ID: "nope"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}
