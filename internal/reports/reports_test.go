package reports

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/watzon/uiproof/internal/config"
	"github.com/watzon/uiproof/internal/database"
	"github.com/watzon/uiproof/internal/executions"
)

func testService(t *testing.T) (*Service, *executions.Store) {
	t.Helper()

	db, err := database.Open(&config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		ForeignKeys: true,
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := executions.NewStore(db)
	svc, err := NewService(store, filepath.Join(t.TempDir(), "reports"))
	require.NoError(t, err)
	return svc, store
}

func seedExecution(t *testing.T, store *executions.Store) *executions.Execution {
	t.Helper()
	ctx := context.Background()

	e := &executions.Execution{
		Mode:       executions.ModeBatch,
		Browser:    "chrome",
		Headless:   true,
		WindowSize: "1920x1080",
		CaseIDs:    []string{"a", "b"},
		TotalCount: 2,
	}
	require.NoError(t, store.Create(ctx, e))

	start := time.Now().UTC()
	require.NoError(t, store.MarkRunning(ctx, e.ID, start))
	require.NoError(t, store.IncrementCounters(ctx, e.ID, 1, 0))
	require.NoError(t, store.IncrementCounters(ctx, e.ID, 0, 1))

	passed := &executions.CaseOutcome{
		ExecutionID: e.ID, CaseID: "a", CaseName: "login works",
		Status: executions.OutcomeSuccess, StartTime: start,
		StepLogs: `[{"step_order":1,"action_type":"navigate","success":true,"message":"navigated"}]`,
	}
	require.NoError(t, store.CreateOutcome(ctx, passed))

	failed := &executions.CaseOutcome{
		ExecutionID: e.ID, CaseID: "b", CaseName: "search breaks",
		Status: executions.OutcomeFailed, StartTime: start,
		ErrorMessage:   "1 of 2 steps failed",
		ErrorDetail:    "driver error",
		ScreenshotPath: "screenshots/error_1.png",
		StepLogs:       `[{"step_order":1,"action_type":"click","success":false,"message":"click failed"}]`,
	}
	require.NoError(t, store.CreateOutcome(ctx, failed))

	require.NoError(t, store.Finish(ctx, e.ID, executions.StatusFailed, start.Add(2*time.Second)))
	return e
}

func TestGenerate(t *testing.T) {
	svc, store := testService(t)
	e := seedExecution(t, store)

	name, err := svc.Generate(context.Background(), e.ID)
	require.NoError(t, err)
	require.Contains(t, name, e.ID)

	path, err := svc.Path(name)
	require.NoError(t, err)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(html), "login works")
	require.Contains(t, string(html), "search breaks")
	require.Contains(t, string(html), "driver error")
	require.Contains(t, string(html), "screenshots/error_1.png")
	require.Contains(t, string(html), "50.00%")
}

func TestGenerate_UnknownExecution(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Generate(context.Background(), "nope")
	require.ErrorIs(t, err, executions.ErrNotFound)
}

func TestPath_RejectsTraversal(t *testing.T) {
	svc, _ := testService(t)

	for _, name := range []string{"", "../secret.html", "a/b.html", "..\\x.html"} {
		_, err := svc.Path(name)
		require.Error(t, err, name)
	}
}

func TestList(t *testing.T) {
	svc, store := testService(t)

	names, err := svc.List()
	require.NoError(t, err)
	require.Empty(t, names)

	e := seedExecution(t, store)
	name, err := svc.Generate(context.Background(), e.ID)
	require.NoError(t, err)

	names, err = svc.List()
	require.NoError(t, err)
	require.Equal(t, []string{name}, names)
}
