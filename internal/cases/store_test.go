package cases

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

func sampleCase(name string) *TestCase {
	return &TestCase{
		Name:     name,
		Priority: "P0",
		Tags:     "smoke,login",
		Steps: []TestStep{
			{Order: 1, ActionType: "navigate", Params: `{"url":"https://example.com/login"}`},
			{Order: 2, ActionType: "input", LocatorType: "id", Locator: "email", Params: `{"text":"user@example.com"}`},
			{Order: 3, ActionType: "click", LocatorType: "css", Locator: "button[type=submit]"},
		},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	tc := sampleCase("login works")
	require.NoError(t, store.Create(ctx, tc))
	require.NotEmpty(t, tc.ID)

	got, err := store.Get(ctx, tc.ID)
	require.NoError(t, err)
	require.Equal(t, "login works", got.Name)
	require.Equal(t, "P0", got.Priority)
	require.Len(t, got.Steps, 3)

	// Steps come back ordered.
	require.Equal(t, 1, got.Steps[0].Order)
	require.Equal(t, "navigate", got.Steps[0].ActionType)
	require.Equal(t, 3, got.Steps[2].Order)
	require.Equal(t, "click", got.Steps[2].ActionType)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := NewStore(testDB(t))

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Update_ReplacesSteps(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	tc := sampleCase("before")
	require.NoError(t, store.Create(ctx, tc))

	tc.Name = "after"
	tc.Steps = []TestStep{
		{Order: 1, ActionType: "navigate", Params: `{"url":"https://example.com"}`},
	}
	// IDs are regenerated for replaced steps.
	tc.Steps[0].ID = ""
	require.NoError(t, store.Update(ctx, tc))

	got, err := store.Get(ctx, tc.ID)
	require.NoError(t, err)
	require.Equal(t, "after", got.Name)
	require.Len(t, got.Steps, 1)
}

func TestStore_Delete_Cascades(t *testing.T) {
	db := testDB(t)
	store := NewStore(db)
	ctx := context.Background()

	tc := sampleCase("doomed")
	require.NoError(t, store.Create(ctx, tc))
	require.NoError(t, store.Delete(ctx, tc.ID))

	_, err := store.Get(ctx, tc.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM test_steps WHERE case_id = ?`, tc.ID).Scan(&count))
	require.Zero(t, count)

	require.ErrorIs(t, store.Delete(ctx, tc.ID), ErrNotFound)
}

func TestStore_List_Filters(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	p0 := sampleCase("critical")
	require.NoError(t, store.Create(ctx, p0))

	p2 := sampleCase("minor")
	p2.Priority = "P2"
	p2.Tags = "regression"
	require.NoError(t, store.Create(ctx, p2))

	all, err := store.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	onlyP0, err := store.List(ctx, map[string]any{"priority": "P0"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, onlyP0, 1)
	require.Equal(t, "critical", onlyP0[0].Name)

	tagged, err := store.List(ctx, map[string]any{"tag": "regression"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	require.Equal(t, "minor", tagged[0].Name)
}

func TestStore_FirstIDAndAllIDs(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	first, err := store.FirstID(ctx)
	require.NoError(t, err)
	require.Empty(t, first)

	a := sampleCase("a")
	require.NoError(t, store.Create(ctx, a))
	time.Sleep(5 * time.Millisecond)
	b := sampleCase("b")
	require.NoError(t, store.Create(ctx, b))

	first, err = store.FirstID(ctx)
	require.NoError(t, err)
	require.Equal(t, a.ID, first)

	ids, err := store.AllIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{a.ID, b.ID}, ids)
}

func TestStore_LoadSnapshots_PreservesOrderAndSkipsMissing(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	a := sampleCase("a")
	b := sampleCase("b")
	require.NoError(t, store.Create(ctx, a))
	require.NoError(t, store.Create(ctx, b))

	snaps, err := store.LoadSnapshots(ctx, []string{b.ID, "missing", a.ID})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	require.Equal(t, b.ID, snaps[0].ID)
	require.Equal(t, a.ID, snaps[1].ID)
	require.Len(t, snaps[0].Steps, 3)
}
