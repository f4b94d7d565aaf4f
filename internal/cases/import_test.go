package cases

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const importDoc = `
cases:
  - name: login happy path
    priority: P0
    tags: smoke
    steps:
      - action: navigate
        params:
          url: https://example.com/login
      - action: input
        locator_type: id
        locator: email
        params:
          text: user@example.com
      - action: verify_text
        params:
          text: Welcome
  - name: empty search
    steps:
      - action: navigate
        params:
          url: https://example.com/search
`

func TestImportFile(t *testing.T) {
	store := NewStore(testDB(t))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(importDoc), 0o644))

	created, err := store.ImportFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, created, 2)

	got, err := store.Get(ctx, created[0].ID)
	require.NoError(t, err)
	require.Equal(t, "login happy path", got.Name)
	require.Equal(t, "P0", got.Priority)
	require.Len(t, got.Steps, 3)
	require.JSONEq(t, `{"url":"https://example.com/login"}`, got.Steps[0].Params)
	require.Equal(t, "id", got.Steps[1].LocatorType)

	// Priority defaults when omitted.
	got, err = store.Get(ctx, created[1].ID)
	require.NoError(t, err)
	require.Equal(t, "P1", got.Priority)
}

func TestImportFile_MissingName(t *testing.T) {
	store := NewStore(testDB(t))

	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cases:\n  - priority: P1\n"), 0o644))

	_, err := store.ImportFile(context.Background(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestImportFile_MissingAction(t *testing.T) {
	store := NewStore(testDB(t))

	doc := "cases:\n  - name: broken\n    steps:\n      - locator: '#x'\n"
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := store.ImportFile(context.Background(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "action is required")
}
