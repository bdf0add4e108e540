package studycard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialgate/domain/core"
)

func writeCardFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

const dirCardJSON = `{
  "trial_id": "NCT100",
  "source_id": "registry-v2",
  "version": 2,
  "captured_at": "2024-06-01T00:00:00Z",
  "phase": "3",
  "is_pivotal": true
}`

const dirHistoryJSON = `[{
  "trial_id": "NCT100",
  "source_id": "registry-v1",
  "version": 1,
  "captured_at": "2023-01-15T00:00:00Z"
}]`

func TestDir_CurrentAndHistory(t *testing.T) {
	root := t.TempDir()
	writeCardFile(t, root, "NCT100.json", dirCardJSON)
	writeCardFile(t, root, "NCT100.history.json", dirHistoryJSON)

	cards, err := NewDir(root)
	require.NoError(t, err)

	card, err := cards.Current(context.Background(), "NCT100")
	require.NoError(t, err)
	assert.Equal(t, core.TrialID("NCT100"), card.TrialID)
	assert.Equal(t, 2, card.Version)

	history, err := cards.History(context.Background(), "NCT100")
	require.NoError(t, err)
	require.NotNil(t, history)
	require.Len(t, history.Versions, 1)
	assert.Equal(t, 1, history.Versions[0].Version)
}

func TestDir_MissingCardIsNotFound(t *testing.T) {
	cards, err := NewDir(t.TempDir())
	require.NoError(t, err)

	_, err = cards.Current(context.Background(), "NCT404")
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err), "missing card must surface as not-found: %v", err)
}

func TestDir_MissingHistoryIsNotAnError(t *testing.T) {
	root := t.TempDir()
	writeCardFile(t, root, "NCT100.json", dirCardJSON)

	cards, err := NewDir(root)
	require.NoError(t, err)

	history, err := cards.History(context.Background(), "NCT100")
	require.NoError(t, err)
	assert.Nil(t, history)
}

func TestNewDir_RejectsFilePath(t *testing.T) {
	root := t.TempDir()
	writeCardFile(t, root, "card.json", dirCardJSON)

	_, err := NewDir(filepath.Join(root, "card.json"))
	require.Error(t, err)
}

func TestDir_InvalidCardRejected(t *testing.T) {
	root := t.TempDir()
	writeCardFile(t, root, "NCT100.json", `{"trial_id": "NCT100"}`)

	cards, err := NewDir(root)
	require.NoError(t, err)

	_, err = cards.Current(context.Background(), "NCT100")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}
