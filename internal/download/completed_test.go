package download

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompletedSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	s, err := LoadCompletedSet(path, 2)
	require.NoError(t, err)
	require.Zero(t, s.Len())

	require.NoError(t, s.Add(Item{Category: "docs", URL: "a.pdf"}))
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "one addition stays below the flush threshold")

	require.NoError(t, s.Add(Item{Category: "docs", URL: "b.pdf"}))
	require.FileExists(t, path, "the second addition triggers a checkpoint")

	reloaded, err := LoadCompletedSet(path, 2)
	require.NoError(t, err)
	require.True(t, reloaded.Contains(Item{Category: "docs", URL: "a.pdf"}))
	require.True(t, reloaded.Contains(Item{Category: "docs", URL: "b.pdf"}))
	require.False(t, reloaded.Contains(Item{Category: "docs", URL: "c.pdf"}))
}

func TestCompletedSetCloseFlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	s, err := LoadCompletedSet(path, 100)
	require.NoError(t, err)
	require.NoError(t, s.Add(Item{Category: "docs", URL: "a.pdf"}))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var keys []string
	require.NoError(t, json.Unmarshal(data, &keys))
	require.Equal(t, []string{"docs/a.pdf"}, keys)
}

func TestCompletedSetIgnoresDuplicateAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	s, err := LoadCompletedSet(path, 2)
	require.NoError(t, err)

	it := Item{Category: "docs", URL: "a.pdf"}
	require.NoError(t, s.Add(it))
	require.NoError(t, s.Add(it))
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "re-adding a key must not count toward the flush threshold")
	require.Equal(t, 1, s.Len())
}

func TestCompletedSetRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadCompletedSet(path, 2)
	require.Error(t, err)
}
