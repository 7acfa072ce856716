package alertjournal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	journal, err := Open(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournal_PutGet(t *testing.T) {
	journal := openTemp(t)

	_, found, err := journal.Get("widget")
	require.NoError(t, err)
	assert.False(t, found)

	alerted := time.Now().Truncate(time.Second)
	require.NoError(t, journal.Put(Entry{ProductID: "widget", UnitsNeeded: 5, AlertedAt: alerted}))

	entry, found, err := journal.Get("widget")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, entry.UnitsNeeded)
	assert.True(t, entry.AlertedAt.Equal(alerted))
}

func TestJournal_PutReplaces(t *testing.T) {
	journal := openTemp(t)

	require.NoError(t, journal.Put(Entry{ProductID: "widget", UnitsNeeded: 5}))
	require.NoError(t, journal.Put(Entry{ProductID: "widget", UnitsNeeded: 8}))

	entry, found, err := journal.Get("widget")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 8, entry.UnitsNeeded)

	size, err := journal.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}

func TestJournal_Delete(t *testing.T) {
	journal := openTemp(t)

	require.NoError(t, journal.Put(Entry{ProductID: "widget", UnitsNeeded: 5}))
	require.NoError(t, journal.Delete("widget"))

	_, found, err := journal.Get("widget")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is a no-op.
	assert.NoError(t, journal.Delete("ghost"))
}

func TestJournal_List(t *testing.T) {
	journal := openTemp(t)

	require.NoError(t, journal.Put(Entry{ProductID: "a", UnitsNeeded: 1}))
	require.NoError(t, journal.Put(Entry{ProductID: "b", UnitsNeeded: 2}))

	entries, err := journal.List()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestJournal_Cleanup(t *testing.T) {
	journal := openTemp(t)

	old := time.Now().Add(-96 * time.Hour)
	require.NoError(t, journal.Put(Entry{ProductID: "stale", UnitsNeeded: 1, AlertedAt: old}))
	require.NoError(t, journal.Put(Entry{ProductID: "fresh", UnitsNeeded: 1, AlertedAt: time.Now()}))

	require.NoError(t, journal.Cleanup(time.Now().Add(-72*time.Hour)))

	_, found, err := journal.Get("stale")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = journal.Get("fresh")
	require.NoError(t, err)
	assert.True(t, found)
}
