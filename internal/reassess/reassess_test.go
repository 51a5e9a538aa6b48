package reassess

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/roofprep/internal/geocode"
	"github.com/lehigh-university-libraries/roofprep/internal/roof"
)

func testTable() *geocode.Gazetteer {
	return geocode.New([]geocode.City{
		{Name: "Paris", Materials: []string{"ClayTiles", "MetalSheetMaterials"}},
		{Name: "New York", Materials: []string{"AmorphousMembrane"}},
		{Name: "Lima"},
	})
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0644))
}

func TestCheck(t *testing.T) {
	table := testTable()

	tests := []struct {
		name     string
		filename string
		material roof.Material
		verdict  Verdict
		cityKey  string
	}{
		{"allowed", "paris-001.jpg", roof.ClayTiles, VerdictAllowed, "paris"},
		{"disallowed", "paris-002.jpg", roof.Thatch, VerdictDisallowed, "paris"},
		{"space in key matches underscore filename", "new_york_height30.jpg", roof.AmorphousMembrane, VerdictAllowed, "new_york"},
		{"city without list", "lima-1.jpg", roof.Thatch, VerdictNoList, "lima"},
		{"city missing", "oslo-1.jpg", roof.Thatch, VerdictNoList, "oslo"},
		{"unparseable filename", "IMG_0001.jpg", roof.Thatch, VerdictNoCity, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(table, tt.filename, tt.material)
			assert.Equal(t, tt.verdict, d.Verdict)
			assert.Equal(t, tt.cityKey, d.CityKey)
		})
	}
}

func TestPlan(t *testing.T) {
	mv := Plan(filepath.Join("root", "Thatch", "paris-1.jpg"), "paris", roof.Thatch)
	assert.Equal(t, filepath.Join("root", "Thatch", Dir, "paris-1.jpg"), mv.Destination)
}

func TestMoverDryRunTouchesNothing(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Thatch", "paris-1.jpg")
	writeImage(t, src)

	m := &Mover{DryRun: true}
	require.NoError(t, m.Apply(context.Background(), Plan(src, "paris", roof.Thatch)))

	assert.FileExists(t, src)
	assert.NoDirExists(t, filepath.Join(root, "Thatch", Dir))
}

func TestMoverDryRunReportsOccupiedDestination(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Thatch", "paris-1.jpg")
	writeImage(t, src)
	writeImage(t, filepath.Join(root, "Thatch", Dir, "paris-1.jpg"))

	m := &Mover{DryRun: true}
	err := m.Apply(context.Background(), Plan(src, "paris", roof.Thatch))
	assert.ErrorIs(t, err, ErrDestinationExists)
}

func TestMoverRefusesOverwrite(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Thatch", "paris-1.jpg")
	writeImage(t, src)
	writeImage(t, filepath.Join(root, "Thatch", Dir, "paris-1.jpg"))

	m := &Mover{}
	err := m.Apply(context.Background(), Plan(src, "paris", roof.Thatch))
	require.ErrorIs(t, err, ErrDestinationExists)
	assert.FileExists(t, src)
}

func TestJournalMoveAndRestore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	j, err := OpenJournal(ctx, filepath.Join(root, "state", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	first := filepath.Join(root, "Thatch", "paris-1.jpg")
	second := filepath.Join(root, "WoodTiles", "lima-2.jpg")
	writeImage(t, first)
	writeImage(t, second)

	m := &Mover{RunID: "run-1", Journal: j}
	require.NoError(t, m.Apply(ctx, Plan(first, "paris", roof.Thatch)))
	require.NoError(t, m.Apply(ctx, Plan(second, "lima", roof.WoodTiles)))

	assert.NoFileExists(t, first)
	assert.FileExists(t, filepath.Join(root, "Thatch", Dir, "paris-1.jpg"))

	entries, err := j.Entries(ctx, "run-1", true)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0].Source)
	assert.Equal(t, "Thatch", entries[0].Material)
	assert.Nil(t, entries[0].RestoredAt)

	latest, err := j.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", latest)

	// a file back at the original path blocks its restore
	writeImage(t, second)

	report, err := Restore(ctx, j, "run-1", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, 1, report.Conflicts)
	assert.Equal(t, map[string]int{"Thatch": 1}, report.ByMaterial)
	assert.FileExists(t, first)

	pending, err := j.Entries(ctx, "run-1", true)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].Source)

	all, err := j.Entries(ctx, "run-1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].RestoredAt)

	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Moves)
	assert.Equal(t, 1, runs[0].Restored)
}

func TestRestoreCountsMissingAndDryRun(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	j, err := OpenJournal(ctx, filepath.Join(root, "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	kept := filepath.Join(root, "Thatch", "paris-1.jpg")
	gone := filepath.Join(root, "Thatch", "paris-2.jpg")
	writeImage(t, kept)
	writeImage(t, gone)

	m := &Mover{RunID: "run-2", Journal: j}
	require.NoError(t, m.Apply(ctx, Plan(kept, "paris", roof.Thatch)))
	require.NoError(t, m.Apply(ctx, Plan(gone, "paris", roof.Thatch)))
	require.NoError(t, os.Remove(filepath.Join(root, "Thatch", Dir, "paris-2.jpg")))

	report, err := Restore(ctx, j, "run-2", true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, 1, report.Missing)
	assert.NoFileExists(t, kept, "dry run must not move files back")

	pending, err := j.Entries(ctx, "run-2", true)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestLatestRunEmptyJournal(t *testing.T) {
	ctx := context.Background()
	j, err := OpenJournal(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	_, err = j.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestLock(t *testing.T) {
	root := t.TempDir()

	lock, err := AcquireLock(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, LockName), lock.Path())

	_, err = AcquireLock(root)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release())

	again, err := AcquireLock(root)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestJournalTimestamps(t *testing.T) {
	ctx := context.Background()
	j, err := OpenJournal(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, "run-3", Move{Source: "a", Destination: "b", CityKey: "paris", Material: roof.Thatch}, at))

	entries, err := j.Entries(ctx, "run-3", false)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].MovedAt.Equal(at))
}
