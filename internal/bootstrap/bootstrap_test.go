package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tally/internal/platform/config"
	"tally/internal/platform/sqlitedb"
	"tally/internal/platform/timefmt"
)

func TestAppLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	cfg, err := config.New(dir)
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)

	project, err := app.CatalogCLI.AddProject(ctx, "Docs", 0, 50)
	require.NoError(t, err)
	started, err := app.TrackingCLI.Start(ctx, "Draft", project.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Draft::Docs::", started.GroupKey)
	assert.True(t, app.TrackingCLI.State().Active)

	// Close stops the running session before releasing the database.
	require.NoError(t, app.Close(ctx))

	app, err = New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	stale, err := app.LedgerCLI.Stale(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, stale, "a clean shutdown leaves no open rows")

	tasks, err := app.LedgerCLI.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Draft", tasks[0].Name)
	assert.NotEmpty(t, tasks[0].EndTime)

	logData, err := os.ReadFile(filepath.Join(dir, "tally.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(logData), "tracking started"))
}

func TestNewWarnsAboutUnfinishedTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	cfg, err := config.New(dir)
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)
	_, err = app.TrackingCLI.Start(ctx, "Crashed", 0, 0)
	require.NoError(t, err)
	// Simulate a crash: release the database without stopping.
	require.NoError(t, app.release())
	// Age the row past the live window so it no longer looks tracked.
	db, err := sqlitedb.Open(cfg.DBPath)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE tasks SET start_time = ?`, timefmt.FormatTimestamp(time.Now().Add(-10*time.Minute)))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	app, err = New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	stale, err := app.LedgerCLI.Stale(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "Crashed", stale[0].Name)

	logData, err := os.ReadFile(filepath.Join(dir, "tally.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), "unfinished tasks from an earlier run")
}
