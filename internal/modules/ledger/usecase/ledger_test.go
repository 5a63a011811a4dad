package usecase_test

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	catalogout "tally/internal/modules/catalog/adapter/out"
	ledgerout "tally/internal/modules/ledger/adapter/out"
	"tally/internal/modules/ledger/dto"
	ledgerin "tally/internal/modules/ledger/port/in"
	"tally/internal/modules/ledger/service"
	"tally/internal/modules/ledger/usecase"
	trackingout "tally/internal/modules/tracking/adapter/out"
	apperrors "tally/internal/platform/errors"
	"tally/internal/platform/sanitize"
	"tally/internal/platform/sqlitedb"
	"tally/internal/testutil"
)

func newLedger(t *testing.T) (ledgerin.Usecase, *sql.DB) {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = catalogout.NewSQLiteCatalogStore(db)
	require.NoError(t, err)
	require.NoError(t, trackingout.EnsureTaskSchema(context.Background(), db))

	seed := `
INSERT INTO clients (id, name, created_at) VALUES (1, 'Acme', '2026-05-01 08:00:00');
INSERT INTO projects (id, name, client_id, hourly_rate_cents, created_at) VALUES (1, 'Web', 1, 9000, '2026-05-01 08:00:00');
INSERT INTO tasks (id, name, project_id, client_id, start_time, end_time, time_spent, created_at) VALUES
  (1, 'Design', 1, 1, '2026-05-01 09:00:00', '2026-05-01 10:00:00', 3600, '2026-05-01 09:00:00'),
  (2, 'Design (2)', 1, 1, '2026-05-02 09:00:00', NULL, 90, '2026-05-02 09:00:00'),
  (3, 'Email', NULL, NULL, '2026-05-02 11:00:00', NULL, 30, '2026-05-02 11:00:00');
`
	_, err = db.Exec(seed)
	require.NoError(t, err)

	clk := testutil.NewManualClock(time.Date(2026, 5, 3, 12, 0, 0, 0, time.Local))
	svc := service.NewLedgerService(clk, sanitize.New(0), ledgerout.NewSQLiteTaskStore(db), 0, nil)
	return usecase.NewInteractor(svc, clk, ledgerout.NewYAMLEncoder(), ledgerout.NewMarkdownEncoder()), db
}

func TestTasksJoinCatalogNames(t *testing.T) {
	t.Parallel()
	uc, _ := newLedger(t)

	tasks, err := uc.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "Web", tasks[0].ProjectName)
	assert.Equal(t, "Acme", tasks[0].ClientName)
	assert.False(t, tasks[0].Open)
	assert.Equal(t, "Design::Web::Acme", tasks[1].GroupKey)
	assert.Equal(t, "Email::::", tasks[2].GroupKey)
	assert.True(t, tasks[2].Open)
}

func TestStacksSumDisambiguatedRuns(t *testing.T) {
	t.Parallel()
	uc, _ := newLedger(t)

	stacks, err := uc.Stacks(context.Background())
	require.NoError(t, err)
	require.Len(t, stacks, 2)
	assert.Equal(t, "Email::::", stacks[0].GroupKey)
	assert.Equal(t, "Design::Web::Acme", stacks[1].GroupKey)
	assert.Equal(t, 2, stacks[1].Count)
	assert.Equal(t, int64(3690), stacks[1].TotalSeconds)
}

func TestStaleExcludesRunningSession(t *testing.T) {
	t.Parallel()
	uc, _ := newLedger(t)
	ctx := context.Background()

	stale, err := uc.Stale(ctx, dto.StaleInput{})
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	stale, err = uc.Stale(ctx, dto.StaleInput{ExcludeTaskID: 3})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, int64(2), stale[0].ID)
}

func TestCloseStaleUsesLastCheckpoint(t *testing.T) {
	t.Parallel()
	uc, db := newLedger(t)
	ctx := context.Background()

	closed, err := uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 2})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-02 09:01:30", closed.EndTime)
	assert.False(t, closed.Open)

	var end string
	require.NoError(t, db.QueryRow(`SELECT end_time FROM tasks WHERE id = 2`).Scan(&end))
	assert.Equal(t, "2026-05-02 09:01:30", end)

	_, err = uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 2})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "closing twice is rejected")
	_, err = uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 42})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStaleActionsRefuseRunningSession(t *testing.T) {
	t.Parallel()
	uc, db := newLedger(t)
	ctx := context.Background()

	err := uc.DiscardStale(ctx, dto.StaleActionInput{TaskID: 3, ActiveTaskID: 3})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 3, ActiveTaskID: 3})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = 3 AND end_time IS NULL`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDiscardStaleDeletesRow(t *testing.T) {
	t.Parallel()
	uc, db := newLedger(t)
	ctx := context.Background()

	require.NoError(t, uc.DiscardStale(ctx, dto.StaleActionInput{TaskID: 3}))
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE id = 3`).Scan(&n))
	assert.Zero(t, n)

	assert.ErrorIs(t, uc.DiscardStale(ctx, dto.StaleActionInput{TaskID: 3}), apperrors.ErrNotFound)
	assert.ErrorIs(t, uc.DiscardStale(ctx, dto.StaleActionInput{TaskID: 1}), apperrors.ErrInvalidInput)
}

func TestExportYAML(t *testing.T) {
	t.Parallel()
	uc, _ := newLedger(t)
	var buf bytes.Buffer

	require.NoError(t, uc.Export(context.Background(), &buf, dto.ExportInput{Format: "YAML"}))

	var report dto.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &report))
	assert.Equal(t, "2026-05-03 12:00:00", report.GeneratedAt)
	assert.Len(t, report.Tasks, 3)
	assert.Len(t, report.Stacks, 2)
	assert.Contains(t, buf.String(), "group_key: Design::Web::Acme")

	err := uc.Export(context.Background(), &buf, dto.ExportInput{Format: "csv"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestExportMarkdownMergesIntoNote(t *testing.T) {
	t.Parallel()
	uc, _ := newLedger(t)
	ctx := context.Background()
	existing := "---\ntitle: May\n---\n\nMy notes.\n\n<!-- tally:start -->\nold\n<!-- tally:end -->\n\nFooter\n"

	var buf bytes.Buffer
	require.NoError(t, uc.Export(ctx, &buf, dto.ExportInput{Format: "markdown", Existing: existing}))
	out := buf.String()

	assert.Contains(t, out, "title: May")
	assert.Contains(t, out, "tally_runs: 3")
	assert.Contains(t, out, "My notes.")
	assert.Contains(t, out, "Footer")
	assert.NotContains(t, out, "\nold\n")
	assert.Contains(t, out, "| Design | Web | Acme | 2 | 01:01:30 |")
	assert.Contains(t, out, "| 3 | Email | 2026-05-02 11:00:00 | open | 00:00:30 |")

	buf.Reset()
	require.NoError(t, uc.Export(ctx, &buf, dto.ExportInput{Format: "markdown"}))
	assert.Contains(t, buf.String(), "# Timesheet")
}

func TestRecentlyCheckpointedRowsAreNotStale(t *testing.T) {
	t.Parallel()
	uc, db := newLedger(t)
	ctx := context.Background()

	// Another process started at 11:58 and last checkpointed at 11:59:45.
	_, err := db.Exec(`INSERT INTO tasks (id, name, start_time, end_time, time_spent, created_at)
		VALUES (4, 'Live', '2026-05-03 11:58:00', NULL, 105, '2026-05-03 11:58:00')`)
	require.NoError(t, err)

	stale, err := uc.Stale(ctx, dto.StaleInput{})
	require.NoError(t, err)
	require.Len(t, stale, 2)
	for _, task := range stale {
		assert.NotEqual(t, int64(4), task.ID)
	}

	_, err = uc.CloseStale(ctx, dto.StaleActionInput{TaskID: 4})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.ErrorIs(t, uc.DiscardStale(ctx, dto.StaleActionInput{TaskID: 4}), apperrors.ErrConflict)

	var endTime sql.NullString
	require.NoError(t, db.QueryRow(`SELECT end_time FROM tasks WHERE id = 4`).Scan(&endTime))
	assert.False(t, endTime.Valid, "the live row stays open")
}
