package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/protrack/production-engine/config"
	"github.com/protrack/production-engine/production"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestCLI_ImportThenReconcile(t *testing.T) {
	// GIVEN: A sqlite file and a program document on disk
	// WHEN: The program is imported and production recorded against it
	// THEN: reconcile and summary report from the same file
	dir := t.TempDir()
	t.Chdir(dir)
	db := filepath.Join(dir, "production.db")

	programFile := filepath.Join(dir, "program.json")
	require.NoError(t, os.WriteFile(programFile, []byte(`[
	  {"id": 1, "dossier_number": "DOS-1", "destination": "Abidjan", "nbre": 10, "qte": 200},
	  {"id": 2, "dossier_number": "DOS-2", "destination": "Lomé", "nbre": 4, "qte": 88}
	]`), 0o600))

	out := run(t, "import-program", programFile, "--db", db)
	assert.Contains(t, out, "imported 2 dossiers")

	// Record one shift directly through the same store
	cfg := config.Defaults()
	cfg.Store.Path = db
	a, err := newApp(cfg)
	require.NoError(t, err)
	draft := production.NewDraftOrder(production.CategoryExport)
	draft.UnitCount = 3
	draft.DossierRef = "dos-1"
	_, err = a.service.Submit(context.Background(), production.DraftEntry{
		Date:     production.NewDate(2025, 3, 10),
		Shift:    production.ShiftMorning,
		Platform: production.PlatformBigBag,
		Operator: "Aminata Diallo",
		Orders:   []production.DraftOrder{draft},
	})
	require.NoError(t, err)
	require.NoError(t, a.close())

	out = run(t, "reconcile", "--db", db)
	assert.Contains(t, out, "DOS-1")
	assert.Contains(t, out, "66.00")
	assert.Contains(t, out, "33%")
	assert.Contains(t, out, "DOS-2")

	out = run(t, "reconcile", "--db", db, "--search", "lomé")
	assert.NotContains(t, out, "DOS-1")
	assert.Contains(t, out, "DOS-2")

	out = run(t, "summary", "--db", db)
	assert.Contains(t, out, "66.00")
	assert.Contains(t, out, "EXPORT")
}

func TestCLI_Migrate(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	out := run(t, "migrate", "--db", filepath.Join(dir, "fresh.db"))
	assert.Contains(t, out, "sqlite store migrated")
	assert.FileExists(t, filepath.Join(dir, "fresh.db"))
}

func TestCLI_ImportProgram_BadFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id": -1}]`), 0o600))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"import-program", bad, "--driver", "memory"})
	assert.Error(t, root.Execute())
}

func TestOpenStore_Drivers(t *testing.T) {
	logger := zaptest.NewLogger(t)

	for _, sc := range []config.StoreConfig{
		{Driver: config.DriverMemory},
		{Driver: config.DriverSQLite, Path: ":memory:"},
		{Driver: config.DriverBadger, Path: t.TempDir()},
	} {
		t.Run(sc.Driver, func(t *testing.T) {
			s, closeFn, err := openStore(sc, logger)
			require.NoError(t, err)
			defer closeFn()

			ctx := context.Background()
			require.NoError(t, s.UpsertProgram(ctx, []production.MasterProgramEntry{{ID: 1, DossierRef: "A"}}))
			require.NoError(t, s.Reset(ctx))
			program, err := s.ListProgram(ctx)
			require.NoError(t, err)
			assert.Empty(t, program)
		})
	}

	_, _, err := openStore(config.StoreConfig{Driver: "oracle"}, logger)
	assert.Error(t, err)
}
