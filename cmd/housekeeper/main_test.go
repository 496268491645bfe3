package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aatumaykin/housekeeper/internal/cleanup"
	"github.com/aatumaykin/housekeeper/internal/constants"
	"github.com/aatumaykin/housekeeper/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cleanMinAge, cleanDryRun, cleanDebug, cleanLockDir, cleanConfigPath = 0, false, false, "", ""
	runConfigPath, runTarget, runDebug = "", "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestCommandStructure(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		found[cmd.Name()] = true
	}
	for _, name := range []string{"version", "config", "archive", "delete", "run", "serve"} {
		assert.True(t, found[name], "command %q not registered", name)
	}

	validate, _, err := rootCmd.Find([]string{"config", "validate"})
	require.NoError(t, err)
	assert.Equal(t, "validate", validate.Name())
}

func TestCleanFlags(t *testing.T) {
	for _, cmd := range []string{"archive", "delete"} {
		c, _, err := rootCmd.Find([]string{cmd})
		require.NoError(t, err)
		for _, flag := range []string{"min-age", "dry-run", "debug", "lock-dir", "config"} {
			assert.NotNil(t, c.Flags().Lookup(flag), "%s --%s", cmd, flag)
		}
	}
}

func TestArchiveCommand(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "old.log"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "new.log"), time.Minute)

	out, err := execute(t, "archive", dir, "--min-age", "3600", "--lock-dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "archived 1 of")
	assert.FileExists(t, filepath.Join(dir, "archive", "old.log"))
	assert.NoFileExists(t, filepath.Join(dir, "old.log"))
	assert.FileExists(t, filepath.Join(dir, "new.log"))
}

func TestDeleteCommand(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "old.log"), 2*time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))
	writeAged(t, filepath.Join(dir, "archive", "kept.log"), 2*time.Hour)

	out, err := execute(t, "delete", dir, "-a", "60", "--lock-dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, out, "deleted 1 of 2 entries")
	assert.NoFileExists(t, filepath.Join(dir, "old.log"))
	assert.FileExists(t, filepath.Join(dir, "archive", "kept.log"))
}

func TestDeleteCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "old.log"), 2*time.Hour)
	writeAged(t, filepath.Join(dir, "new.log"), time.Minute)
	writeAged(t, filepath.Join(dir, "keep.db"), 2*time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".housekeeper_ignore"), []byte("*.db\n"), 0644))

	out, err := execute(t, "delete", dir, "--min-age", "3600", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, out, "delete   old.log\n")
	assert.Contains(t, out, "skip     new.log (too_young)\n")
	assert.Contains(t, out, `skip     keep.db (ignore_pattern "*.db")`)
	assert.FileExists(t, filepath.Join(dir, "old.log"))
}

func TestCleanCommand_Errors(t *testing.T) {
	t.Run("negative min age", func(t *testing.T) {
		_, err := execute(t, "archive", t.TempDir(), "--min-age=-1")
		assert.ErrorContains(t, err, "--min-age")
	})

	t.Run("min age that overflows", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "recent.log")
		writeAged(t, file, 10*time.Second)

		_, err := execute(t, "delete", dir, "--min-age", "18446744074")
		assert.ErrorContains(t, err, "--min-age")
		assert.FileExists(t, file)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := execute(t, "delete", filepath.Join(t.TempDir(), "gone"))
		assert.Error(t, err)
	})

	t.Run("no directory argument", func(t *testing.T) {
		_, err := execute(t, "archive")
		assert.Error(t, err)
	})
}

func TestRunCommand(t *testing.T) {
	uploads := t.TempDir()
	reports := t.TempDir()
	writeAged(t, filepath.Join(uploads, "a.bin"), 48*time.Hour)
	writeAged(t, filepath.Join(reports, "r.pdf"), 48*time.Hour)

	configPath := filepath.Join(t.TempDir(), "housekeeper.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[lock]
dir = "`+t.TempDir()+`"

[[targets]]
name = "uploads"
path = "`+uploads+`"
mode = "delete"
min_age_seconds = 86400

[[targets]]
name = "reports"
path = "`+reports+`"
enabled = false
`), 0644))

	t.Run("enabled targets", func(t *testing.T) {
		out, err := execute(t, "run", "--config", configPath)
		require.NoError(t, err)

		assert.Contains(t, out, "uploads: deleted 1 of 1 entries")
		assert.NotContains(t, out, "reports")
		assert.NoFileExists(t, filepath.Join(uploads, "a.bin"))
		assert.FileExists(t, filepath.Join(reports, "r.pdf"))
	})

	t.Run("named target", func(t *testing.T) {
		out, err := execute(t, "run", "-c", configPath, "--target", "reports")
		require.NoError(t, err)

		assert.Contains(t, out, "reports: archived 1 of")
		assert.FileExists(t, filepath.Join(reports, "archive", "r.pdf"))
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := execute(t, "run", "-c", configPath, "--target", "nope")
		assert.ErrorContains(t, err, "unknown target")
	})
}

func TestConfigValidateCommand(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "ok.toml")
	require.NoError(t, os.WriteFile(valid, []byte("[[targets]]\nname = \"tmp\"\npath = \"/tmp/work\"\nschedule = \"@daily\"\n"), 0644))
	out, err := execute(t, "config", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid (1 targets)")
	assert.Contains(t, out, "schedule=@daily")

	invalid := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[[targets]]\npath = \"/tmp/work\"\nmode = \"shred\"\n"), 0644))
	_, err = execute(t, "config", "validate", invalid)
	assert.ErrorContains(t, err, "config validation failed")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
	assert.Contains(t, out, "Go Version:")
}

func TestMetricsServer(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := cleanup.NewMetrics(constants.MetricsNamespace, registry)
	metrics.ObservePass(cleanup.ModeArchive, cleanup.Stats{Examined: 1, Acted: 1}, nil)
	srv := newMetricsServer("127.0.0.1:0", registry, logger.Nop())
	assert.Equal(t, "127.0.0.1:0", srv.Addr)
	assert.NotNil(t, srv.ErrorLog)

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `housekeeper_passes_total{mode="archive",status="success"} 1`)
}
