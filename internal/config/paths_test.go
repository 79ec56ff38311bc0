package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/shared/testutil"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"relative", "/opt/mkt", "data", filepath.Join("/opt/mkt", "data")},
		{"absolute", "/opt/mkt", "/srv/data", "/srv/data"},
		{"empty", "/opt/mkt", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolve(tt.base, tt.path))
		})
	}
}

func TestGetPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.ExecutableDir = "/opt/mkt"

	paths := cfg.GetPaths()
	assert.Equal(t, filepath.Join("/opt/mkt", "marketing_dataset"), paths.DataDir)
	assert.Equal(t, filepath.Join("/opt/mkt", "marketing_dataset", "customer_data.csv"), paths.DataFile("customer_data.csv"))
}

func TestEnsureLogsDir(t *testing.T) {
	root := t.TempDir()
	paths := &Paths{ExecutableDir: root, DataDir: filepath.Join(root, "data"), LogsDir: filepath.Join(root, "logs", "nested")}

	require.NoError(t, paths.EnsureLogsDir())
	assert.DirExists(t, paths.LogsDir)
	_, err := os.Stat(paths.DataDir)
	assert.True(t, os.IsNotExist(err), "data dir must not be created")
}

func TestLogPathResolution(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	paths := &Paths{ExecutableDir: "/opt/mkt", DataDir: filepath.Join(t.TempDir(), "missing"), LogsDir: "/opt/mkt/logs"}

	paths.LogPathResolution(logger)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Path resolution summary")
	testutil.AssertLogAttr(t, handler, "data_dir_exists", false)
}

func TestExecutableDir(t *testing.T) {
	dir, err := ExecutableDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
}
