package commands

import (
	"bytes"
	"chatapp-servers/internal/models"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"error", true},
		{"loud", false},
	}

	for _, tt := range tests {
		sugar, err := setupLogger(&models.ConfigFile{LogLevel: tt.level})
		if tt.valid {
			assert.NoError(t, err, tt.level)
			assert.NotNil(t, sugar)
		} else {
			assert.Error(t, err, tt.level)
		}
	}
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	uploadRoot := filepath.Join(dir, "public")
	orphan := filepath.Join(uploadRoot, "server", "1", "server_icons", "icon.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(orphan), 0o755))
	require.NoError(t, os.WriteFile(orphan, []byte("png"), 0o644))

	cfgPath := filepath.Join(dir, "config.json")
	cfg := `{"JwtSecret": "secret", "SelfContained": true, "LogLevel": "error",
		"SqlitePath": "` + filepath.ToSlash(filepath.Join(dir, "test.db")) + `",
		"UploadRoot": "` + filepath.ToSlash(uploadRoot) + `"}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out := runRoot(t, "--config", cfgPath, "prune", "--dry-run")
	assert.Equal(t, "server/1/server_icons/icon.png", strings.TrimSpace(out))
	assert.FileExists(t, orphan)

	dryRun = false
	out = runRoot(t, "--config", cfgPath, "prune")
	assert.Equal(t, "server/1/server_icons/icon.png", strings.TrimSpace(out))
	assert.NoFileExists(t, orphan)
}
