package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, "chromem", cfg.Vector.Provider)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("VECTOR_PROVIDER", "qdrant")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "qdrant", cfg.Vector.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey.Value())
}

func TestLoadRejectsPathOutsideAllowedDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path validation failed")
}

func TestValidateConfigFileProperties(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		perm    os.FileMode
		wantErr bool
	}{
		{name: "0600 allowed", perm: 0600},
		{name: "0400 allowed", perm: 0400},
		{name: "0644 rejected", perm: 0644, wantErr: true},
		{name: "0666 rejected", perm: 0666, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte("x"), tt.perm))

			info, err := os.Stat(path)
			require.NoError(t, err)

			err = validateConfigFileProperties(info)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/.local/share/researchd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", "researchd"), got)

	got, err = ExpandPath("/var/lib/researchd")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/researchd", got)
}
