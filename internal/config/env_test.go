package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("process environment", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv(EnvServiceKey, "anon-key")
		t.Setenv(EnvStandardTimeout, "3s")
		t.Setenv(EnvChunkSize, "2048")

		cfg := &Config{}
		parseEnv(cfg)

		assert.Equal(t, "anon-key", cfg.ServiceKey)
		assert.Equal(t, 3*time.Second, cfg.StandardTimeout)
		assert.Equal(t, int64(2048), cfg.ChunkSize)
	})

	t.Run("dotenv file does not override environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(path, []byte(
			EnvSiteOrigin+"=https://from-file\n"+EnvUserID+"=u-file\n"), 0o600))
		unsetAfter(t, EnvUserID)
		t.Setenv(EnvSiteOrigin, "https://from-env")

		os.Args = []string{"testbin", "-env", path}

		cfg := &Config{}
		parseEnv(cfg)

		assert.Equal(t, "https://from-env", cfg.SiteOrigin)
		assert.Equal(t, "u-file", cfg.UserID)
	})

	t.Run("explicit missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "missing.env")}

		require.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("bad number panics", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv(EnvResumableThreshold, "big")

		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}
