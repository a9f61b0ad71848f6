package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "test-does-not-exist")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "release", cfg.Mode)
	require.Equal(t, 9208, cfg.Port)
	require.Equal(t, "geckos.io", cfg.Label)
	require.Equal(t, 15*time.Second, cfg.ReliableTTL)
	require.Equal(t, 100, cfg.SweepEvery)
	require.False(t, cfg.DebugAsserts)
}
