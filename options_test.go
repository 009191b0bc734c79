package castm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAggregatesInnerDefaults(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, 8, opts.STMCore.MaxHistory)
	require.Equal(t, "info", opts.LogLevel)
	require.Greater(t, opts.Alloc.ChunkBytes, 0)
}

func TestLoadOptionsOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castm.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"debug\"\n\n[stmcore]\nmax_history = 16\n"), 0o644))

	opts, err := LoadOptions(path)
	require.NoError(t, err)
	require.Equal(t, "debug", opts.LogLevel)
	require.Equal(t, 16, opts.STMCore.MaxHistory)
	require.Equal(t, DefaultOptions().STMCore.StripeCount, opts.STMCore.StripeCount)
	require.Equal(t, DefaultOptions().Alloc, opts.Alloc)
}

func TestLoadOptionsRejectsNonPositiveStripeCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castm.toml")
	require.NoError(t, os.WriteFile(path, []byte("[stmcore]\nstripe_count = 0\n"), 0o644))

	_, err := LoadOptions(path)
	require.Error(t, err)
}

func TestLoadOptionsRejectsNonPowerOfTwoChunkBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castm.toml")
	require.NoError(t, os.WriteFile(path, []byte("[alloc]\nchunk_bytes = 100\n"), 0o644))

	_, err := LoadOptions(path)
	require.Error(t, err)
}

func TestLoadOptionsMissingFileReturnsError(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
