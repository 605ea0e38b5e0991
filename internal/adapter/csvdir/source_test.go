package csvdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-23-2020.csv"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-22-2020.csv"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	snapshots, err := NewSource(dir).Snapshots(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots, 2)
	assert.Equal(t, "01-22-2020.csv", snapshots[0].Name)
	assert.Equal(t, []byte("a"), snapshots[0].Data)
	assert.Equal(t, "01-23-2020.csv", snapshots[1].Name)
}

func TestSnapshots_EmptyDir(t *testing.T) {
	snapshots, err := NewSource(t.TempDir()).Snapshots(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshots)
}

func TestSnapshots_MissingDir(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope")).Snapshots(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "snapshot dir")
}

func TestSnapshots_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01-22-2020.csv"), []byte("a"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(dir).Snapshots(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
