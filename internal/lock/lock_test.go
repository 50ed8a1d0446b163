package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braid-dev/brd/internal/errs"
)

func TestAcquireCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd", "lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	defer l.Release()

	_, err = os.Stat(path)
	assert.NoError(t, err, "lock file should exist after acquire")
}

func TestTryAcquireContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd", "lock")

	held, err := Acquire(path)
	require.NoError(t, err)
	defer held.Release()

	// Each Lock opens its own file handle, so the two conflict even inside
	// one process.
	_, err = TryAcquire(path)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.LockBusy, e.Kind)

	require.NoError(t, held.Release())

	l2, err := TryAcquire(path)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}
