package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltDBBatchAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := NewBoltDB(path, nil)
	require.NoError(t, err)

	require.NoError(t, db.Put([]byte("stale"), []byte("x")))
	overlay := NewOverlay(db)
	require.NoError(t, overlay.Put([]byte("vault"), []byte("1")))
	require.NoError(t, overlay.Delete([]byte("stale")))
	require.NoError(t, overlay.Commit())

	value, err := db.Get([]byte("vault"))
	require.NoError(t, err)
	value[0] = 'z'
	db.Close()

	reopened, err := NewBoltDB(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	value, err = reopened.Get([]byte("vault"))
	require.NoError(t, err)
	require.Equal(t, "1", string(value))
	_, err = reopened.Get([]byte("stale"))
	require.True(t, errors.Is(err, ErrNotFound))
	ok, err := reopened.Has([]byte("vault"))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, reopened.Delete([]byte("missing")))
}
