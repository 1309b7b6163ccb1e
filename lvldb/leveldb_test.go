// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/kv"
)

func TestLevelDB(t *testing.T) {
	disk, err := New(filepath.Join(t.TempDir(), "main.db"), Options{CacheSize: 16, OpenFilesCacheCapacity: 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		_, err := db.Get([]byte("a"))
		assert.True(t, db.IsNotFound(err))

		batch := db.NewBatch()
		require.NoError(t, batch.Put([]byte("a"), []byte("1")))
		require.NoError(t, batch.Put([]byte("b"), []byte("2")))
		require.NoError(t, batch.Delete([]byte("b")))

		_, err = db.Get([]byte("a"))
		assert.True(t, db.IsNotFound(err), "batch not written yet")

		require.NoError(t, batch.Write())

		got, err := db.Get([]byte("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("1"), got)
		_, err = db.Get([]byte("b"))
		assert.True(t, db.IsNotFound(err))
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.db")
	db, err := New(path, Options{})
	require.NoError(t, err)
	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("k"), []byte("v")))
	require.NoError(t, batch.Write())
	require.NoError(t, db.Close())

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestBucket(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	bucket := kv.Bucket("s")
	batch := db.NewBatch()
	putter := bucket.NewPutter(batch)
	require.NoError(t, putter.Put([]byte("k1"), []byte("v1")))
	require.NoError(t, batch.Put([]byte("k1"), []byte("raw")))
	require.NoError(t, batch.Write())

	val, err := bucket.NewGetter(db).Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	val, err = db.Get([]byte("sk1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)

	val, err = db.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), val)

	_, err = bucket.NewGetter(db).Get([]byte("k2"))
	assert.True(t, bucket.NewGetter(db).IsNotFound(err))
}
