// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package lvldb persists the engine state in goleveldb.
package lvldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/vechain/liquidity-mining/kv"
)

var _ kv.StoreCloser = (*LevelDB)(nil)

// minCacheMB is also the floor of the open files cache.
const minCacheMB = 16

// Options sizes the caches of a persistent db. Values below 16 are raised to 16.
type Options struct {
	CacheSize              int // MiB, split between block cache and write buffer
	OpenFilesCacheCapacity int
}

// LevelDB is the state store. Stages are written in synced batches, reads go straight to leveldb.
type LevelDB struct {
	db *leveldb.DB
}

// New opens the db at path, creating it when missing.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open state storage")
	}
	return open(stg, opts)
}

// NewMem creates a db living in memory, for simulations and tests.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), Options{})
}

func open(stg storage.Storage, opts Options) (*LevelDB, error) {
	cacheSize := max(opts.CacheSize, minCacheMB)
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: max(opts.OpenFilesCacheCapacity, minCacheMB),
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open state db")
	}
	return &LevelDB{db: db}, nil
}

// Get returns the committed value of key, or an error matched by IsNotFound.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.db.Get(key, nil)
}

func (ldb *LevelDB) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

// NewBatch starts a batch. Write syncs to disk, so a committed stage survives a crash.
func (ldb *LevelDB) NewBatch() kv.Batch {
	return &batch{db: ldb.db}
}

func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

type batch struct {
	db *leveldb.DB
	b  leveldb.Batch
}

func (b *batch) Put(key, value []byte) error {
	b.b.Put(key, value)
	return nil
}

func (b *batch) Delete(key []byte) error {
	b.b.Delete(key)
	return nil
}

func (b *batch) Write() error {
	return b.db.Write(&b.b, &opt.WriteOptions{Sync: true})
}
