// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the key value store surface the engine state is persisted on.
package kv

// Getter reads committed values.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) (value []byte, err error)
	IsNotFound(error) bool
}

// Putter stages writes.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Batch collects writes applied atomically by Write.
type Batch interface {
	Putter
	Write() error
}

// Store reads directly and writes only through batches.
type Store interface {
	Getter
	NewBatch() Batch
}

// StoreCloser is a Store owning its resources.
type StoreCloser interface {
	Store
	Close() error
}
