// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/liquidity-mining/cache"
	"github.com/vechain/liquidity-mining/kv"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/stackedmap"
)

// StorageBucket is the kv bucket holding storage slots.
const StorageBucket = kv.Bucket("s")

const defaultCacheSize = 4096

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr mining.Address
	key  mining.Bytes32
}

func (k storageKey) dbKey() []byte {
	return append(k.addr.Bytes(), k.key.Bytes()...)
}

// State manages the storage of builtin contracts.
type State struct {
	db     kv.Store
	getter kv.Getter
	cache  *cache.LRU             // cache of committed slots
	sm     *stackedmap.StackedMap // keeps revisions of storage
}

// New create state object over the given kv store.
func New(db kv.Store) *State {
	c, _ := cache.NewLRU(defaultCacheSize)
	state := State{
		db:     db,
		getter: StorageBucket.NewGetter(db),
		cache:  c,
	}
	state.sm = stackedmap.New(state.cacheGetter)
	return &state
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	k, ok := key.(storageKey)
	if !ok {
		panic(fmt.Errorf("unexpected key type %+v", key))
	}
	v, err := s.cache.GetOrLoad(k, func(any) (any, error) {
		metricStorageAccess().AddWithLabel(1, map[string]string{"source": "db"})
		data, err := s.getter.Get(k.dbKey())
		if err != nil {
			if s.getter.IsNotFound(err) {
				return rlp.RawValue(nil), nil
			}
			return nil, err
		}
		return rlp.RawValue(data), nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr mining.Address, key mining.Bytes32) (mining.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return mining.Bytes32{}, err
	}
	if len(raw) == 0 {
		return mining.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return mining.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// customized storage value, return hash of raw data
		return mining.Blake2b(raw), nil
	}
	return mining.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr mining.Address, key, value mining.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr mining.Address, key mining.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr mining.Address, key mining.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// Error returned by enc will be absorbed by State instance.
func (s *State) EncodeStorage(addr mining.Address, key mining.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// Error returned by dec will be absorbed by State instance.
func (s *State) DecodeStorage(addr mining.Address, key mining.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
	if s.sm.Depth() == 0 {
		s.sm.Push()
	}
}

// CacheHitRate returns the hit rate of the committed slots cache.
func (s *State) CacheHitRate() float64 {
	return s.cache.Stats().HitRate()
}

// Stage makes a stage object to commit all changes.
func (s *State) Stage() *Stage {
	changes := make(map[storageKey]rlp.RawValue)
	var order []storageKey
	s.sm.Journal(func(k, v any) bool {
		key := k.(storageKey)
		if _, ok := changes[key]; !ok {
			order = append(order, key)
		}
		changes[key] = v.(rlp.RawValue)
		return true
	})
	return &Stage{state: s, changes: changes, order: order}
}
