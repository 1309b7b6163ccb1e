// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/stackedmap"
)

// Stage abstracts changes of storage slots not yet written to the kv store.
type Stage struct {
	state   *State
	changes map[storageKey]rlp.RawValue
	order   []storageKey
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.order)
}

// Commit writes all changes into the kv store in a single batch.
// Empty values delete the slot. Checkpoints taken before Commit are invalidated.
func (s *Stage) Commit() error {
	batch := s.state.db.NewBatch()
	putter := StorageBucket.NewPutter(batch)
	for _, key := range s.order {
		val := s.changes[key]
		var err error
		if len(val) == 0 {
			err = putter.Delete(key.dbKey())
		} else {
			err = putter.Put(key.dbKey(), val)
		}
		if err != nil {
			return errors.Wrap(err, "stage storage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit storage")
	}
	for _, key := range s.order {
		s.state.cache.Add(key, s.changes[key])
	}
	metricCommitSlots().Add(int64(len(s.order)))
	// committed changes now live in the cache, start a fresh journal
	s.state.sm = stackedmap.New(s.state.cacheGetter)
	return nil
}
