// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/mining"
)

var (
	slotPositions         = mining.BytesToBytes32([]byte("stake-positions"))
	slotTotals            = mining.BytesToBytes32([]byte("stake-totals"))
	slotParticipantsHead  = mining.BytesToBytes32([]byte("stake-participants-head"))
	slotParticipantsTail  = mining.BytesToBytes32([]byte("stake-participants-tail"))
	slotParticipantsCount = mining.BytesToBytes32([]byte("stake-participants-count"))
	slotPoolsHead         = mining.BytesToBytes32([]byte("stake-pools-head"))
	slotPoolsTail         = mining.BytesToBytes32([]byte("stake-pools-tail"))
	slotPoolsCount        = mining.BytesToBytes32([]byte("stake-pools-count"))
)

// PositionKey identifies the stake of an account in a pool.
type PositionKey struct {
	Account mining.Address
	Pool    mining.TokenID
}

func (k PositionKey) Bytes() []byte {
	return append(k.Account.Bytes(), k.Pool.Bytes()...)
}

// Service is the stake ledger: activated amounts per (account, pool) and their per-pool totals.
type Service struct {
	sctx      *solidity.Context
	positions *solidity.Mapping[PositionKey, *big.Int]
	totals    *solidity.Mapping[mining.TokenID, *big.Int]
	pools     *solidity.LinkedList[mining.TokenID]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		sctx:      sctx,
		positions: solidity.NewMapping[PositionKey, *big.Int](sctx, slotPositions),
		totals:    solidity.NewMapping[mining.TokenID, *big.Int](sctx, slotTotals),
		pools:     solidity.NewLinkedList[mining.TokenID](sctx, slotPoolsHead, slotPoolsTail, slotPoolsCount),
	}
}

// participants lists every account that ever activated in pool, in first-activation order.
func (s *Service) participants(pool mining.TokenID) *solidity.LinkedList[mining.Address] {
	return solidity.NewLinkedList[mining.Address](s.sctx,
		mining.Blake2b(pool.Bytes(), slotParticipantsHead.Bytes()),
		mining.Blake2b(pool.Bytes(), slotParticipantsTail.Bytes()),
		mining.Blake2b(pool.Bytes(), slotParticipantsCount.Bytes()),
	)
}

// GetActivated returns the activated stake of account in pool.
func (s *Service) GetActivated(account mining.Address, pool mining.TokenID) (*big.Int, error) {
	v, err := s.positions.Get(PositionKey{account, pool})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get position")
	}
	return v, nil
}

// TotalActivated returns the sum of all positions in pool.
func (s *Service) TotalActivated(pool mining.TokenID) (*big.Int, error) {
	v, err := s.totals.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool total")
	}
	return v, nil
}

// Activate adds amount to the position and the pool total.
func (s *Service) Activate(account mining.Address, pool mining.TokenID, amount *big.Int) error {
	activated, err := s.GetActivated(account, pool)
	if err != nil {
		return err
	}
	total, err := s.TotalActivated(pool)
	if err != nil {
		return err
	}
	if activated, err = fixedpoint.Add(activated, amount); err != nil {
		return err
	}
	if total, err = fixedpoint.Add(total, amount); err != nil {
		return err
	}

	list := s.participants(pool)
	known, err := list.Contains(account)
	if err != nil {
		return err
	}
	if !known {
		if err := list.Add(account); err != nil {
			return errors.Wrap(err, "failed to add participant")
		}
		n, err := list.Len()
		if err != nil {
			return err
		}
		if n == 1 {
			if err := s.pools.Add(pool); err != nil {
				return errors.Wrap(err, "failed to add pool")
			}
		}
	}
	return s.set(account, pool, activated, total)
}

// Deactivate removes amount from the position and the pool total.
func (s *Service) Deactivate(account mining.Address, pool mining.TokenID, amount *big.Int) error {
	activated, err := s.GetActivated(account, pool)
	if err != nil {
		return err
	}
	if activated.Cmp(amount) < 0 {
		return errors.WithMessagef(reverts.ErrInsufficientActivatedStake, "activated %v, requested %v", activated, amount)
	}
	total, err := s.TotalActivated(pool)
	if err != nil {
		return err
	}
	if activated, err = fixedpoint.Sub(activated, amount); err != nil {
		return err
	}
	if total, err = fixedpoint.Sub(total, amount); err != nil {
		return errors.Wrap(err, "pool total below position")
	}
	return s.set(account, pool, activated, total)
}

func (s *Service) set(account mining.Address, pool mining.TokenID, activated, total *big.Int) error {
	if err := s.positions.Set(PositionKey{account, pool}, activated); err != nil {
		return errors.Wrap(err, "failed to set position")
	}
	if err := s.totals.Set(pool, total); err != nil {
		return errors.Wrap(err, "failed to set pool total")
	}
	return nil
}

// Participants visits every account that ever activated in pool. Zero positions are included.
func (s *Service) Participants(pool mining.TokenID, cb func(account mining.Address, activated *big.Int) error) error {
	return s.participants(pool).Iter(func(account mining.Address) error {
		activated, err := s.GetActivated(account, pool)
		if err != nil {
			return err
		}
		return cb(account, activated)
	})
}

// Pools visits every pool that ever had an activation, in first-activation order.
func (s *Service) Pools(cb func(pool mining.TokenID) error) error {
	return s.pools.Iter(cb)
}
