// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package promotion

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/mining"
)

var (
	slotPools        = mining.BytesToBytes32([]byte("pools"))
	slotEnabledHead  = mining.BytesToBytes32([]byte("pools-enabled-head"))
	slotEnabledTail  = mining.BytesToBytes32([]byte("pools-enabled-tail"))
	slotEnabledCount = mining.BytesToBytes32([]byte("pools-enabled-count"))
	slotTotalWeight  = mining.BytesToBytes32([]byte("pools-total-weight"))
)

// Pool is the promotion record of a liquidity pool, keyed by its liquidity token.
// Records are never deleted, a weight of zero disables the pool.
type Pool struct {
	Weight uint8
	// RewardTokens lists every token a reward stream was opened for, in opening order.
	RewardTokens []mining.TokenID
}

// HasRewardToken reports whether a stream of token was opened for the pool.
func (p *Pool) HasRewardToken(token mining.TokenID) bool {
	for _, t := range p.RewardTokens {
		if t == token {
			return true
		}
	}
	return false
}

// Service is the pool promotion registry.
// Enabled pools are linked in ascending id order so apportionment iterates deterministically.
type Service struct {
	pools       *solidity.Mapping[mining.TokenID, *Pool]
	enabled     *solidity.LinkedList[mining.TokenID]
	totalWeight *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		pools:       solidity.NewMapping[mining.TokenID, *Pool](sctx, slotPools),
		enabled:     solidity.NewLinkedList[mining.TokenID](sctx, slotEnabledHead, slotEnabledTail, slotEnabledCount),
		totalWeight: solidity.NewUint256(sctx, slotTotalWeight),
	}
}

func ascending(a, b mining.TokenID) bool { return a < b }

// GetPool returns the pool record, an empty record when the pool was never touched.
func (s *Service) GetPool(pool mining.TokenID) (*Pool, error) {
	p, err := s.pools.Get(pool)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	return p, nil
}

// SetPromotion sets the weight of pool, linking or unlinking it from the enabled list.
// Stake positions and reward streams are not touched.
func (s *Service) SetPromotion(pool mining.TokenID, weight uint8) error {
	p, err := s.GetPool(pool)
	if err != nil {
		return err
	}
	if err := s.totalWeight.Sub(big.NewInt(int64(p.Weight))); err != nil {
		return errors.Wrap(err, "failed to update total weight")
	}
	if err := s.totalWeight.Add(big.NewInt(int64(weight))); err != nil {
		return errors.Wrap(err, "failed to update total weight")
	}

	switch {
	case weight == 0 && p.Weight > 0:
		if err := s.enabled.Remove(pool); err != nil {
			return errors.Wrap(err, "failed to unlink pool")
		}
	case weight > 0 && p.Weight == 0:
		if err := s.enabled.InsertSorted(pool, ascending); err != nil {
			return errors.Wrap(err, "failed to link pool")
		}
	}

	p.Weight = weight
	if err := s.pools.Set(pool, p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// AddRewardToken records that a reward stream of token exists for pool.
func (s *Service) AddRewardToken(pool, token mining.TokenID) error {
	p, err := s.GetPool(pool)
	if err != nil {
		return err
	}
	if p.HasRewardToken(token) {
		return nil
	}
	p.RewardTokens = append(p.RewardTokens, token)
	if err := s.pools.Set(pool, p); err != nil {
		return errors.Wrap(err, "failed to set pool")
	}
	return nil
}

// IsEnabled reports whether pool has a positive weight.
func (s *Service) IsEnabled(pool mining.TokenID) (bool, error) {
	p, err := s.GetPool(pool)
	if err != nil {
		return false, err
	}
	return p.Weight > 0, nil
}

// TotalWeight returns the sum of the weights of all enabled pools.
func (s *Service) TotalWeight() (*big.Int, error) {
	return s.totalWeight.Get()
}

// EnabledPools visits every enabled pool in ascending id order.
func (s *Service) EnabledPools(cb func(pool mining.TokenID, p *Pool) error) error {
	return s.enabled.Iter(func(pool mining.TokenID) error {
		p, err := s.GetPool(pool)
		if err != nil {
			return err
		}
		return cb(pool, p)
	})
}

// EnabledCount returns the number of enabled pools.
func (s *Service) EnabledCount() (uint64, error) {
	return s.enabled.Len()
}
