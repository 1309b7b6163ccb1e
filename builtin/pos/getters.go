// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/pos/promotion"
	"github.com/vechain/liquidity-mining/builtin/pos/rewards"
	"github.com/vechain/liquidity-mining/builtin/pos/schedule"
	"github.com/vechain/liquidity-mining/mining"
)

// StreamInfo is the state of the reward stream of one token in a pool.
type StreamInfo struct {
	Token        mining.TokenID
	Accumulator  fixedpoint.Value
	PendingCarry *big.Int
	Apportioned  *big.Int
}

// PoolInfo is the view of a pool.
type PoolInfo struct {
	Weight         uint8
	TotalActivated *big.Int
	Streams        []*StreamInfo
}

// RewardsInfo is the view of a stake position on the native reward stream.
type RewardsInfo struct {
	Activated  *big.Int
	Checkpoint fixedpoint.Value
	Accrued    *big.Int
}

// ScheduleInfo is a schedule together with its id.
type ScheduleInfo struct {
	ID schedule.ID
	*schedule.Schedule
}

// IsEnabled reports whether pool receives native issuance.
func (p *PoS) IsEnabled(pool mining.TokenID) (bool, error) {
	return p.promotionService.IsEnabled(pool)
}

// EnabledPools returns the promoted pools in ascending order.
func (p *PoS) EnabledPools() ([]mining.TokenID, error) {
	var pools []mining.TokenID
	err := p.promotionService.EnabledPools(func(pool mining.TokenID, _ *promotion.Pool) error {
		pools = append(pools, pool)
		return nil
	})
	return pools, err
}

// GetPool returns the pool with all its reward streams.
func (p *PoS) GetPool(pool mining.TokenID) (*PoolInfo, error) {
	pl, err := p.promotionService.GetPool(pool)
	if err != nil {
		return nil, err
	}
	total, err := p.stakesService.TotalActivated(pool)
	if err != nil {
		return nil, err
	}
	info := &PoolInfo{Weight: pl.Weight, TotalActivated: total}
	for _, token := range pl.RewardTokens {
		st, err := p.rewardsService.GetStream(pool, token)
		if err != nil {
			return nil, err
		}
		info.Streams = append(info.Streams, &StreamInfo{
			Token:        token,
			Accumulator:  st.Accumulator,
			PendingCarry: st.PendingCarry,
			Apportioned:  st.Apportioned,
		})
	}
	return info, nil
}

// GetRewardsInfo returns the native stream position of account in pool as last settled.
func (p *PoS) GetRewardsInfo(account mining.Address, pool mining.TokenID) (*RewardsInfo, error) {
	activated, err := p.stakesService.GetActivated(account, pool)
	if err != nil {
		return nil, err
	}
	info, err := p.rewardsService.GetInfo(account, pool, mining.NativeToken)
	if err != nil {
		return nil, err
	}
	return &RewardsInfo{Activated: activated, Checkpoint: info.Checkpoint, Accrued: info.Accrued}, nil
}

// GetActivated returns the activated stake of account in pool.
func (p *PoS) GetActivated(account mining.Address, pool mining.TokenID) (*big.Int, error) {
	return p.stakesService.GetActivated(account, pool)
}

// CalculateRewardsAmount returns the native rewards account could claim from pool right now.
func (p *PoS) CalculateRewardsAmount(account mining.Address, pool mining.TokenID) (*big.Int, error) {
	return p.CalculateRewardsAmountFor(account, pool, mining.NativeToken)
}

// CalculateRewardsAmountFor returns the claimable rewards of account in pool paid in token.
func (p *PoS) CalculateRewardsAmountFor(account mining.Address, pool, token mining.TokenID) (*big.Int, error) {
	activated, err := p.stakesService.GetActivated(account, pool)
	if err != nil {
		return nil, err
	}
	return p.rewardsService.Pending(account, pool, token, activated)
}

// GetSchedules returns the schedule ledger, oldest first. Expired schedules not yet evicted are included.
func (p *PoS) GetSchedules() ([]*ScheduleInfo, error) {
	var out []*ScheduleInfo
	err := p.scheduleService.Iter(func(id schedule.ID, sched *schedule.Schedule) error {
		out = append(out, &ScheduleInfo{ID: id, Schedule: sched})
		return nil
	})
	return out, err
}

// SchedulesLimit returns the capacity of the schedule ledger.
func (p *PoS) SchedulesLimit() uint32 {
	return p.schedulesLimit.Get(p.sctx)
}

// CurrentSession returns the last session apportioned, zero before the first one.
func (p *PoS) CurrentSession() (uint32, error) {
	return p.session.Get()
}

// Totals returns the apportioned and claimed amounts of token.
func (p *PoS) Totals(token mining.TokenID) (*rewards.Totals, error) {
	return p.rewardsService.GetTotals(token)
}

// RewardTokens returns every token ever apportioned, in first-apportionment order.
func (p *PoS) RewardTokens() ([]mining.TokenID, error) {
	var tokens []mining.TokenID
	err := p.rewardsService.Tokens(func(token mining.TokenID) error {
		tokens = append(tokens, token)
		return nil
	})
	return tokens, err
}
