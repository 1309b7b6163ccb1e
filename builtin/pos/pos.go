// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pos implements the liquidity mining rewards engine.
// Stake is activated per pool, native issuance and scheduled rewards are apportioned to pools at
// session boundaries and every account settles lazily against a rewards-per-share accumulator.
package pos

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/pos/promotion"
	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/builtin/pos/rewards"
	"github.com/vechain/liquidity-mining/builtin/pos/schedule"
	"github.com/vechain/liquidity-mining/builtin/pos/stakes"
	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var (
	logger = log.WithContext("pkg", "pos")

	slotSession = mining.BytesToBytes32([]byte("pos-session"))
)

// PoS implements the rewards engine on top of the builtin state.
// The builtin address doubles as the vault holding every reward not yet claimed.
type PoS struct {
	addr      mining.Address
	state     *state.State
	sctx      *solidity.Context
	ledger    Ledger
	valuation Valuation
	params    mining.Params

	promotionService *promotion.Service
	stakesService    *stakes.Service
	rewardsService   *rewards.Service
	scheduleService  *schedule.Service

	session        *solidity.Raw[uint32]
	schedulesLimit *solidity.ConfigVariable

	sink    EventSink
	current uint32
	pending []*Event
}

// New create a new instance.
func New(addr mining.Address, st *state.State, ledger Ledger, valuation Valuation, params mining.Params) *PoS {
	sctx := solidity.NewContext(addr, st)
	return &PoS{
		addr:      addr,
		state:     st,
		sctx:      sctx,
		ledger:    ledger,
		valuation: valuation,
		params:    params,

		promotionService: promotion.New(sctx),
		stakesService:    stakes.New(sctx),
		rewardsService:   rewards.New(sctx),
		scheduleService:  schedule.New(sctx),

		session:        solidity.NewRaw[uint32](sctx, slotSession),
		schedulesLimit: solidity.NewConfigVariable("pos-rewards-schedules-limit", params.RewardsSchedulesLimit),
	}
}

// WithEvents sets the sink receiving the events of successful operations.
func (p *PoS) WithEvents(sink EventSink) *PoS {
	p.sink = sink
	return p
}

// Address returns the engine address, which holds the reward vault.
func (p *PoS) Address() mining.Address {
	return p.addr
}

// atomic runs fn inside a state checkpoint. On error every write of fn is reverted and its events dropped.
func (p *PoS) atomic(op string, fn func() error) error {
	checkpoint := p.state.NewCheckpoint()
	p.pending = nil

	err := p.loadSession()
	if err == nil {
		err = fn()
	}
	observeOp(op, err)
	if err != nil {
		p.state.RevertTo(checkpoint)
		p.pending = nil
		return err
	}
	if p.sink != nil && len(p.pending) > 0 {
		p.sink(p.pending)
	}
	p.pending = nil
	return nil
}

func (p *PoS) loadSession() error {
	current, err := p.session.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get session")
	}
	p.current = current
	return nil
}

func (p *PoS) emit(ev *Event) {
	ev.Session = p.current
	p.pending = append(p.pending, ev)
}

// settle brings every reward stream of the position up to date. It returns the pool and the activated stake.
func (p *PoS) settle(account mining.Address, pool mining.TokenID) (*promotion.Pool, *big.Int, error) {
	pl, err := p.promotionService.GetPool(pool)
	if err != nil {
		return nil, nil, err
	}
	activated, err := p.stakesService.GetActivated(account, pool)
	if err != nil {
		return nil, nil, err
	}
	for _, token := range pl.RewardTokens {
		if _, err := p.rewardsService.Settle(account, pool, token, activated); err != nil {
			return nil, nil, errors.WithMessagef(err, "settle token %v", token)
		}
	}
	return pl, activated, nil
}

// rewarded reports whether stake in pool can earn anything: the pool is promoted,
// a live schedule targets it, or one of its streams carries rewards.
func (p *PoS) rewarded(pool mining.TokenID) (bool, error) {
	pl, err := p.promotionService.GetPool(pool)
	if err != nil {
		return false, err
	}
	if pl.Weight > 0 {
		return true, nil
	}
	live := false
	if err := p.scheduleService.Iter(func(_ schedule.ID, sched *schedule.Schedule) error {
		if sched.Pool == pool && !sched.Expired() {
			live = true
		}
		return nil
	}); err != nil {
		return false, err
	}
	if live {
		return true, nil
	}
	for _, token := range pl.RewardTokens {
		st, err := p.rewardsService.GetStream(pool, token)
		if err != nil {
			return false, err
		}
		if st.PendingCarry.Sign() > 0 {
			return true, nil
		}
	}
	return false, nil
}

func positive(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}

//
// Setters - state change
//

// UpdatePoolPromotion sets the promotion weight of pool. Weight zero stops its native issuance.
func (p *PoS) UpdatePoolPromotion(pool mining.TokenID, weight uint8) error {
	logger.Debug("updating pool promotion", "pool", pool, "weight", weight)

	err := p.atomic("update_promotion", func() error {
		if pool == 0 {
			return errors.WithMessage(reverts.ErrInvalidInput, "pool id zero")
		}
		if err := p.promotionService.SetPromotion(pool, weight); err != nil {
			return err
		}
		if weight > 0 {
			if err := p.promotionService.AddRewardToken(pool, mining.NativeToken); err != nil {
				return err
			}
		}
		count, err := p.promotionService.EnabledCount()
		if err != nil {
			return err
		}
		metricEnabledPools().Set(int64(count))
		p.emit(&Event{Kind: PoolPromotionUpdated, Pool: pool, Weight: weight})
		return nil
	})
	if err != nil {
		logger.Info("update pool promotion failed", "pool", pool, "error", err)
		return err
	}

	logger.Info("updated pool promotion", "pool", pool, "weight", weight)
	return nil
}

// SetSchedulesLimit overrides the capacity of the schedule ledger, zero restores the configured default.
// Lowering it below the current count only takes effect as expired schedules get evicted.
func (p *PoS) SetSchedulesLimit(limit uint32) error {
	return p.atomic("set_schedules_limit", func() error {
		p.schedulesLimit.Override(p.sctx, limit)
		return nil
	})
}

// ActivateLiquidity locks amount of the pool's liquidity token of account and starts accruing rewards on it.
// A nil kind means AvailableBalance.
func (p *PoS) ActivateLiquidity(account mining.Address, pool mining.TokenID, amount *big.Int, kind *ActivateKind) error {
	logger.Debug("activating liquidity", "account", account, "pool", pool, "amount", amount)

	err := p.atomic("activate", func() error {
		if !positive(amount) {
			return errors.WithMessage(reverts.ErrInvalidInput, "amount must be positive")
		}
		if kind != nil && *kind != AvailableBalance {
			return errors.WithMessagef(reverts.ErrInvalidInput, "unsupported activate kind %v", *kind)
		}
		rewarded, err := p.rewarded(pool)
		if err != nil {
			return err
		}
		if !rewarded {
			return errors.WithMessagef(reverts.ErrNotAPromotedPool, "pool %v", pool)
		}
		if _, _, err := p.settle(account, pool); err != nil {
			return err
		}
		if err := p.stakesService.Activate(account, pool, amount); err != nil {
			return err
		}
		if err := p.ledger.Reserve(pool, account, amount); err != nil {
			return ledgerFailure(err, "reserve")
		}
		p.emit(&Event{Kind: LiquidityActivated, Account: account, Pool: pool, Token: pool, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		logger.Info("activate liquidity failed", "account", account, "pool", pool, "error", err)
		return err
	}

	logger.Info("activated liquidity", "account", account, "pool", pool, "amount", amount)
	return nil
}

// DeactivateLiquidity unlocks amount of the activated stake. Rewards accrued so far stay claimable.
func (p *PoS) DeactivateLiquidity(account mining.Address, pool mining.TokenID, amount *big.Int) error {
	logger.Debug("deactivating liquidity", "account", account, "pool", pool, "amount", amount)

	err := p.atomic("deactivate", func() error {
		if !positive(amount) {
			return errors.WithMessage(reverts.ErrInvalidInput, "amount must be positive")
		}
		if _, _, err := p.settle(account, pool); err != nil {
			return err
		}
		if err := p.stakesService.Deactivate(account, pool, amount); err != nil {
			return err
		}
		if err := p.ledger.Unreserve(pool, account, amount); err != nil {
			return ledgerFailure(err, "unreserve")
		}
		p.emit(&Event{Kind: LiquidityDeactivated, Account: account, Pool: pool, Token: pool, Amount: new(big.Int).Set(amount)})
		return nil
	})
	if err != nil {
		logger.Info("deactivate liquidity failed", "account", account, "pool", pool, "error", err)
		return err
	}

	logger.Info("deactivated liquidity", "account", account, "pool", pool, "amount", amount)
	return nil
}

// ClaimRewardsAll pays every reward of account in pool out of the vault, one transfer per token.
// Nothing to claim is not an error.
func (p *PoS) ClaimRewardsAll(account mining.Address, pool mining.TokenID) (map[mining.TokenID]*big.Int, error) {
	logger.Debug("claiming rewards", "account", account, "pool", pool)

	claimed := make(map[mining.TokenID]*big.Int)
	err := p.atomic("claim", func() error {
		pl, _, err := p.settle(account, pool)
		if err != nil {
			return err
		}
		for _, token := range pl.RewardTokens {
			amount, err := p.rewardsService.Claim(account, pool, token)
			if err != nil {
				return err
			}
			if amount.Sign() == 0 {
				continue
			}
			if err := p.ledger.Transfer(token, p.addr, account, amount); err != nil {
				return ledgerFailure(err, "pay rewards")
			}
			claimed[token] = amount
			p.emit(&Event{Kind: RewardsClaimed, Account: account, Pool: pool, Token: token, Amount: new(big.Int).Set(amount)})
		}
		return nil
	})
	if err != nil {
		logger.Info("claim rewards failed", "account", account, "pool", pool, "error", err)
		return nil, err
	}

	logger.Info("claimed rewards", "account", account, "pool", pool, "tokens", len(claimed))
	return claimed, nil
}

// RewardPool schedules amount of token to the liquidity pool of pair, paid out evenly over sessions.
// The whole amount is escrowed into the vault from account.
func (p *PoS) RewardPool(
	account mining.Address,
	pair mining.Pair,
	token mining.TokenID,
	amount *big.Int,
	sessions uint32,
) (schedule.ID, error) {
	logger.Debug("scheduling rewards", "account", account, "base", pair.Base, "quote", pair.Quote,
		"token", token, "amount", amount, "sessions", sessions)

	var id schedule.ID
	err := p.atomic("reward_pool", func() error {
		if !positive(amount) || sessions == 0 {
			return errors.WithMessage(reverts.ErrInvalidInput, "amount and sessions must be positive")
		}
		if _, err := fixedpoint.CheckBalance(amount); err != nil {
			return err
		}
		if limit := p.params.MaxScheduleSessions; limit > 0 && sessions > limit {
			return errors.WithMessagef(reverts.ErrInvalidInput, "sessions %d above %d", sessions, limit)
		}
		if floor := p.params.MinRewardsPerSession; floor != nil && floor.Sign() > 0 {
			if perSession := new(big.Int).Quo(amount, big.NewInt(int64(sessions))); perSession.Cmp(floor) < 0 {
				return errors.WithMessagef(reverts.ErrInvalidInput, "rewards per session %v below %v", perSession, floor)
			}
		}
		pool, err := p.valuation.GetLiquidityAsset(pair.Base, pair.Quote)
		if err != nil {
			return errors.WithMessagef(reverts.ErrInvalidInput, "no liquidity asset for %v/%v: %v", pair.Base, pair.Quote, err)
		}
		if pool == 0 {
			return errors.WithMessage(reverts.ErrInvalidInput, "pool id zero")
		}

		var evicted []schedule.ID
		id, evicted, err = p.scheduleService.Add(account, pool, token, amount, sessions, p.current, p.schedulesLimit.Get(p.sctx))
		if err != nil {
			return err
		}
		for _, e := range evicted {
			p.emit(&Event{Kind: ScheduleEvicted, ScheduleID: uint64(e)})
		}
		if err := p.ledger.Transfer(token, account, p.addr, amount); err != nil {
			return ledgerFailure(err, "escrow rewards")
		}
		p.emit(&Event{
			Kind:       RewardsScheduled,
			Account:    account,
			Pool:       pool,
			Token:      token,
			Amount:     new(big.Int).Set(amount),
			ScheduleID: uint64(id),
			Sessions:   sessions,
		})

		count, err := p.scheduleService.Len()
		if err != nil {
			return err
		}
		metricSchedules().Set(int64(count))
		return nil
	})
	if err != nil {
		logger.Info("schedule rewards failed", "account", account, "error", err)
		return 0, err
	}

	logger.Info("scheduled rewards", "id", id, "account", account, "token", token, "amount", amount)
	return id, nil
}
