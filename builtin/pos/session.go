// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/pos/promotion"
	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/builtin/pos/rewards"
	"github.com/vechain/liquidity-mining/builtin/pos/schedule"
	"github.com/vechain/liquidity-mining/mining"
)

// PoolReward is what one reward stream received at a session boundary.
type PoolReward struct {
	Pool   mining.TokenID
	Token  mining.TokenID
	Amount *big.Int
	// Carried is set when the pool had no stake and the reward waits for the first activation.
	Carried bool
}

// SessionReport summarizes the apportionment of a session.
type SessionReport struct {
	Session     uint32
	Issuance    *big.Int
	Distributed *big.Int
	// Undistributed is the native issuance not apportioned: rounding dust, or all of it with no enabled pool.
	Undistributed *big.Int
	Rewards       []*PoolReward
	Matured       int
	Flushed       []rewards.StreamKey
}

// OnSessionStart apportions the native issuance of session to the enabled pools by weight and matures
// the reward schedules. Sessions must be reported in sequence, starting at 1.
func (p *PoS) OnSessionStart(session uint32, issuance *big.Int) (*SessionReport, error) {
	logger.Debug("session started", "session", session, "issuance", issuance)
	start := time.Now()
	if issuance == nil {
		issuance = new(big.Int)
	}

	var report *SessionReport
	err := p.atomic("session", func() error {
		if session != p.current+1 {
			return errors.WithMessagef(reverts.ErrSessionOutOfOrder, "expected session %d, got %d", p.current+1, session)
		}
		if issuance.Sign() < 0 {
			return errors.WithMessage(reverts.ErrInvalidInput, "negative issuance")
		}
		if _, err := fixedpoint.CheckBalance(issuance); err != nil {
			return err
		}
		if err := p.session.Set(session); err != nil {
			return errors.Wrap(err, "failed to set session")
		}
		p.current = session

		var err error
		report, err = p.apportion(session, issuance)
		return err
	})
	if err != nil {
		logger.Info("session apportionment failed", "session", session, "error", err)
		return nil, err
	}

	metricSessions().Add(1)
	metricApportionMillis().Observe(time.Since(start).Milliseconds())
	logger.Info("session apportioned", "session", session,
		"distributed", report.Distributed, "undistributed", report.Undistributed,
		"streams", len(report.Rewards), "matured", report.Matured)
	return report, nil
}

func (p *PoS) apportion(session uint32, issuance *big.Int) (*SessionReport, error) {
	report := &SessionReport{
		Session:     session,
		Issuance:    new(big.Int).Set(issuance),
		Distributed: new(big.Int),
	}
	index := make(map[rewards.StreamKey]*PoolReward)
	add := func(pool, token mining.TokenID, amount *big.Int) {
		key := rewards.StreamKey{Pool: pool, Token: token}
		if r, ok := index[key]; ok {
			r.Amount.Add(r.Amount, amount)
			return
		}
		r := &PoolReward{Pool: pool, Token: token, Amount: new(big.Int).Set(amount)}
		index[key] = r
		report.Rewards = append(report.Rewards, r)
	}

	totalWeight, err := p.promotionService.TotalWeight()
	if err != nil {
		return nil, err
	}
	if totalWeight.Sign() > 0 && issuance.Sign() > 0 {
		if err := p.promotionService.EnabledPools(func(pool mining.TokenID, pl *promotion.Pool) error {
			share, err := fixedpoint.MulDiv(issuance, big.NewInt(int64(pl.Weight)), totalWeight)
			if err != nil {
				return err
			}
			if share.Sign() > 0 {
				report.Distributed.Add(report.Distributed, share)
				add(pool, mining.NativeToken, share)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := p.scheduleService.Mature(func(_ schedule.ID, sched *schedule.Schedule, emission *big.Int) error {
		report.Matured++
		if emission.Sign() > 0 {
			add(sched.Pool, sched.RewardToken, emission)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, r := range report.Rewards {
		total, err := p.stakesService.TotalActivated(r.Pool)
		if err != nil {
			return nil, err
		}
		if err := p.promotionService.AddRewardToken(r.Pool, r.Token); err != nil {
			return nil, err
		}
		if _, err := p.rewardsService.Credit(r.Pool, r.Token, r.Amount, total); err != nil {
			return nil, errors.WithMessagef(err, "credit pool %v token %v", r.Pool, r.Token)
		}
		r.Carried = total.Sign() == 0
	}

	if report.Flushed, err = p.rewardsService.FlushCarry(p.stakesService.TotalActivated); err != nil {
		return nil, err
	}

	report.Undistributed = new(big.Int).Sub(issuance, report.Distributed)
	if report.Distributed.Sign() > 0 {
		if err := p.ledger.Mint(mining.NativeToken, p.addr, report.Distributed); err != nil {
			return nil, ledgerFailure(err, "mint issuance")
		}
	}
	p.emit(&Event{Kind: SessionApportioned, Token: mining.NativeToken, Amount: new(big.Int).Set(report.Distributed)})
	return report, nil
}
