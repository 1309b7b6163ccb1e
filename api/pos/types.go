// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/mining"
)

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		return nil
	}
	return (*math.HexOrDecimal256)(new(big.Int).Set(v))
}

type Stream struct {
	Token        mining.TokenID        `json:"token"`
	Accumulator  *math.HexOrDecimal256 `json:"accumulator"`
	PendingCarry *math.HexOrDecimal256 `json:"pendingCarry"`
	Apportioned  *math.HexOrDecimal256 `json:"apportioned"`
}

type Pool struct {
	Pool           mining.TokenID        `json:"pool"`
	Enabled        bool                  `json:"enabled"`
	Weight         uint8                 `json:"weight"`
	TotalActivated *math.HexOrDecimal256 `json:"totalActivated"`
	Streams        []*Stream             `json:"streams"`
}

func convertPool(id mining.TokenID, info *pos.PoolInfo) *Pool {
	pool := &Pool{
		Pool:           id,
		Enabled:        info.Weight > 0,
		Weight:         info.Weight,
		TotalActivated: hexOrDecimal(info.TotalActivated),
		Streams:        make([]*Stream, 0, len(info.Streams)),
	}
	for _, st := range info.Streams {
		pool.Streams = append(pool.Streams, &Stream{
			Token:        st.Token,
			Accumulator:  hexOrDecimal(st.Accumulator.Big()),
			PendingCarry: hexOrDecimal(st.PendingCarry),
			Apportioned:  hexOrDecimal(st.Apportioned),
		})
	}
	return pool
}

type Reward struct {
	Token     mining.TokenID        `json:"token"`
	Claimable *math.HexOrDecimal256 `json:"claimable"`
}

type Account struct {
	Account   mining.Address        `json:"account"`
	Pool      mining.TokenID        `json:"pool"`
	Activated *math.HexOrDecimal256 `json:"activated"`
	Rewards   []*Reward             `json:"rewards"`
}

type Schedule struct {
	ID          uint64                `json:"id"`
	Pool        mining.TokenID        `json:"pool"`
	RewardToken mining.TokenID        `json:"rewardToken"`
	Scheduler   mining.Address        `json:"scheduler"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	PerSession  *math.HexOrDecimal256 `json:"perSession"`
	Sessions    uint32                `json:"sessions"`
	Remaining   uint32                `json:"remaining"`
	CreatedAt   uint32                `json:"createdAt"`
	Expired     bool                  `json:"expired"`
}

func convertSchedule(info *pos.ScheduleInfo) *Schedule {
	return &Schedule{
		ID:          uint64(info.ID),
		Pool:        info.Pool,
		RewardToken: info.RewardToken,
		Scheduler:   info.Scheduler,
		Amount:      hexOrDecimal(info.Amount),
		PerSession:  hexOrDecimal(info.PerSession),
		Sessions:    info.Sessions,
		Remaining:   info.Remaining,
		CreatedAt:   info.CreatedAt,
		Expired:     info.Expired(),
	}
}

type Totals struct {
	Token       mining.TokenID        `json:"token"`
	Apportioned *math.HexOrDecimal256 `json:"apportioned"`
	Claimed     *math.HexOrDecimal256 `json:"claimed"`
}

type Session struct {
	Session        uint32           `json:"session"`
	SchedulesLimit uint32           `json:"schedulesLimit"`
	EnabledPools   []mining.TokenID `json:"enabledPools"`
	Totals         []*Totals        `json:"totals"`
}

type Event struct {
	Kind       pos.EventKind         `json:"kind"`
	Session    uint32                `json:"session"`
	Index      uint32                `json:"index"`
	Account    *mining.Address       `json:"account,omitempty"`
	Pool       mining.TokenID        `json:"pool"`
	Token      mining.TokenID        `json:"token"`
	Amount     *math.HexOrDecimal256 `json:"amount,omitempty"`
	Weight     uint8                 `json:"weight,omitempty"`
	ScheduleID uint64                `json:"scheduleID,omitempty"`
	Sessions   uint32                `json:"sessions,omitempty"`
}

// ConvertEvent converts a stored event to its JSON form.
func ConvertEvent(ev *logdb.Event) *Event {
	out := &Event{
		Kind:       ev.Kind,
		Session:    ev.Session,
		Index:      ev.Index,
		Pool:       ev.Pool,
		Token:      ev.Token,
		Amount:     hexOrDecimal(ev.Amount),
		Weight:     ev.Weight,
		ScheduleID: ev.ScheduleID,
		Sessions:   ev.Sessions,
	}
	if !ev.Account.IsZero() {
		account := ev.Account
		out.Account = &account
	}
	return out
}
