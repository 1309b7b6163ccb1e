// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/vechain/liquidity-mining/mining"
)

type EventKind string

const (
	PoolPromotionUpdated EventKind = "PoolPromotionUpdated"
	LiquidityActivated   EventKind = "LiquidityActivated"
	LiquidityDeactivated EventKind = "LiquidityDeactivated"
	RewardsClaimed       EventKind = "RewardsClaimed"
	RewardsScheduled     EventKind = "RewardsScheduled"
	ScheduleEvicted      EventKind = "ScheduleEvicted"
	SessionApportioned   EventKind = "SessionApportioned"
)

// Event is emitted by a successful engine operation.
// Fields not relevant to the kind are left zero.
type Event struct {
	Kind       EventKind
	Session    uint32
	Account    mining.Address
	Pool       mining.TokenID
	Token      mining.TokenID
	Amount     *big.Int
	Weight     uint8
	ScheduleID uint64
	Sessions   uint32
}

// EventSink receives the events of every successful operation, in emission order.
type EventSink func(events []*Event)
