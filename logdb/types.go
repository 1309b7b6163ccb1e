// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/mining"
)

// Event is an engine event as stored in the db.
type Event struct {
	// Index is the position of the event within its session.
	Index uint32
	*pos.Event
}

// Range is an inclusive range of sessions.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// EventFilter selects events. Nil fields match everything.
type EventFilter struct {
	Range   *Range
	Account *mining.Address
	Pool    *mining.TokenID
	Kind    *pos.EventKind
	Options *Options
	Order   Order
}
