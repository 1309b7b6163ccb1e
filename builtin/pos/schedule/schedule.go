// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"encoding/binary"
	"math/big"

	"github.com/vechain/liquidity-mining/mining"
)

// ID is the sequential identifier of a schedule, starting at 1.
type ID uint64

func (id ID) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b[:]
}

// Schedule is a fixed amount of a token streamed to a pool over a number of sessions.
type Schedule struct {
	Pool        mining.TokenID
	RewardToken mining.TokenID
	Scheduler   mining.Address
	Amount      *big.Int
	PerSession  *big.Int
	// Remainder of Amount / Sessions, paid with the last emission.
	Remainder *big.Int
	Sessions  uint32
	Remaining uint32
	CreatedAt uint32
}

// Expired reports whether every emission was handed out.
func (s *Schedule) Expired() bool {
	return s.Remaining == 0
}

// Emission returns what the next maturation hands out.
func (s *Schedule) Emission() *big.Int {
	if s.Remaining == 0 {
		return new(big.Int)
	}
	if s.Remaining == 1 {
		return new(big.Int).Add(s.PerSession, s.Remainder)
	}
	return new(big.Int).Set(s.PerSession)
}

// Emitted returns the amount already handed out.
func (s *Schedule) Emitted() *big.Int {
	emitted := new(big.Int).Mul(s.PerSession, big.NewInt(int64(s.Sessions-s.Remaining)))
	if s.Remaining == 0 {
		emitted.Add(emitted, s.Remainder)
	}
	return emitted
}
