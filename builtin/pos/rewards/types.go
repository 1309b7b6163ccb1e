// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/mining"
)

// StreamKey identifies the rewards of one token paid to one pool.
type StreamKey struct {
	Pool  mining.TokenID
	Token mining.TokenID
}

func (k StreamKey) Bytes() []byte {
	return append(k.Pool.Bytes(), k.Token.Bytes()...)
}

// Stream is the cumulative rewards-per-share accumulator of a (pool, token) pair.
type Stream struct {
	Accumulator fixedpoint.Value
	// PendingCarry holds rewards credited while the pool had no stake.
	PendingCarry *big.Int
	// Apportioned is everything ever credited to the stream, carry included.
	Apportioned *big.Int
}

// InfoKey identifies the settlement record of an account for one stream.
type InfoKey struct {
	Account mining.Address
	Pool    mining.TokenID
	Token   mining.TokenID
}

func (k InfoKey) Bytes() []byte {
	return append(append(k.Account.Bytes(), k.Pool.Bytes()...), k.Token.Bytes()...)
}

// Info is the lazily settled reward state of an account for one stream.
type Info struct {
	// Checkpoint is the stream accumulator at the last settlement.
	Checkpoint fixedpoint.Value
	// Accrued is settled but not yet claimed.
	Accrued *big.Int
}

// Totals are the engine wide amounts of a reward token.
type Totals struct {
	Apportioned *big.Int
	Claimed     *big.Int
}
