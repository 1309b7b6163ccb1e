// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package fixedpoint implements the rewards-per-share accumulator arithmetic.
// Accumulators are unsigned 256-bit integers scaled by Precision, balances are bounded to 128 bits.
// Every division rounds down, so dust stays in the engine and is never over-paid.
package fixedpoint

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
)

// Precision is the scale of accumulator values.
var Precision = uint256.NewInt(1_000_000_000_000_000_000)

// MaxBalance is the largest amount of any balance, 2^128 - 1.
var MaxBalance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Value is a rewards-per-share accumulator.
type Value struct {
	v uint256.Int
}

// FromBig converts x into a Value, failing when x does not fit.
func FromBig(x *big.Int) (Value, error) {
	var v Value
	if x.Sign() < 0 || v.v.SetFromBig(x) {
		return Value{}, reverts.ErrArithmeticOverflow
	}
	return v, nil
}

// Big returns the raw scaled integer.
func (v Value) Big() *big.Int {
	return v.v.ToBig()
}

func (v Value) String() string {
	return v.v.Dec()
}

// IsZero reports whether v is zero.
func (v Value) IsZero() bool {
	return v.v.IsZero()
}

// Cmp compares v and o, returning -1, 0 or +1.
func (v Value) Cmp(o Value) int {
	return v.v.Cmp(&o.v)
}

// EncodeRLP implements rlp.Encoder.
func (v Value) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, v.v.ToBig())
}

// DecodeRLP implements rlp.Decoder.
func (v *Value) DecodeRLP(s *rlp.Stream) error {
	x, err := s.BigInt()
	if err != nil {
		return err
	}
	if v.v.SetFromBig(x) {
		return errors.New("accumulator exceeds 256 bits")
	}
	return nil
}

func toUint256(x *big.Int) (*uint256.Int, error) {
	if x.Sign() < 0 {
		return nil, reverts.ErrArithmeticOverflow
	}
	u, overflow := uint256.FromBig(x)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	return u, nil
}

// Accumulate returns acc + reward * Precision / denominator.
func Accumulate(acc Value, reward, denominator *big.Int) (Value, error) {
	if denominator.Sign() == 0 {
		return Value{}, reverts.ErrDivisionByZero
	}
	r, err := toUint256(reward)
	if err != nil {
		return Value{}, err
	}
	d, err := toUint256(denominator)
	if err != nil {
		return Value{}, err
	}
	inc, overflow := new(uint256.Int).MulDivOverflow(r, Precision, d)
	if overflow {
		return Value{}, reverts.ErrArithmeticOverflow
	}
	var out Value
	if _, overflow := out.v.AddOverflow(&acc.v, inc); overflow {
		return Value{}, reverts.ErrArithmeticOverflow
	}
	return out, nil
}

// Settle returns stake * (to - from) / Precision, the reward earned by stake between two accumulator values.
func Settle(stake *big.Int, from, to Value) (*big.Int, error) {
	if to.Cmp(from) < 0 {
		return nil, errors.Wrap(reverts.ErrArithmeticOverflow, "accumulator decreased")
	}
	s, err := toUint256(stake)
	if err != nil {
		return nil, err
	}
	delta := new(uint256.Int).Sub(&to.v, &from.v)
	reward, overflow := new(uint256.Int).MulDivOverflow(s, delta, Precision)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	return CheckBalance(reward.ToBig())
}

// MulDiv returns a * b / c rounded down, bounded to a balance.
func MulDiv(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, reverts.ErrDivisionByZero
	}
	x, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	z, err := toUint256(c)
	if err != nil {
		return nil, err
	}
	r, overflow := new(uint256.Int).MulDivOverflow(x, y, z)
	if overflow {
		return nil, reverts.ErrArithmeticOverflow
	}
	return CheckBalance(r.ToBig())
}

// CheckBalance fails when x is negative or exceeds MaxBalance.
func CheckBalance(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 || x.Cmp(MaxBalance) > 0 {
		return nil, reverts.ErrArithmeticOverflow
	}
	return x, nil
}

// Add returns a + b as a new balance.
func Add(a, b *big.Int) (*big.Int, error) {
	return CheckBalance(new(big.Int).Add(a, b))
}

// Sub returns a - b as a new balance, failing below zero.
func Sub(a, b *big.Int) (*big.Int, error) {
	return CheckBalance(new(big.Int).Sub(a, b))
}
