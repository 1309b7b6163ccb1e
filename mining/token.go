// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mining

import (
	"encoding/binary"
	"strconv"
)

// TokenID identifies an asset in the token ledger.
// A liquidity pool is identified by the id of its liquidity token.
type TokenID uint32

// String implements the stringer interface
func (t TokenID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// Bytes returns the big-endian form, used as mapping key.
func (t TokenID) Bytes() []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(t))
	return b[:]
}

// ParseTokenID parses a decimal token id.
func ParseTokenID(s string) (TokenID, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return TokenID(n), nil
}

// Pair is an ordered (base, quote) token pair of a liquidity pool.
type Pair struct {
	Base  TokenID
	Quote TokenID
}

// Bytes returns the key form of the pair.
func (p Pair) Bytes() []byte {
	return append(p.Base.Bytes(), p.Quote.Bytes()...)
}
