// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tokens

import (
	"math/big"

	"github.com/vechain/liquidity-mining/mining"
)

type accountKey struct {
	token   mining.TokenID
	account mining.Address
}

func (k accountKey) Bytes() []byte {
	return append(k.token.Bytes(), k.account.Bytes()...)
}

// account is the balance of an account in one token.
type account struct {
	Free     *big.Int
	Reserved *big.Int
}

func (a *account) normalize() *account {
	if a.Free == nil {
		a.Free = new(big.Int)
	}
	if a.Reserved == nil {
		a.Reserved = new(big.Int)
	}
	return a
}
