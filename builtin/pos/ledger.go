// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/mining"
)

// Ledger is the multi-token balance ledger the engine moves funds through.
type Ledger interface {
	FreeBalance(token mining.TokenID, account mining.Address) (*big.Int, error)
	ReservedBalance(token mining.TokenID, account mining.Address) (*big.Int, error)
	TotalIssuance(token mining.TokenID) (*big.Int, error)
	Transfer(token mining.TokenID, from, to mining.Address, amount *big.Int) error
	Mint(token mining.TokenID, to mining.Address, amount *big.Int) error
	Burn(token mining.TokenID, from mining.Address, amount *big.Int) error
	// Reserve moves amount of the free balance of account into its reserved balance.
	Reserve(token mining.TokenID, account mining.Address, amount *big.Int) error
	Unreserve(token mining.TokenID, account mining.Address, amount *big.Int) error
}

// Valuation resolves trading pairs to their liquidity token.
type Valuation interface {
	GetLiquidityAsset(base, quote mining.TokenID) (mining.TokenID, error)
}

// ActivateKind is the source of the tokens an activation locks.
type ActivateKind uint8

const (
	AvailableBalance ActivateKind = iota
	StakedUnactivatedReserves
	UnspentReserves
)

func (k ActivateKind) String() string {
	switch k {
	case AvailableBalance:
		return "AvailableBalance"
	case StakedUnactivatedReserves:
		return "StakedUnactivatedReserves"
	case UnspentReserves:
		return "UnspentReserves"
	default:
		return "Unknown"
	}
}

func ledgerFailure(err error, op string) error {
	return errors.WithMessagef(reverts.ErrExternalLedgerFailure, "%s: %v", op, err)
}
