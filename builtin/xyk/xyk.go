// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package xyk registers constant product pools and resolves pairs to their liquidity token.
// Swaps are not supported.
package xyk

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/builtin/tokens"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var (
	ErrNoSuchPool  = errors.New("no such pool")
	ErrPoolExists  = errors.New("pool already exists")
	ErrInvalidPair = errors.New("invalid pair")

	slotPairs = mining.BytesToBytes32([]byte("xyk-pairs"))
	slotPools = mining.BytesToBytes32([]byte("xyk-pools"))
)

// Pool is a registered pool, keyed by its liquidity token.
type Pool struct {
	Base         mining.TokenID
	Quote        mining.TokenID
	BaseReserve  *big.Int
	QuoteReserve *big.Int
}

// Registry holds the pools and their reserves.
type Registry struct {
	addr   mining.Address
	ledger *tokens.Ledger
	// pairs maps both orders of a pair to the liquidity token.
	pairs *solidity.Mapping[mining.Pair, mining.TokenID]
	pools *solidity.Mapping[mining.TokenID, *Pool]
}

func New(addr mining.Address, state *state.State, ledger *tokens.Ledger) *Registry {
	sctx := solidity.NewContext(addr, state)
	return &Registry{
		addr:   addr,
		ledger: ledger,
		pairs:  solidity.NewMapping[mining.Pair, mining.TokenID](sctx, slotPairs),
		pools:  solidity.NewMapping[mining.TokenID, *Pool](sctx, slotPools),
	}
}

// CreatePool moves the initial reserves from account into the registry and mints
// (baseAmount + quoteAmount) / 2 liquidity tokens to account.
func (r *Registry) CreatePool(
	account mining.Address,
	base mining.TokenID,
	baseAmount *big.Int,
	quote mining.TokenID,
	quoteAmount *big.Int,
) (mining.TokenID, error) {
	if base == quote {
		return 0, errors.WithMessagef(ErrInvalidPair, "%v/%v", base, quote)
	}
	if baseAmount == nil || baseAmount.Sign() <= 0 || quoteAmount == nil || quoteAmount.Sign() <= 0 {
		return 0, errors.WithMessage(tokens.ErrInvalidAmount, "reserves must be positive")
	}
	existing, err := r.pairs.Get(mining.Pair{Base: base, Quote: quote})
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pair")
	}
	if existing != 0 {
		return 0, errors.WithMessagef(ErrPoolExists, "%v/%v", base, quote)
	}

	if err := r.ledger.Transfer(base, account, r.addr, baseAmount); err != nil {
		return 0, errors.WithMessage(err, "base reserve")
	}
	if err := r.ledger.Transfer(quote, account, r.addr, quoteAmount); err != nil {
		return 0, errors.WithMessage(err, "quote reserve")
	}
	minted := new(big.Int).Add(baseAmount, quoteAmount)
	minted.Rsh(minted, 1)
	liquidity, err := r.ledger.Create(account, minted)
	if err != nil {
		return 0, errors.WithMessage(err, "liquidity token")
	}

	for _, pair := range []mining.Pair{{Base: base, Quote: quote}, {Base: quote, Quote: base}} {
		if err := r.pairs.Set(pair, liquidity); err != nil {
			return 0, errors.Wrap(err, "failed to set pair")
		}
	}
	if err := r.pools.Set(liquidity, &Pool{
		Base:         base,
		Quote:        quote,
		BaseReserve:  new(big.Int).Set(baseAmount),
		QuoteReserve: new(big.Int).Set(quoteAmount),
	}); err != nil {
		return 0, errors.Wrap(err, "failed to set pool")
	}
	return liquidity, nil
}

// GetLiquidityAsset returns the liquidity token of the pool of base and quote, in either order.
func (r *Registry) GetLiquidityAsset(base, quote mining.TokenID) (mining.TokenID, error) {
	liquidity, err := r.pairs.Get(mining.Pair{Base: base, Quote: quote})
	if err != nil {
		return 0, errors.Wrap(err, "failed to get pair")
	}
	if liquidity == 0 {
		return 0, errors.WithMessagef(ErrNoSuchPool, "%v/%v", base, quote)
	}
	return liquidity, nil
}

// GetPool returns the pool of a liquidity token.
func (r *Registry) GetPool(liquidity mining.TokenID) (*Pool, error) {
	ok, err := r.pools.Exists(liquidity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool")
	}
	if !ok {
		return nil, errors.WithMessagef(ErrNoSuchPool, "liquidity token %v", liquidity)
	}
	return r.pools.Get(liquidity)
}
