// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package xyk

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/tokens"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var alice = mining.BytesToAddress([]byte("alice"))

func setup(t *testing.T) (*Registry, *tokens.Ledger) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db)
	ledger := tokens.New(mining.BytesToAddress([]byte("Tokens")), st)
	return New(mining.BytesToAddress([]byte("XYK")), st, ledger), ledger
}

func TestCreatePool(t *testing.T) {
	reg, ledger := setup(t)
	require.NoError(t, ledger.Mint(mining.NativeToken, alice, big.NewInt(1000)))
	other, err := ledger.Create(alice, big.NewInt(500))
	require.NoError(t, err)

	liquidity, err := reg.CreatePool(alice, mining.NativeToken, big.NewInt(400), other, big.NewInt(201))
	require.NoError(t, err)
	assert.Equal(t, mining.TokenID(2), liquidity)

	minted, err := ledger.FreeBalance(liquidity, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(300), minted)

	left, err := ledger.FreeBalance(mining.NativeToken, alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(600), left)

	for _, pair := range [][2]mining.TokenID{{mining.NativeToken, other}, {other, mining.NativeToken}} {
		id, err := reg.GetLiquidityAsset(pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, liquidity, id)
	}

	pool, err := reg.GetPool(liquidity)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(201), pool.QuoteReserve)

	_, err = reg.CreatePool(alice, other, big.NewInt(1), mining.NativeToken, big.NewInt(1))
	assert.ErrorIs(t, err, ErrPoolExists)
}

func TestCreatePoolErrors(t *testing.T) {
	reg, ledger := setup(t)
	require.NoError(t, ledger.Mint(mining.NativeToken, alice, big.NewInt(10)))
	other, err := ledger.Create(alice, big.NewInt(10))
	require.NoError(t, err)

	_, err = reg.CreatePool(alice, other, big.NewInt(1), other, big.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidPair)

	_, err = reg.CreatePool(alice, mining.NativeToken, big.NewInt(0), other, big.NewInt(1))
	assert.ErrorIs(t, err, tokens.ErrInvalidAmount)

	_, err = reg.CreatePool(alice, mining.NativeToken, big.NewInt(11), other, big.NewInt(1))
	assert.ErrorIs(t, err, tokens.ErrInsufficientBalance)

	_, err = reg.GetLiquidityAsset(mining.NativeToken, 7)
	assert.ErrorIs(t, err, ErrNoSuchPool)
	_, err = reg.GetPool(7)
	assert.ErrorIs(t, err, ErrNoSuchPool)
}
