// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package promotion

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

func newSvc(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(mining.Address{1}, state.New(db)))
}

func enabledPools(t *testing.T, svc *Service) []mining.TokenID {
	var ids []mining.TokenID
	require.NoError(t, svc.EnabledPools(func(id mining.TokenID, _ *Pool) error {
		ids = append(ids, id)
		return nil
	}))
	return ids
}

func TestSetPromotion(t *testing.T) {
	svc := newSvc(t)

	enabled, err := svc.IsEnabled(4)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, svc.SetPromotion(4, 1))
	require.NoError(t, svc.SetPromotion(2, 3))
	require.NoError(t, svc.SetPromotion(9, 1))
	assert.Equal(t, []mining.TokenID{2, 4, 9}, enabledPools(t, svc))

	total, err := svc.TotalWeight()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), total)

	// re-weighting keeps position
	require.NoError(t, svc.SetPromotion(4, 10))
	assert.Equal(t, []mining.TokenID{2, 4, 9}, enabledPools(t, svc))
	total, err = svc.TotalWeight()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(14), total)

	// disable
	require.NoError(t, svc.SetPromotion(2, 0))
	assert.Equal(t, []mining.TokenID{4, 9}, enabledPools(t, svc))
	enabled, err = svc.IsEnabled(2)
	require.NoError(t, err)
	assert.False(t, enabled)
	count, err := svc.EnabledCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	// disabling twice is harmless
	require.NoError(t, svc.SetPromotion(2, 0))
	total, err = svc.TotalWeight()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(11), total)
}

func TestAddRewardToken(t *testing.T) {
	svc := newSvc(t)
	require.NoError(t, svc.AddRewardToken(3, mining.NativeToken))
	require.NoError(t, svc.AddRewardToken(3, 7))
	require.NoError(t, svc.AddRewardToken(3, mining.NativeToken))

	p, err := svc.GetPool(3)
	require.NoError(t, err)
	assert.Equal(t, []mining.TokenID{mining.NativeToken, 7}, p.RewardTokens)
	assert.True(t, p.HasRewardToken(7))
	assert.False(t, p.HasRewardToken(8))
	assert.Equal(t, uint8(0), p.Weight)
}
