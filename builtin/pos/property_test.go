// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/mining"
)

type randomOp struct {
	Kind    uint8
	Account uint8
	Pool    uint8
	Amount  uint16
	Weight  uint8
}

// TestRandomSequences drives random operations and checks the stake sum and conservation
// invariants after each of them. Only revert errors are tolerated.
func TestRandomSequences(t *testing.T) {
	for seed := int64(1); seed <= 8; seed++ {
		var ops []randomOp
		fuzz.NewWithSeed(seed).NilChance(0).NumElements(150, 150).Fuzz(&ops)

		env := newEnv(t, mining.DefaultParams())
		accounts := []mining.Address{alice, bob, carol}
		var pairs []mining.Pair
		var pools []mining.TokenID
		for range 3 {
			pair, pool := env.createPool(t, accounts...)
			pairs = append(pairs, pair)
			pools = append(pools, pool)
		}
		require.NoError(t, env.pos.UpdatePoolPromotion(pools[0], 1))

		for i, op := range ops {
			account := accounts[int(op.Account)%len(accounts)]
			idx := int(op.Pool) % len(pools)
			pool := pools[idx]
			amount := big.NewInt(int64(op.Amount%400) + 1)

			var err error
			switch op.Kind % 7 {
			case 0, 1:
				err = env.pos.ActivateLiquidity(account, pool, amount, nil)
			case 2:
				err = env.pos.DeactivateLiquidity(account, pool, amount)
			case 3:
				_, err = env.pos.ClaimRewardsAll(account, pool)
			case 4:
				current, cerr := env.pos.CurrentSession()
				require.NoError(t, cerr)
				_, err = env.pos.OnSessionStart(current+1, big.NewInt(int64(op.Amount)))
			case 5:
				err = env.pos.UpdatePoolPromotion(pool, op.Weight%4)
			case 6:
				_, err = env.pos.RewardPool(treasury, pairs[idx], pairs[(idx+1)%len(pairs)].Quote, amount, uint32(op.Weight%5)+1)
			}
			if err != nil {
				require.True(t, reverts.IsRevertErr(err), "seed %d op %d: %v", seed, i, err)
			}
			require.NoError(t, env.pos.CheckInvariants(), "seed %d op %d", seed, i)
		}

		// everything claimed afterwards never exceeds what was apportioned
		for _, pool := range pools {
			for _, account := range accounts {
				_, err := env.pos.ClaimRewardsAll(account, pool)
				require.NoError(t, err)
				for _, token := range []mining.TokenID{mining.NativeToken, pairs[0].Quote, pairs[1].Quote, pairs[2].Quote} {
					left, err := env.pos.CalculateRewardsAmountFor(account, pool, token)
					require.NoError(t, err)
					assert.Equal(t, 0, left.Sign())
				}
			}
		}
		require.NoError(t, env.pos.CheckInvariants())
	}
}
