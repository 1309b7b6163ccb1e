// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/builtin/pos/schedule"
	"github.com/vechain/liquidity-mining/mining"
)

func TestRewardPool(t *testing.T) {
	env := newEnv(t, mining.DefaultParams())
	pair, pool := env.createPool(t, alice, bob)

	require.NoError(t, env.pos.UpdatePoolPromotion(pool, 1))
	require.NoError(t, env.pos.ActivateLiquidity(alice, pool, big.NewInt(100), nil))

	id, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(1000), 3)
	require.NoError(t, err)
	assert.Equal(t, schedule.ID(1), id)
	assert.Equal(t, int64(1000), balance(t, env, pair.Quote, vault))

	for range 3 {
		current, err := env.pos.CurrentSession()
		require.NoError(t, err)
		_, err = env.pos.OnSessionStart(current+1, new(big.Int))
		require.NoError(t, err)
		require.NoError(t, env.pos.CheckInvariants())
	}

	rewards, err := env.pos.CalculateRewardsAmountFor(alice, pool, pair.Quote)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), rewards)

	schedules, err := env.pos.GetSchedules()
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.True(t, schedules[0].Expired())
	assert.Equal(t, pool, schedules[0].Pool)

	claimed, err := env.pos.ClaimRewardsAll(alice, pool)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), claimed[pair.Quote])
	assert.NotContains(t, claimed, mining.NativeToken)
	assert.Equal(t, int64(0), balance(t, env, pair.Quote, vault))
	assert.Equal(t, int64(1000), balance(t, env, pair.Quote, alice))

	info, err := env.pos.GetPool(pool)
	require.NoError(t, err)
	require.Len(t, info.Streams, 2)
	assert.Equal(t, pair.Quote, info.Streams[1].Token)
}

func TestRewardPoolNativeToken(t *testing.T) {
	env := newEnv(t, mining.DefaultParams())
	pair, pool := env.createPool(t, alice)

	require.NoError(t, env.pos.UpdatePoolPromotion(pool, 1))
	require.NoError(t, env.pos.ActivateLiquidity(alice, pool, big.NewInt(10), nil))
	_, err := env.pos.RewardPool(treasury, pair, mining.NativeToken, big.NewInt(60), 2)
	require.NoError(t, err)

	// issuance and the schedule share the native stream
	report, err := env.pos.OnSessionStart(1, big.NewInt(100))
	require.NoError(t, err)
	require.Len(t, report.Rewards, 1)
	assert.Equal(t, big.NewInt(130), report.Rewards[0].Amount)
	assert.Equal(t, 1, report.Matured)

	NewSequence(env).
		AssertRewards(alice, pool, 130).
		Session(0).
		AssertRewards(alice, pool, 160).
		Claim(alice, pool, 160).
		Run(t)
}

func TestRewardPoolToUnpromotedPool(t *testing.T) {
	env := newEnv(t, mining.DefaultParams())
	pair, pool := env.createPool(t, alice)

	_, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(10), 1)
	require.NoError(t, err)
	report, err := env.pos.OnSessionStart(1, nil)
	require.NoError(t, err)
	require.Len(t, report.Rewards, 1)
	assert.True(t, report.Rewards[0].Carried)

	// the schedule expired, the carry still lets stake in without a promotion
	require.NoError(t, env.pos.ActivateLiquidity(alice, pool, big.NewInt(1), nil))
	report, err = env.pos.OnSessionStart(2, nil)
	require.NoError(t, err)
	assert.Equal(t, []rewardsKey{{pool, pair.Quote}}, keys(report))

	rewards, err := env.pos.CalculateRewardsAmountFor(alice, pool, pair.Quote)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), rewards)

	// nothing left to earn
	err = env.pos.ActivateLiquidity(alice, pool, big.NewInt(1), nil)
	assert.ErrorIs(t, err, reverts.ErrNotAPromotedPool)
	require.NoError(t, env.pos.DeactivateLiquidity(alice, pool, big.NewInt(1)))
	require.NoError(t, env.pos.CheckInvariants())
}

func TestActivateInScheduledPool(t *testing.T) {
	env := newEnv(t, mining.DefaultParams())
	pair, pool := env.createPool(t, alice)
	_, other := env.createPool(t, alice)

	_, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(30), 3)
	require.NoError(t, err)

	require.NoError(t, env.pos.ActivateLiquidity(alice, pool, big.NewInt(1), nil))
	err = env.pos.ActivateLiquidity(alice, other, big.NewInt(1), nil)
	assert.ErrorIs(t, err, reverts.ErrNotAPromotedPool)

	report, err := env.pos.OnSessionStart(1, nil)
	require.NoError(t, err)
	require.Len(t, report.Rewards, 1)
	assert.False(t, report.Rewards[0].Carried)

	rewards, err := env.pos.CalculateRewardsAmountFor(alice, pool, pair.Quote)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), rewards)
	require.NoError(t, env.pos.CheckInvariants())
}

type rewardsKey struct {
	pool, token mining.TokenID
}

func keys(report *SessionReport) []rewardsKey {
	var out []rewardsKey
	for _, k := range report.Flushed {
		out = append(out, rewardsKey{k.Pool, k.Token})
	}
	return out
}

func TestRewardPoolValidation(t *testing.T) {
	params := mining.DefaultParams()
	params.MaxScheduleSessions = 10
	params.MinRewardsPerSession = big.NewInt(5)
	env := newEnv(t, params)
	pair, _ := env.createPool(t, alice)

	tests := []struct {
		name     string
		pair     mining.Pair
		amount   *big.Int
		sessions uint32
		err      error
	}{
		{"zero amount", pair, big.NewInt(0), 1, reverts.ErrInvalidInput},
		{"zero sessions", pair, big.NewInt(100), 0, reverts.ErrInvalidInput},
		{"too many sessions", pair, big.NewInt(1000), 11, reverts.ErrInvalidInput},
		{"below min per session", pair, big.NewInt(49), 10, reverts.ErrInvalidInput},
		{"unknown pair", mining.Pair{Base: 0, Quote: 77}, big.NewInt(100), 1, reverts.ErrInvalidInput},
		{"too much", pair, new(big.Int).Lsh(big.NewInt(1), 128), 1, reverts.ErrArithmeticOverflow},
		{"unfunded", pair, new(big.Int).Lsh(big.NewInt(1), 101), 1, reverts.ErrExternalLedgerFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.pos.RewardPool(treasury, tt.pair, mining.NativeToken, tt.amount, tt.sessions)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	schedules, err := env.pos.GetSchedules()
	require.NoError(t, err)
	assert.Empty(t, schedules)

	_, err = env.pos.RewardPool(treasury, pair, mining.NativeToken, big.NewInt(50), 10)
	require.NoError(t, err)
}

func TestScheduleLimitAndEviction(t *testing.T) {
	params := mining.DefaultParams()
	params.RewardsSchedulesLimit = 3
	env := newEnv(t, params)
	pair, pool := env.createPool(t, alice)
	require.NoError(t, env.pos.UpdatePoolPromotion(pool, 1))
	require.NoError(t, env.pos.ActivateLiquidity(alice, pool, big.NewInt(1), nil))

	schedule := func(sessions uint32) error {
		_, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(100), sessions)
		return err
	}
	require.NoError(t, schedule(1))
	require.NoError(t, schedule(5))
	require.NoError(t, schedule(5))
	assert.ErrorIs(t, schedule(5), reverts.ErrScheduleLimitReached)
	assert.Equal(t, int64(300), balance(t, env, pair.Quote, vault))

	_, err := env.pos.OnSessionStart(1, nil)
	require.NoError(t, err)

	env.events = nil
	require.NoError(t, schedule(5))
	evicted := env.eventsOf(ScheduleEvicted)
	require.Len(t, evicted, 1)
	assert.Equal(t, uint64(1), evicted[0].ScheduleID)

	schedules, err := env.pos.GetSchedules()
	require.NoError(t, err)
	assert.Len(t, schedules, 3)
	assert.ErrorIs(t, schedule(5), reverts.ErrScheduleLimitReached)
	require.NoError(t, env.pos.CheckInvariants())
}

func TestLoweredSchedulesLimit(t *testing.T) {
	env := newEnv(t, mining.DefaultParams())
	pair, _ := env.createPool(t, alice)
	assert.Equal(t, uint32(10), env.pos.SchedulesLimit())

	for range 4 {
		_, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(10), 1)
		require.NoError(t, err)
	}
	require.NoError(t, env.pos.SetSchedulesLimit(2))
	assert.Equal(t, uint32(2), env.pos.SchedulesLimit())

	_, err := env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(10), 1)
	assert.ErrorIs(t, err, reverts.ErrScheduleLimitReached)

	_, err = env.pos.OnSessionStart(1, nil)
	require.NoError(t, err)
	_, err = env.pos.RewardPool(treasury, pair, pair.Quote, big.NewInt(10), 1)
	require.NoError(t, err)

	schedules, err := env.pos.GetSchedules()
	require.NoError(t, err)
	assert.Len(t, schedules, 2)

	require.NoError(t, env.pos.SetSchedulesLimit(0))
	assert.Equal(t, uint32(10), env.pos.SchedulesLimit())
}
