// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

func newTestSimulation(t *testing.T, yaml string) (*simulation, *logdb.LogDB, *logdb.Writer) {
	sc, err := parseScenario([]byte(yaml))
	require.NoError(t, err)

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	writer := logDB.NewWriter()
	sim := newSimulation(sc, state.New(db), writer.Write)
	require.NoError(t, sim.setup())
	return sim, logDB, writer
}

func TestSimulation(t *testing.T) {
	sim, logDB, writer := newTestSimulation(t, testScenario)

	var sessions []uint32
	require.NoError(t, sim.run(context.Background(), func(session uint32) error {
		sessions = append(sessions, session)
		require.NoError(t, writer.Commit())
		return sim.state.Stage().Commit()
	}))
	require.NoError(t, writer.Commit())
	assert.Equal(t, []uint32{1, 2, 3, 4}, sessions)

	require.Len(t, sim.reports, 4)
	for _, r := range sim.reports {
		assert.Equal(t, big.NewInt(1000), r.Issuance)
		assert.Equal(t, big.NewInt(1000), r.Distributed)
	}

	alice := position{"alice", "native-usdc"}
	usdc := sim.tokens["usdc"]
	assert.Equal(t, big.NewInt(3000), sim.claimed[alice][mining.NativeToken])
	assert.Equal(t, big.NewInt(400), sim.claimed[alice][usdc])

	bob, err := accountAddress("bob")
	require.NoError(t, err)
	claimable, err := sim.engine.CalculateRewardsAmount(bob, sim.tokens["native-usdc"])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), claimable)

	schedulesLimit := sim.engine.SchedulesLimit()
	assert.Equal(t, uint32(3), schedulesLimit)

	kind := pos.RewardsClaimed
	claims, err := logDB.FilterEvents(context.Background(), &logdb.EventFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, claims, 2)
	for _, ev := range claims {
		assert.Equal(t, uint32(4), ev.Session)
	}

	var out bytes.Buffer
	require.NoError(t, sim.report(&out))
	report := out.String()
	assert.Contains(t, report, "sessions:    4")
	assert.Contains(t, report, "distributed: 4000")
	assert.Contains(t, report, "alice")
	assert.Contains(t, report, "carol")
	assert.Contains(t, report, "usdc")
}

func TestSimulationOnExistingState(t *testing.T) {
	sim, _, _ := newTestSimulation(t, testScenario)
	require.NoError(t, sim.run(context.Background(), nil))

	again := newSimulation(sim.scenario, sim.state, nil)
	err := again.setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already holds 4 sessions")
}

func TestSimulationExpectations(t *testing.T) {
	base := `
sessions: 1
endowments: [{token: native, to: treasury, amount: 100}]
tokens: [{name: x, owner: treasury, supply: 100}]
pools: [{name: lp, base: native, quote: x, creator: treasury, baseAmount: 10, quoteAmount: 10}]
`
	tests := []struct {
		name string
		ops  string
		err  string
	}{
		{"unexpected failure", "operations: [{op: activate, account: treasury, pool: lp, amount: 5}]", "not a promoted pool"},
		{"missing failure", "operations: [{op: promote, pool: lp, weight: 1, expect: boom}]", "expected error \"boom\""},
		{"other failure", "operations: [{op: activate, account: treasury, pool: lp, amount: 5, expect: boom}]", "got"},
		{"schedule to token", "operations: [{op: schedule, account: treasury, pool: x, token: x, amount: 5, sessions: 1}]", "is not a pool"},
		{"expected failure", "operations: [{op: activate, account: treasury, pool: lp, amount: 5, expect: not a promoted pool}]", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, _, _ := newTestSimulation(t, base+tt.ops)
			err := sim.run(context.Background(), nil)
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestSimulationCanceled(t *testing.T) {
	sim, _, _ := newTestSimulation(t, testScenario)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.run(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sim.reports)
}
