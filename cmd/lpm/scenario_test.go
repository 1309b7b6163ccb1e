// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/mining"
)

const testScenario = `
sessions: 4
params:
  schedulesLimit: 3
issuance:
  totalCap: 8000
  linearIssuanceSessions: 4
  liquidityMiningSplit: 50
endowments:
  - token: native
    to: treasury
    amount: 1_000_000
tokens:
  - name: usdc
    owner: treasury
    supply: "0xf4240"
pools:
  - name: native-usdc
    base: native
    quote: usdc
    creator: treasury
    baseAmount: 2000
    quoteAmount: 2000
    weight: 10
transfers:
  - token: native-usdc
    from: treasury
    to: alice
    amount: 1000
  - token: native-usdc
    from: treasury
    to: bob
    amount: 1000
operations:
  - after: 0
    op: activate
    account: alice
    pool: native-usdc
    amount: 1000
  - after: 0
    op: schedule
    account: treasury
    pool: native-usdc
    token: usdc
    amount: 400
    sessions: 2
  - after: 2
    op: activate
    account: bob
    pool: native-usdc
    amount: 1000
  - after: 2
    op: activate
    account: carol
    pool: native-usdc
    amount: 1
    expect: external ledger failure
  - after: 4
    op: claim
    account: alice
    pool: native-usdc
`

func TestParseScenario(t *testing.T) {
	sc, err := parseScenario([]byte(testScenario))
	require.NoError(t, err)

	assert.Equal(t, uint32(4), sc.Sessions)
	assert.Len(t, sc.Operations, 5)
	assert.Equal(t, big.NewInt(1_000_000), sc.Tokens[0].Supply.value())
	assert.Equal(t, big.NewInt(1_000_000), sc.Endowments[0].Amount.value())

	params := sc.params()
	assert.Equal(t, uint32(3), params.RewardsSchedulesLimit)
	assert.Equal(t, mining.DefaultParams().MaxScheduleSessions, params.MaxScheduleSessions)

	config := sc.issuanceConfig()
	assert.Equal(t, big.NewInt(8000), config.TotalCap)
	assert.Equal(t, uint32(4), config.LinearIssuanceSessions)
	assert.Equal(t, uint8(50), config.LiquidityMiningSplit)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testScenario), 0o600))

	sc, err := loadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "native-usdc", sc.Pools[0].Name)

	_, err = loadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInvalidScenario(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"bad amount", "tokens: [{name: a, owner: x, supply: abc}]", "invalid amount"},
		{"negative amount", "tokens: [{name: a, owner: x, supply: -1}]", "invalid amount"},
		{"non scalar amount", "tokens: [{name: a, owner: x, supply: [1]}]", "must be a scalar"},
		{"duplicate name", "tokens: [{name: a, owner: x}, {name: a, owner: y}]", "already used"},
		{"native name", "tokens: [{name: native, owner: x}]", "already used"},
		{"unknown pair", "pools: [{name: p, base: native, quote: b}]", "unknown pair"},
		{"unknown transfer token", "transfers: [{token: z, from: a, to: b, amount: 1}]", "unknown token"},
		{"unknown op", "operations: [{op: dance}]", "unknown op"},
		{"op beyond sessions", "sessions: 1\noperations: [{op: claim, after: 2}]", "beyond the last session"},
		{"unknown op pool", "operations: [{op: claim, pool: p}]", "unknown pool"},
		{"malformed", "sessions: [", "decode scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestAccountAddress(t *testing.T) {
	addr, err := accountAddress("alice")
	require.NoError(t, err)
	assert.Equal(t, mining.BytesToAddress([]byte("alice")), addr)

	hex := "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
	addr, err = accountAddress(hex)
	require.NoError(t, err)
	assert.Equal(t, mining.MustParseAddress(hex), addr)

	_, err = accountAddress("0xnothex")
	assert.Error(t, err)
	_, err = accountAddress("")
	assert.Error(t, err)
}
