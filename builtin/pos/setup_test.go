// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/tokens"
	"github.com/vechain/liquidity-mining/builtin/xyk"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var (
	vault     = mining.BytesToAddress([]byte("PoS"))
	alice     = mining.BytesToAddress([]byte("alice"))
	bob       = mining.BytesToAddress([]byte("bob"))
	carol     = mining.BytesToAddress([]byte("carol"))
	treasury  = mining.BytesToAddress([]byte("treasury"))
	endowment = new(big.Int).Lsh(big.NewInt(1), 100)
)

type testEnv struct {
	state    *state.State
	ledger   *tokens.Ledger
	registry *xyk.Registry
	faults   *faultyLedger
	pos      *PoS
	events   []*Event
}

// faultyLedger fails the ledger operations named in fail.
type faultyLedger struct {
	Ledger
	fail map[string]bool
}

var errLedgerDown = errors.New("ledger down")

func (f *faultyLedger) Transfer(token mining.TokenID, from, to mining.Address, amount *big.Int) error {
	if f.fail["transfer"] {
		return errLedgerDown
	}
	return f.Ledger.Transfer(token, from, to, amount)
}

func (f *faultyLedger) Mint(token mining.TokenID, to mining.Address, amount *big.Int) error {
	if f.fail["mint"] {
		return errLedgerDown
	}
	return f.Ledger.Mint(token, to, amount)
}

func (f *faultyLedger) Unreserve(token mining.TokenID, account mining.Address, amount *big.Int) error {
	if f.fail["unreserve"] {
		return errLedgerDown
	}
	return f.Ledger.Unreserve(token, account, amount)
}

func newEnv(t *testing.T, params mining.Params) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	env := &testEnv{state: st}
	env.ledger = tokens.New(mining.BytesToAddress([]byte("Tokens")), st)
	env.registry = xyk.New(mining.BytesToAddress([]byte("XYK")), st, env.ledger)
	env.faults = &faultyLedger{Ledger: env.ledger, fail: make(map[string]bool)}
	env.pos = New(vault, st, env.faults, env.registry, params).WithEvents(func(events []*Event) {
		env.events = append(env.events, events...)
	})
	return env
}

// createPool creates a pool of the native token against a new token and hands the liquidity
// out to accounts, 1000 each. It returns the pair and its liquidity token.
func (e *testEnv) createPool(t *testing.T, accounts ...mining.Address) (mining.Pair, mining.TokenID) {
	require.NoError(t, e.ledger.Mint(mining.NativeToken, treasury, endowment))
	quote, err := e.ledger.Create(treasury, endowment)
	require.NoError(t, err)

	amount := big.NewInt(int64(1000 * len(accounts)))
	liquidity, err := e.registry.CreatePool(treasury, mining.NativeToken, amount, quote, amount)
	require.NoError(t, err)
	for _, acc := range accounts {
		require.NoError(t, e.ledger.Transfer(liquidity, treasury, acc, big.NewInt(1000)))
	}
	return mining.Pair{Base: mining.NativeToken, Quote: quote}, liquidity
}

func (e *testEnv) eventsOf(kind EventKind) []*Event {
	var out []*Event
	for _, ev := range e.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) Promote(pool mining.TokenID, weight uint8) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.pos.UpdatePoolPromotion(pool, weight); err != nil {
			t.Fatalf("failed to promote pool %v: %v", pool, err)
		}
	})
}

func (st *TestSequence) Activate(account mining.Address, pool mining.TokenID, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.pos.ActivateLiquidity(account, pool, big.NewInt(amount), nil); err != nil {
			t.Fatalf("failed to activate %d for %s: %v", amount, account, err)
		}
		t.Logf("activated %d for %s in pool %v", amount, account, pool)
	})
}

func (st *TestSequence) Deactivate(account mining.Address, pool mining.TokenID, amount int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.pos.DeactivateLiquidity(account, pool, big.NewInt(amount)); err != nil {
			t.Fatalf("failed to deactivate %d for %s: %v", amount, account, err)
		}
		t.Logf("deactivated %d for %s in pool %v", amount, account, pool)
	})
}

func (st *TestSequence) Session(issuance int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		current, err := st.env.pos.CurrentSession()
		require.NoError(t, err)
		report, err := st.env.pos.OnSessionStart(current+1, big.NewInt(issuance))
		if err != nil {
			t.Fatalf("failed to start session %d: %v", current+1, err)
		}
		t.Logf("session %d distributed %v", report.Session, report.Distributed)
	})
}

func (st *TestSequence) AssertRewards(account mining.Address, pool mining.TokenID, expected int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		amount, err := st.env.pos.CalculateRewardsAmount(account, pool)
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(expected).String(), amount.String(), "rewards of %s", account)
	})
}

func (st *TestSequence) Claim(account mining.Address, pool mining.TokenID, expected int64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		claimed, err := st.env.pos.ClaimRewardsAll(account, pool)
		if err != nil {
			t.Fatalf("failed to claim for %s: %v", account, err)
		}
		got := claimed[mining.NativeToken]
		if got == nil {
			got = new(big.Int)
		}
		assert.Equal(t, big.NewInt(expected).String(), got.String(), "claimed by %s", account)
	})
}

// Run executes the sequence, checking the invariants after every step.
func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
		require.NoError(t, st.env.pos.CheckInvariants())
	}
}
