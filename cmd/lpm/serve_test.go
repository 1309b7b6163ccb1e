// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apipos "github.com/vechain/liquidity-mining/api/pos"
	"github.com/vechain/liquidity-mining/builtin"
	"github.com/vechain/liquidity-mining/builtin/issuance"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/co"
	"github.com/vechain/liquidity-mining/health"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

func TestDriveSessions(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	defer logDB.Close()

	st := state.New(db)
	writer := logDB.NewWriter()
	engine := builtin.PoS.WithState(st, mining.DefaultParams()).WithEvents(writer.Write)
	handle := apipos.NewEngine(engine)
	clock := builtin.Issuance.WithState(st, issuance.DefaultConfig(), func(session uint32, amount *big.Int) error {
		_, err := engine.OnSessionStart(session, amount)
		return err
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	tracker := health.New(5 * time.Millisecond)
	var sessions co.Signal
	waiter := sessions.NewWaiter()
	go func() { done <- driveSessions(ctx, 5*time.Millisecond, handle, clock, st, writer, tracker, &sessions) }()

	select {
	case <-waiter.C():
	case <-time.After(5 * time.Second):
		t.Fatal("no session broadcast")
	}

	require.Eventually(t, func() bool {
		var session uint32
		_ = handle.View(func(p *pos.PoS) (err error) {
			session, err = p.CurrentSession()
			return err
		})
		return session >= 3
	}, 5*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Zero(t, st.Stage().Len())
	assert.GreaterOrEqual(t, tracker.Status().SessionIngestion.Session, uint32(3))
	newest, err := logDB.NewestSession()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, newest, uint32(3))
}

func TestServeHTTP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serveHTTP(ctx, listener, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	res, err := http.Get("http://" + listener.Addr().String() + "/")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTeapot, res.StatusCode)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
