// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/mining"
)

var (
	alice = mining.BytesToAddress([]byte("alice"))
	bob   = mining.BytesToAddress([]byte("bob"))
)

func sampleEvents() []*pos.Event {
	return []*pos.Event{
		{Kind: pos.PoolPromotionUpdated, Session: 1, Pool: 3, Weight: 10},
		{Kind: pos.LiquidityActivated, Session: 1, Account: alice, Pool: 3, Amount: big.NewInt(1000)},
		{Kind: pos.LiquidityActivated, Session: 1, Account: bob, Pool: 3, Amount: big.NewInt(500)},
		{Kind: pos.SessionApportioned, Session: 2, Amount: big.NewInt(1e18)},
		{Kind: pos.RewardsScheduled, Session: 2, Account: bob, Pool: 3, Token: 4, Amount: big.NewInt(300), ScheduleID: 1, Sessions: 3},
		{Kind: pos.RewardsClaimed, Session: 3, Account: alice, Pool: 3, Token: 0, Amount: new(big.Int).Lsh(big.NewInt(1), 100)},
	}
}

func newTestDB(t *testing.T) *LogDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := db.NewWriter()
	w.Write(sampleEvents())
	assert.Equal(t, 6, w.UncommittedCount())
	require.NoError(t, w.Commit())
	assert.Equal(t, 0, w.UncommittedCount())
	return db
}

func TestEmpty(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	session, err := db.NewestSession()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), session)

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotEmpty(t, db.DriverVersion())
}

func TestMemCommitSingleConn(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	done := make(chan error, 1)
	go func() {
		w := db.NewWriter()
		for session := uint32(1); session <= 2; session++ {
			w.Write([]*pos.Event{{Kind: pos.SessionApportioned, Session: session, Amount: big.NewInt(100)}})
			if err := w.Commit(); err != nil {
				done <- err
				return
			}
			if _, err := db.FilterEvents(context.Background(), nil); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("commit blocked")
	}

	session, err := db.NewestSession()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), session)
}

func TestWriteAndFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 6)
	want := sampleEvents()
	for i, ev := range all {
		assert.Equal(t, want[i], ev.Event)
	}
	assert.Equal(t, []uint32{0, 1, 2, 0, 1, 0}, []uint32{all[0].Index, all[1].Index, all[2].Index, all[3].Index, all[4].Index, all[5].Index})

	newest, err := db.NewestSession()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), newest)

	pool := mining.TokenID(3)
	kind := pos.LiquidityActivated
	tests := []struct {
		name   string
		filter *EventFilter
		kinds  []pos.EventKind
	}{
		{"range", &EventFilter{Range: &Range{From: 2, To: 2}}, []pos.EventKind{pos.SessionApportioned, pos.RewardsScheduled}},
		{"open range", &EventFilter{Range: &Range{From: 2}}, []pos.EventKind{pos.SessionApportioned, pos.RewardsScheduled, pos.RewardsClaimed}},
		{"account", &EventFilter{Account: &alice}, []pos.EventKind{pos.LiquidityActivated, pos.RewardsClaimed}},
		{"pool and kind", &EventFilter{Pool: &pool, Kind: &kind}, []pos.EventKind{pos.LiquidityActivated, pos.LiquidityActivated}},
		{"desc with limit", &EventFilter{Order: DESC, Options: &Options{Offset: 1, Limit: 2}}, []pos.EventKind{pos.RewardsScheduled, pos.SessionApportioned}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			var kinds []pos.EventKind
			for _, ev := range events {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestIndexContinuesAcrossCommits(t *testing.T) {
	db := newTestDB(t)

	w := db.NewWriter()
	w.Write([]*pos.Event{{Kind: pos.RewardsClaimed, Session: 3, Account: bob, Amount: big.NewInt(7)}})
	require.NoError(t, w.Commit())

	events, err := db.FilterEvents(context.Background(), &EventFilter{Range: &Range{From: 3, To: 3}})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint32(1), events[1].Index)
	assert.Equal(t, big.NewInt(7), events[1].Amount)
}

func TestRollbackAndTruncate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	w := db.NewWriter()
	w.Write(sampleEvents())
	w.Rollback()
	assert.Equal(t, 0, w.UncommittedCount())
	require.NoError(t, w.Commit())

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	require.NoError(t, w.Truncate(2))
	all, err = db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	newest, err := db.NewestSession()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), newest)
}

func TestPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	db, err := New(path)
	require.NoError(t, err)
	w := db.NewWriter()
	w.Write(sampleEvents())
	require.NoError(t, w.Commit())
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())

	all, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestCanceledContext(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := db.FilterEvents(ctx, nil)
	assert.Error(t, err)
}
