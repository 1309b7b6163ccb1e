// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroadcast(t *testing.T) {
	var sig Signal

	var wg sync.WaitGroup
	for range 4 {
		w := sig.NewWaiter()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-w.C()
		}()
	}

	sig.Broadcast()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiters not released")
	}
}

func TestWaiterKeepsMissedBroadcast(t *testing.T) {
	var sig Signal
	w := sig.NewWaiter()

	sig.Broadcast()

	select {
	case <-w.C():
	default:
		t.Fatal("broadcast before C was lost")
	}

	select {
	case <-w.C():
		t.Fatal("no broadcast since last C")
	default:
	}

	sig.Broadcast()
	_, ok := <-w.C()
	assert.False(t, ok)
}
