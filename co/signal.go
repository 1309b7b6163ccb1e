// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co holds small concurrency helpers.
package co

import (
	"sync"
)

// Waiter provides the channel to wait for the next broadcast.
type Waiter interface {
	C() <-chan struct{}
}

// Signal is a channel based rendezvous point: goroutines wait on a Waiter and
// are all released by Broadcast. Unlike sync.Cond it can be used in a select.
type Signal struct {
	l  sync.Mutex
	ch chan struct{}
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
}

// Broadcast wakes all goroutines waiting on s.
func (s *Signal) Broadcast() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	close(s.ch)
	s.ch = make(chan struct{})
}

// NewWaiter creates a Waiter. A broadcast that happens between two reads of C
// is not lost: the next C returns an already closed channel.
func (s *Signal) NewWaiter() Waiter {
	s.l.Lock()
	s.init()
	ref := s.ch
	s.l.Unlock()

	return waiterFunc(func() <-chan struct{} {
		ch := ref

		s.l.Lock()
		ref = s.ch
		s.l.Unlock()

		return ch
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} {
	return w()
}
