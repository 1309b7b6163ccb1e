// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

type SessionIngestion struct {
	Session          uint32     `json:"session"`
	SessionTimestamp *time.Time `json:"sessionTimestamp"`
}

type Status struct {
	Healthy          bool              `json:"healthy"`
	SessionIngestion *SessionIngestion `json:"sessionIngestion"`
	SessionsDriven   bool              `json:"sessionsDriven"`
}

// Health tracks the progress of the session driver.
type Health struct {
	lock        sync.RWMutex
	interval    time.Duration
	started     time.Time
	newSession  time.Time
	lastSession uint32
}

// New returns a tracker expecting a session every interval. A zero interval means sessions are not
// driven by this process and the status is always healthy.
func New(interval time.Duration) *Health {
	return &Health{
		interval: interval,
		started:  time.Now(),
	}
}

func (h *Health) NewSession(session uint32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newSession = time.Now()
	h.lastSession = session
}

func (h *Health) Status() *Status {
	h.lock.RLock()
	defer h.lock.RUnlock()

	ingestion := &SessionIngestion{Session: h.lastSession}
	last := h.started
	if !h.newSession.IsZero() {
		ts := h.newSession
		ingestion.SessionTimestamp = &ts
		last = h.newSession
	}

	// one missed tick is tolerated
	healthy := h.interval == 0 || time.Since(last) <= 2*h.interval
	return &Status{
		Healthy:          healthy,
		SessionIngestion: ingestion,
		SessionsDriven:   h.interval > 0,
	}
}
