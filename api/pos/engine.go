// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"sync"

	"github.com/vechain/liquidity-mining/builtin/pos"
)

// Engine guards the accrual engine shared by the API handlers and the session driver.
type Engine struct {
	mu  sync.RWMutex
	pos *pos.PoS
}

func NewEngine(p *pos.PoS) *Engine {
	return &Engine{pos: p}
}

// View runs fn holding the read lock. fn must only call getters.
func (e *Engine) View(fn func(p *pos.PoS) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.pos)
}

// Update runs fn holding the write lock.
func (e *Engine) Update(fn func(p *pos.PoS) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.pos)
}
