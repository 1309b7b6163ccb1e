// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package issuance implements a linear issuance schedule that signals session boundaries.
package issuance

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var (
	logger = log.WithContext("pkg", "issuance")

	slotSession = mining.BytesToBytes32([]byte("issuance-session"))
	slotIssued  = mining.BytesToBytes32([]byte("issuance-issued"))
)

// Config describes the issuance curve.
type Config struct {
	// TotalCap is the amount issued over the whole linear period.
	TotalCap *big.Int
	// LinearIssuanceSessions is the length of the linear period, nothing is issued after it.
	LinearIssuanceSessions uint32
	// LiquidityMiningSplit is the percentage of each session's issuance handed to liquidity mining.
	LiquidityMiningSplit uint8
	BlocksPerSession     uint32
}

// DefaultConfig issues 300M over two years of 1200-block sessions, half of it to liquidity mining.
func DefaultConfig() Config {
	return Config{
		TotalCap:               new(big.Int).Mul(big.NewInt(300_000_000), big.NewInt(1e18)),
		LinearIssuanceSessions: 2 * 365 * 6,
		LiquidityMiningSplit:   50,
		BlocksPerSession:       1200,
	}
}

// SessionListener is called with the liquidity mining issuance of every new session.
type SessionListener func(session uint32, issuance *big.Int) error

// Clock counts sessions and computes their issuance.
type Clock struct {
	config   Config
	session  *solidity.Raw[uint32]
	issued   *solidity.Uint256
	listener SessionListener
}

func New(addr mining.Address, state *state.State, config Config, listener SessionListener) *Clock {
	sctx := solidity.NewContext(addr, state)
	return &Clock{
		config:   config,
		session:  solidity.NewRaw[uint32](sctx, slotSession),
		issued:   solidity.NewUint256(sctx, slotIssued),
		listener: listener,
	}
}

// RewardsPeriod returns the number of blocks per session.
func (c *Clock) RewardsPeriod() uint32 {
	return c.config.BlocksPerSession
}

// Session returns the last session started.
func (c *Clock) Session() (uint32, error) {
	return c.session.Get()
}

// Issued returns the liquidity mining issuance handed out so far.
func (c *Clock) Issued() (*big.Int, error) {
	return c.issued.Get()
}

// ComputeIssuance returns the liquidity mining issuance of session. The division remainder of the
// period is issued with its last session.
func (c *Clock) ComputeIssuance(session uint32) *big.Int {
	sessions := c.config.LinearIssuanceSessions
	if session == 0 || sessions == 0 || session > sessions || c.config.TotalCap == nil {
		return new(big.Int)
	}
	pool := new(big.Int).Mul(c.config.TotalCap, big.NewInt(int64(c.config.LiquidityMiningSplit)))
	pool.Quo(pool, big.NewInt(100))

	perSession, remainder := new(big.Int).QuoRem(pool, big.NewInt(int64(sessions)), new(big.Int))
	if session == sessions {
		perSession.Add(perSession, remainder)
	}
	return perSession
}

// Advance starts the next session and notifies the listener. The session only advances when the
// listener succeeds.
func (c *Clock) Advance() (uint32, *big.Int, error) {
	current, err := c.session.Get()
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to get session")
	}
	next := current + 1
	amount := c.ComputeIssuance(next)

	if c.listener != nil {
		if err := c.listener(next, amount); err != nil {
			return 0, nil, errors.WithMessagef(err, "session %d", next)
		}
	}
	if err := c.session.Set(next); err != nil {
		return 0, nil, errors.Wrap(err, "failed to set session")
	}
	if err := c.issued.Add(amount); err != nil {
		return 0, nil, errors.Wrap(err, "failed to add issued")
	}
	logger.Debug("session advanced", "session", next, "issuance", amount)
	return next, amount, nil
}
