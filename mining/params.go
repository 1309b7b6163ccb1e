// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mining

import "math/big"

// NativeToken is the id of the chain native token, which funds session issuance.
const NativeToken TokenID = 0

// Params holds the runtime configuration of the rewards engine.
type Params struct {
	// RewardsSchedulesLimit caps the number of schedules held in the ledger, expired ones included.
	RewardsSchedulesLimit uint32
	// MinRewardsPerSession is the smallest per-session emission a schedule may have. Zero disables the check.
	MinRewardsPerSession *big.Int
	// MaxScheduleSessions bounds the duration of a single schedule.
	MaxScheduleSessions uint32
	// BlocksPerSession is the length of a rewards period, informational for clocks.
	BlocksPerSession uint32
}

// DefaultParams returns the default engine configuration.
func DefaultParams() Params {
	return Params{
		RewardsSchedulesLimit: 10,
		MinRewardsPerSession:  big.NewInt(0),
		MaxScheduleSessions:   5 * 365,
		BlocksPerSession:      1200,
	}
}
