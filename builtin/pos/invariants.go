// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/mining"
)

// ErrInvariantViolation is returned by CheckInvariants when the bookkeeping is inconsistent.
var ErrInvariantViolation = errors.New("invariant violation")

// CheckInvariants walks every position and reward total and verifies that
//   - the positions of each pool sum up to its total activated stake,
//   - no token paid out more than was apportioned,
//   - what is still claimable plus the carry is covered by the vault.
//
// It reads the whole engine state and is meant for tests, simulations and audits.
func (p *PoS) CheckInvariants() error {
	pending := make(map[mining.TokenID]*big.Int)

	if err := p.stakesService.Pools(func(pool mining.TokenID) error {
		pl, err := p.promotionService.GetPool(pool)
		if err != nil {
			return err
		}
		total, err := p.stakesService.TotalActivated(pool)
		if err != nil {
			return err
		}
		sum := new(big.Int)
		if err := p.stakesService.Participants(pool, func(account mining.Address, activated *big.Int) error {
			sum.Add(sum, activated)
			for _, token := range pl.RewardTokens {
				amount, err := p.rewardsService.Pending(account, pool, token, activated)
				if err != nil {
					return err
				}
				if pending[token] == nil {
					pending[token] = new(big.Int)
				}
				pending[token].Add(pending[token], amount)
			}
			return nil
		}); err != nil {
			return err
		}
		if sum.Cmp(total) != 0 {
			return errors.WithMessagef(ErrInvariantViolation, "pool %v: positions sum to %v, total activated is %v", pool, sum, total)
		}
		return nil
	}); err != nil {
		return err
	}

	return p.rewardsService.Tokens(func(token mining.TokenID) error {
		totals, err := p.rewardsService.GetTotals(token)
		if err != nil {
			return err
		}
		if totals.Claimed.Cmp(totals.Apportioned) > 0 {
			return errors.WithMessagef(ErrInvariantViolation, "token %v: claimed %v above apportioned %v", token, totals.Claimed, totals.Apportioned)
		}
		outstanding := new(big.Int).Sub(totals.Apportioned, totals.Claimed)
		if owed := pending[token]; owed != nil && owed.Cmp(outstanding) > 0 {
			return errors.WithMessagef(ErrInvariantViolation, "token %v: claimable %v above outstanding %v", token, owed, outstanding)
		}
		balance, err := p.ledger.FreeBalance(token, p.addr)
		if err != nil {
			return ledgerFailure(err, "vault balance")
		}
		if balance.Cmp(outstanding) < 0 {
			return errors.WithMessagef(ErrInvariantViolation, "token %v: vault holds %v, outstanding %v", token, balance, outstanding)
		}
		return nil
	})
}
