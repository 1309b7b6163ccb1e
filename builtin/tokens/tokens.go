// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tokens implements a multi-token ledger with free and reserved balances.
package tokens

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

var (
	ErrUnknownToken        = errors.New("unknown token")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")

	slotAccounts = mining.BytesToBytes32([]byte("token-accounts"))
	slotIssuance = mining.BytesToBytes32([]byte("token-issuance"))
	slotLastID   = mining.BytesToBytes32([]byte("token-last-id"))
)

// Ledger keeps the balances of every token. Token 0 is the native token and always exists,
// other tokens are created sequentially.
type Ledger struct {
	addr     mining.Address
	accounts *solidity.Mapping[accountKey, *account]
	issuance *solidity.Mapping[mining.TokenID, *big.Int]
	lastID   *solidity.Raw[uint32]
}

func New(addr mining.Address, state *state.State) *Ledger {
	sctx := solidity.NewContext(addr, state)
	return &Ledger{
		addr:     addr,
		accounts: solidity.NewMapping[accountKey, *account](sctx, slotAccounts),
		issuance: solidity.NewMapping[mining.TokenID, *big.Int](sctx, slotIssuance),
		lastID:   solidity.NewRaw[uint32](sctx, slotLastID),
	}
}

// Create creates a new token and mints amount of it to owner.
func (l *Ledger) Create(owner mining.Address, amount *big.Int) (mining.TokenID, error) {
	last, err := l.lastID.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get last token id")
	}
	id := mining.TokenID(last + 1)
	if err := l.lastID.Set(uint32(id)); err != nil {
		return 0, errors.Wrap(err, "failed to set last token id")
	}
	if amount != nil && amount.Sign() > 0 {
		if err := l.Mint(id, owner, amount); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// Exists reports whether token was created.
func (l *Ledger) Exists(token mining.TokenID) (bool, error) {
	if token == mining.NativeToken {
		return true, nil
	}
	last, err := l.lastID.Get()
	if err != nil {
		return false, errors.Wrap(err, "failed to get last token id")
	}
	return uint32(token) <= last, nil
}

func (l *Ledger) getAccount(token mining.TokenID, addr mining.Address) (*account, error) {
	acc, err := l.accounts.Get(accountKey{token, addr})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc.normalize(), nil
}

func (l *Ledger) setAccount(token mining.TokenID, addr mining.Address, acc *account) error {
	if err := l.accounts.Set(accountKey{token, addr}, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// update loads the account of addr in token, applies cb and stores the result.
func (l *Ledger) update(token mining.TokenID, addr mining.Address, amount *big.Int, cb func(acc *account) error) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.WithMessagef(ErrInvalidAmount, "%v", amount)
	}
	ok, err := l.Exists(token)
	if err != nil {
		return err
	}
	if !ok {
		return errors.WithMessagef(ErrUnknownToken, "%v", token)
	}
	acc, err := l.getAccount(token, addr)
	if err != nil {
		return err
	}
	if err := cb(acc); err != nil {
		return err
	}
	return l.setAccount(token, addr, acc)
}

func (l *Ledger) FreeBalance(token mining.TokenID, addr mining.Address) (*big.Int, error) {
	acc, err := l.getAccount(token, addr)
	if err != nil {
		return nil, err
	}
	return acc.Free, nil
}

func (l *Ledger) ReservedBalance(token mining.TokenID, addr mining.Address) (*big.Int, error) {
	acc, err := l.getAccount(token, addr)
	if err != nil {
		return nil, err
	}
	return acc.Reserved, nil
}

func (l *Ledger) TotalIssuance(token mining.TokenID) (*big.Int, error) {
	v, err := l.issuance.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get issuance")
	}
	return v, nil
}

func (l *Ledger) addIssuance(token mining.TokenID, delta *big.Int) error {
	total, err := l.TotalIssuance(token)
	if err != nil {
		return err
	}
	if delta.Sign() >= 0 {
		total, err = fixedpoint.Add(total, delta)
	} else {
		total, err = fixedpoint.Sub(total, new(big.Int).Neg(delta))
	}
	if err != nil {
		return err
	}
	if err := l.issuance.Set(token, total); err != nil {
		return errors.Wrap(err, "failed to set issuance")
	}
	return nil
}

// Mint creates amount of token on the free balance of to.
func (l *Ledger) Mint(token mining.TokenID, to mining.Address, amount *big.Int) error {
	if err := l.update(token, to, amount, func(acc *account) (err error) {
		acc.Free, err = fixedpoint.Add(acc.Free, amount)
		return
	}); err != nil {
		return err
	}
	return l.addIssuance(token, amount)
}

// Burn destroys amount of the free balance of from.
func (l *Ledger) Burn(token mining.TokenID, from mining.Address, amount *big.Int) error {
	if err := l.update(token, from, amount, func(acc *account) error {
		return debit(acc, amount)
	}); err != nil {
		return err
	}
	return l.addIssuance(token, new(big.Int).Neg(amount))
}

// Transfer moves amount of free balance from one account to another.
func (l *Ledger) Transfer(token mining.TokenID, from, to mining.Address, amount *big.Int) error {
	if err := l.update(token, from, amount, func(acc *account) error {
		return debit(acc, amount)
	}); err != nil {
		return err
	}
	return l.update(token, to, amount, func(acc *account) (err error) {
		acc.Free, err = fixedpoint.Add(acc.Free, amount)
		return
	})
}

// Reserve moves amount from the free to the reserved balance of addr.
func (l *Ledger) Reserve(token mining.TokenID, addr mining.Address, amount *big.Int) error {
	return l.update(token, addr, amount, func(acc *account) (err error) {
		if err := debit(acc, amount); err != nil {
			return err
		}
		acc.Reserved, err = fixedpoint.Add(acc.Reserved, amount)
		return
	})
}

// Unreserve moves amount from the reserved back to the free balance of addr.
func (l *Ledger) Unreserve(token mining.TokenID, addr mining.Address, amount *big.Int) error {
	return l.update(token, addr, amount, func(acc *account) (err error) {
		if acc.Reserved.Cmp(amount) < 0 {
			return errors.WithMessagef(ErrInsufficientBalance, "reserved %v, requested %v", acc.Reserved, amount)
		}
		acc.Reserved = new(big.Int).Sub(acc.Reserved, amount)
		acc.Free, err = fixedpoint.Add(acc.Free, amount)
		return
	})
}

func debit(acc *account, amount *big.Int) error {
	if acc.Free.Cmp(amount) < 0 {
		return errors.WithMessagef(ErrInsufficientBalance, "free %v, requested %v", acc.Free, amount)
	}
	acc.Free = new(big.Int).Sub(acc.Free, amount)
	return nil
}
