// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors returned by the rewards engine.
// Revert errors are caused by the caller's input and leave the state untouched.
package reverts

import (
	"errors"
)

type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

var (
	ErrInvalidInput               = New("invalid input")
	ErrInsufficientActivatedStake = New("insufficient activated stake")
	ErrScheduleLimitReached       = New("reward schedules limit reached")
	ErrNotAPromotedPool           = New("not a promoted pool")
	ErrExternalLedgerFailure      = New("external ledger failure")
	ErrSessionOutOfOrder          = New("session out of order")

	// ErrArithmeticOverflow is an internal failure, not a revert: a bound of the accounting was exceeded.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")
	// ErrDivisionByZero is an internal failure of fixed-point arithmetic.
	ErrDivisionByZero = errors.New("division by zero")
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}
