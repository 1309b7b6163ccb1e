// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/fixedpoint"
	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/mining"
)

var (
	slotStreams     = mining.BytesToBytes32([]byte("reward-streams"))
	slotInfos       = mining.BytesToBytes32([]byte("reward-infos"))
	slotTotals      = mining.BytesToBytes32([]byte("reward-totals"))
	slotCarryHead   = mining.BytesToBytes32([]byte("reward-carry-head"))
	slotCarryTail   = mining.BytesToBytes32([]byte("reward-carry-tail"))
	slotCarryCount  = mining.BytesToBytes32([]byte("reward-carry-count"))
	slotTokensHead  = mining.BytesToBytes32([]byte("reward-tokens-head"))
	slotTokensTail  = mining.BytesToBytes32([]byte("reward-tokens-tail"))
	slotTokensCount = mining.BytesToBytes32([]byte("reward-tokens-count"))
	zero            = big.NewInt(0)
)

// tokenKey shifts token ids by one in the tokens list, the native token id being the list sentinel.
type tokenKey uint64

func (k tokenKey) Bytes() []byte {
	return new(big.Int).SetUint64(uint64(k)).Bytes()
}

// Service keeps reward streams, per-account settlement records and token totals.
type Service struct {
	streams  *solidity.Mapping[StreamKey, *Stream]
	infos    *solidity.Mapping[InfoKey, *Info]
	totals   *solidity.Mapping[mining.TokenID, *Totals]
	carrying *solidity.LinkedList[StreamKey]
	tokens   *solidity.LinkedList[tokenKey]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		streams:  solidity.NewMapping[StreamKey, *Stream](sctx, slotStreams),
		infos:    solidity.NewMapping[InfoKey, *Info](sctx, slotInfos),
		totals:   solidity.NewMapping[mining.TokenID, *Totals](sctx, slotTotals),
		carrying: solidity.NewLinkedList[StreamKey](sctx, slotCarryHead, slotCarryTail, slotCarryCount),
		tokens:   solidity.NewLinkedList[tokenKey](sctx, slotTokensHead, slotTokensTail, slotTokensCount),
	}
}

// GetStream returns the stream of (pool, token), zero valued when never credited.
func (s *Service) GetStream(pool, token mining.TokenID) (*Stream, error) {
	st, err := s.streams.Get(StreamKey{pool, token})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stream")
	}
	if st.PendingCarry == nil {
		st.PendingCarry = new(big.Int)
	}
	if st.Apportioned == nil {
		st.Apportioned = new(big.Int)
	}
	return st, nil
}

// GetInfo returns the settlement record of account for (pool, token).
func (s *Service) GetInfo(account mining.Address, pool, token mining.TokenID) (*Info, error) {
	info, err := s.infos.Get(InfoKey{account, pool, token})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rewards info")
	}
	if info.Accrued == nil {
		info.Accrued = new(big.Int)
	}
	return info, nil
}

// GetTotals returns the engine wide totals of token.
func (s *Service) GetTotals(token mining.TokenID) (*Totals, error) {
	t, err := s.totals.Get(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get totals")
	}
	if t.Apportioned == nil {
		t.Apportioned = new(big.Int)
	}
	if t.Claimed == nil {
		t.Claimed = new(big.Int)
	}
	return t, nil
}

// Tokens visits every token that was ever credited, in first-credit order.
func (s *Service) Tokens(cb func(token mining.TokenID) error) error {
	return s.tokens.Iter(func(k tokenKey) error {
		return cb(mining.TokenID(k - 1))
	})
}

// Credit adds reward to the stream of (pool, token).
// With no stake in the pool the reward is carried, otherwise it is folded into the accumulator together with any carry.
// It returns whether the accumulator moved.
func (s *Service) Credit(pool, token mining.TokenID, reward, totalActivated *big.Int) (bool, error) {
	key := StreamKey{pool, token}
	st, err := s.GetStream(pool, token)
	if err != nil {
		return false, err
	}
	if st.Apportioned, err = fixedpoint.Add(st.Apportioned, reward); err != nil {
		return false, err
	}
	if err := s.addApportioned(token, reward); err != nil {
		return false, err
	}

	moved := false
	if totalActivated.Sign() == 0 {
		if st.PendingCarry, err = fixedpoint.Add(st.PendingCarry, reward); err != nil {
			return false, err
		}
		if st.PendingCarry.Sign() > 0 {
			if err := s.markCarrying(key); err != nil {
				return false, err
			}
		}
	} else {
		amount, err := fixedpoint.Add(reward, st.PendingCarry)
		if err != nil {
			return false, err
		}
		if amount.Sign() > 0 {
			if st.Accumulator, err = fixedpoint.Accumulate(st.Accumulator, amount, totalActivated); err != nil {
				return false, err
			}
			moved = true
		}
		if st.PendingCarry.Sign() > 0 {
			st.PendingCarry = new(big.Int)
			if err := s.carrying.Remove(key); err != nil {
				return false, errors.Wrap(err, "failed to unlink carrying stream")
			}
		}
	}

	if err := s.streams.Set(key, st); err != nil {
		return false, errors.Wrap(err, "failed to set stream")
	}
	return moved, nil
}

func (s *Service) markCarrying(key StreamKey) error {
	ok, err := s.carrying.Contains(key)
	if err != nil || ok {
		return err
	}
	if err := s.carrying.Add(key); err != nil {
		return errors.Wrap(err, "failed to link carrying stream")
	}
	return nil
}

func (s *Service) addApportioned(token mining.TokenID, amount *big.Int) error {
	t, err := s.GetTotals(token)
	if err != nil {
		return err
	}
	known, err := s.tokens.Contains(tokenKey(token) + 1)
	if err != nil {
		return err
	}
	if !known {
		if err := s.tokens.Add(tokenKey(token) + 1); err != nil {
			return errors.Wrap(err, "failed to link token")
		}
	}
	if t.Apportioned, err = fixedpoint.Add(t.Apportioned, amount); err != nil {
		return err
	}
	return s.totals.Set(token, t)
}

// FlushCarry folds the carry of every carrying stream whose pool gained stake into its accumulator.
func (s *Service) FlushCarry(totalActivated func(pool mining.TokenID) (*big.Int, error)) (flushed []StreamKey, err error) {
	err = s.carrying.Iter(func(key StreamKey) error {
		total, err := totalActivated(key.Pool)
		if err != nil {
			return err
		}
		if total.Sign() == 0 {
			return nil
		}
		if _, err := s.Credit(key.Pool, key.Token, zero, total); err != nil {
			return err
		}
		flushed = append(flushed, key)
		return nil
	})
	return
}

// Pending returns the accrued rewards of account including what is not settled yet, without writing.
func (s *Service) Pending(account mining.Address, pool, token mining.TokenID, activated *big.Int) (*big.Int, error) {
	st, err := s.GetStream(pool, token)
	if err != nil {
		return nil, err
	}
	info, err := s.GetInfo(account, pool, token)
	if err != nil {
		return nil, err
	}
	delta, err := fixedpoint.Settle(activated, info.Checkpoint, st.Accumulator)
	if err != nil {
		return nil, err
	}
	return fixedpoint.Add(info.Accrued, delta)
}

// Settle moves the rewards earned by activated since the last checkpoint into Accrued and advances the checkpoint.
// Settling twice without an accumulator change is a no-op.
func (s *Service) Settle(account mining.Address, pool, token mining.TokenID, activated *big.Int) (*Info, error) {
	st, err := s.GetStream(pool, token)
	if err != nil {
		return nil, err
	}
	info, err := s.GetInfo(account, pool, token)
	if err != nil {
		return nil, err
	}
	if info.Checkpoint.Cmp(st.Accumulator) == 0 {
		return info, nil
	}
	delta, err := fixedpoint.Settle(activated, info.Checkpoint, st.Accumulator)
	if err != nil {
		return nil, err
	}
	if info.Accrued, err = fixedpoint.Add(info.Accrued, delta); err != nil {
		return nil, err
	}
	info.Checkpoint = st.Accumulator
	if err := s.infos.Set(InfoKey{account, pool, token}, info); err != nil {
		return nil, errors.Wrap(err, "failed to set rewards info")
	}
	return info, nil
}

// Claim zeroes the accrued rewards of a settled record and returns the amount.
func (s *Service) Claim(account mining.Address, pool, token mining.TokenID) (*big.Int, error) {
	info, err := s.GetInfo(account, pool, token)
	if err != nil {
		return nil, err
	}
	amount := info.Accrued
	if amount.Sign() == 0 {
		return amount, nil
	}
	info.Accrued = new(big.Int)
	if err := s.infos.Set(InfoKey{account, pool, token}, info); err != nil {
		return nil, errors.Wrap(err, "failed to set rewards info")
	}

	t, err := s.GetTotals(token)
	if err != nil {
		return nil, err
	}
	if t.Claimed, err = fixedpoint.Add(t.Claimed, amount); err != nil {
		return nil, err
	}
	if err := s.totals.Set(token, t); err != nil {
		return nil, errors.Wrap(err, "failed to set totals")
	}
	return amount, nil
}
