// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package schedule

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/builtin/solidity"
	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/mining"
)

var (
	slotSchedules = mining.BytesToBytes32([]byte("schedules"))
	slotNextID    = mining.BytesToBytes32([]byte("schedules-next-id"))
	slotListHead  = mining.BytesToBytes32([]byte("schedules-head"))
	slotListTail  = mining.BytesToBytes32([]byte("schedules-tail"))
	slotListCount = mining.BytesToBytes32([]byte("schedules-count"))

	logger = log.WithContext("pkg", "schedule")
)

// Service is the bounded ledger of reward schedules, kept in insertion order.
type Service struct {
	schedules *solidity.Mapping[ID, *Schedule]
	nextID    *solidity.Raw[uint64]
	list      *solidity.LinkedList[ID]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		schedules: solidity.NewMapping[ID, *Schedule](sctx, slotSchedules),
		nextID:    solidity.NewRaw[uint64](sctx, slotNextID),
		list:      solidity.NewLinkedList[ID](sctx, slotListHead, slotListTail, slotListCount),
	}
}

// Get returns the schedule of id, nil if it does not exist or was evicted.
func (s *Service) Get(id ID) (*Schedule, error) {
	ok, err := s.schedules.Exists(id)
	if err != nil || !ok {
		return nil, err
	}
	sched, err := s.schedules.Get(id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get schedule")
	}
	return sched, nil
}

// Len returns the number of schedules in the ledger, expired ones included.
func (s *Service) Len() (uint64, error) {
	return s.list.Len()
}

// Iter visits the schedules from the oldest to the newest.
func (s *Service) Iter(cb func(id ID, sched *Schedule) error) error {
	return s.list.Iter(func(id ID) error {
		sched, err := s.schedules.Get(id)
		if err != nil {
			return errors.Wrap(err, "failed to get schedule")
		}
		return cb(id, sched)
	})
}

// Add inserts a schedule of amount over sessions, splitting it into equal emissions.
// When the ledger holds limit schedules the oldest expired ones are evicted first,
// it fails with ErrScheduleLimitReached when none can be.
func (s *Service) Add(
	scheduler mining.Address,
	pool, token mining.TokenID,
	amount *big.Int,
	sessions uint32,
	createdAt uint32,
	limit uint32,
) (ID, []ID, error) {
	if amount.Sign() <= 0 || sessions == 0 {
		return 0, nil, reverts.ErrInvalidInput
	}
	evicted, err := s.makeRoom(limit)
	if err != nil {
		return 0, nil, err
	}

	next, err := s.nextID.Get()
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to get next schedule id")
	}
	id := ID(next + 1)
	if err := s.nextID.Set(uint64(id)); err != nil {
		return 0, nil, errors.Wrap(err, "failed to set next schedule id")
	}

	perSession, remainder := new(big.Int).QuoRem(amount, big.NewInt(int64(sessions)), new(big.Int))
	sched := &Schedule{
		Pool:        pool,
		RewardToken: token,
		Scheduler:   scheduler,
		Amount:      new(big.Int).Set(amount),
		PerSession:  perSession,
		Remainder:   remainder,
		Sessions:    sessions,
		Remaining:   sessions,
		CreatedAt:   createdAt,
	}
	if err := s.schedules.Set(id, sched); err != nil {
		return 0, nil, errors.Wrap(err, "failed to set schedule")
	}
	if err := s.list.Add(id); err != nil {
		return 0, nil, errors.Wrap(err, "failed to link schedule")
	}
	logger.Debug("schedule added", "id", id, "pool", pool, "token", token, "amount", amount, "sessions", sessions)
	return id, evicted, nil
}

// makeRoom evicts expired schedules, oldest first, until the ledger is below limit.
func (s *Service) makeRoom(limit uint32) ([]ID, error) {
	var evicted []ID
	for {
		count, err := s.list.Len()
		if err != nil {
			return nil, err
		}
		if count < uint64(limit) {
			return evicted, nil
		}
		id, err := s.oldestExpired()
		if err != nil {
			return nil, err
		}
		if id == 0 {
			return nil, reverts.ErrScheduleLimitReached
		}
		if err := s.list.Remove(id); err != nil {
			return nil, errors.Wrap(err, "failed to unlink schedule")
		}
		s.schedules.Delete(id)
		evicted = append(evicted, id)
	}
}

func (s *Service) oldestExpired() (ID, error) {
	id, err := s.list.Head()
	if err != nil {
		return 0, err
	}
	for id != 0 {
		sched, err := s.schedules.Get(id)
		if err != nil {
			return 0, errors.Wrap(err, "failed to get schedule")
		}
		if sched.Expired() {
			return id, nil
		}
		if id, err = s.list.Next(id); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// Mature hands one emission of every live schedule to cb, in list order, and decrements its remaining sessions.
func (s *Service) Mature(cb func(id ID, sched *Schedule, emission *big.Int) error) error {
	return s.list.Iter(func(id ID) error {
		sched, err := s.schedules.Get(id)
		if err != nil {
			return errors.Wrap(err, "failed to get schedule")
		}
		if sched.Expired() {
			return nil
		}
		emission := sched.Emission()
		sched.Remaining--
		if err := s.schedules.Set(id, sched); err != nil {
			return errors.Wrap(err, "failed to set schedule")
		}
		return cb(id, sched, emission)
	})
}
