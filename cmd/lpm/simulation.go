// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin"
	"github.com/vechain/liquidity-mining/builtin/issuance"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/builtin/tokens"
	"github.com/vechain/liquidity-mining/builtin/xyk"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

type position struct {
	account string
	pool    string
}

// simulation drives a scenario against the builtin ledger, registry and engine.
type simulation struct {
	scenario *Scenario
	state    *state.State
	ledger   *tokens.Ledger
	registry *xyk.Registry
	engine   *pos.PoS
	clock    *issuance.Clock

	tokens    map[string]mining.TokenID
	pairs     map[string]mining.Pair
	positions []position
	claimed   map[position]map[mining.TokenID]*big.Int
	reports   []*pos.SessionReport
}

func newSimulation(sc *Scenario, st *state.State, sink pos.EventSink) *simulation {
	s := &simulation{
		scenario: sc,
		state:    st,
		ledger:   builtin.Tokens.WithState(st),
		registry: builtin.XYK.WithState(st),
		engine:   builtin.PoS.WithState(st, sc.params()).WithEvents(sink),
		tokens:   map[string]mining.TokenID{nativeTokenName: mining.NativeToken},
		pairs:    make(map[string]mining.Pair),
		claimed:  make(map[position]map[mining.TokenID]*big.Int),
	}
	s.clock = builtin.Issuance.WithState(st, sc.issuanceConfig(), s.onSessionStart)
	return s
}

func (s *simulation) onSessionStart(session uint32, amount *big.Int) error {
	report, err := s.engine.OnSessionStart(session, amount)
	if err != nil {
		return err
	}
	s.reports = append(s.reports, report)
	return nil
}

func (s *simulation) setup() error {
	session, err := s.clock.Session()
	if err != nil {
		return err
	}
	if session != 0 {
		return fmt.Errorf("state already holds %d sessions", session)
	}

	for _, e := range s.scenario.Endowments {
		to, err := accountAddress(e.To)
		if err != nil {
			return errors.WithMessage(err, "endowment")
		}
		if err := s.ledger.Mint(s.tokens[e.Token], to, e.Amount.value()); err != nil {
			return errors.WithMessagef(err, "endow %s with %s", e.To, e.Token)
		}
	}
	for _, t := range s.scenario.Tokens {
		owner, err := accountAddress(t.Owner)
		if err != nil {
			return errors.WithMessagef(err, "token %s", t.Name)
		}
		id, err := s.ledger.Create(owner, t.Supply.value())
		if err != nil {
			return errors.WithMessagef(err, "create token %s", t.Name)
		}
		s.tokens[t.Name] = id
	}
	for _, p := range s.scenario.Pools {
		creator, err := accountAddress(p.Creator)
		if err != nil {
			return errors.WithMessagef(err, "pool %s", p.Name)
		}
		pair := mining.Pair{Base: s.tokens[p.Base], Quote: s.tokens[p.Quote]}
		liquidity, err := s.registry.CreatePool(creator, pair.Base, p.BaseAmount.value(), pair.Quote, p.QuoteAmount.value())
		if err != nil {
			return errors.WithMessagef(err, "create pool %s", p.Name)
		}
		s.tokens[p.Name] = liquidity
		s.pairs[p.Name] = pair
		if p.Weight > 0 {
			if err := s.engine.UpdatePoolPromotion(liquidity, p.Weight); err != nil {
				return errors.WithMessagef(err, "promote pool %s", p.Name)
			}
		}
	}
	for _, tr := range s.scenario.Transfers {
		if err := s.transfer(tr.Token, tr.From, tr.To, tr.Amount.value()); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) transfer(token, from, to string, amount *big.Int) error {
	src, err := accountAddress(from)
	if err != nil {
		return errors.WithMessage(err, "transfer")
	}
	dst, err := accountAddress(to)
	if err != nil {
		return errors.WithMessage(err, "transfer")
	}
	if err := s.ledger.Transfer(s.tokens[token], src, dst, amount); err != nil {
		return errors.WithMessagef(err, "transfer %s from %s to %s", token, from, to)
	}
	return nil
}

func (s *simulation) track(key position) {
	for _, p := range s.positions {
		if p == key {
			return
		}
	}
	s.positions = append(s.positions, key)
}

func (s *simulation) apply(op *scenarioOp) error {
	err := s.dispatch(op)
	switch {
	case op.Expect == "" && err != nil:
		return errors.WithMessagef(err, "%s after session %d", op.Op, op.After)
	case op.Expect != "" && err == nil:
		return fmt.Errorf("%s after session %d: expected error %q", op.Op, op.After, op.Expect)
	case op.Expect != "" && !strings.Contains(err.Error(), op.Expect):
		return fmt.Errorf("%s after session %d: expected error %q, got %v", op.Op, op.After, op.Expect, err)
	}
	return nil
}

func (s *simulation) dispatch(op *scenarioOp) error {
	pool := s.tokens[op.Pool]
	switch op.Op {
	case opPromote:
		return s.engine.UpdatePoolPromotion(pool, op.Weight)
	case opSchedulesLimit:
		return s.engine.SetSchedulesLimit(op.Limit)
	case opTransfer:
		return s.transfer(op.Token, op.Account, op.To, op.Amount.value())
	}

	account, err := accountAddress(op.Account)
	if err != nil {
		return err
	}
	switch op.Op {
	case opActivate:
		s.track(position{op.Account, op.Pool})
		return s.engine.ActivateLiquidity(account, pool, op.Amount.value(), nil)
	case opDeactivate:
		return s.engine.DeactivateLiquidity(account, pool, op.Amount.value())
	case opClaim:
		claimed, err := s.engine.ClaimRewardsAll(account, pool)
		if err != nil {
			return err
		}
		key := position{op.Account, op.Pool}
		s.track(key)
		if s.claimed[key] == nil {
			s.claimed[key] = make(map[mining.TokenID]*big.Int)
		}
		for token, amount := range claimed {
			if prev, ok := s.claimed[key][token]; ok {
				amount = new(big.Int).Add(prev, amount)
			}
			s.claimed[key][token] = amount
		}
		return nil
	case opSchedule:
		pair, ok := s.pairs[op.Pool]
		if !ok {
			return fmt.Errorf("%q is not a pool", op.Pool)
		}
		_, err := s.engine.RewardPool(account, pair, s.tokens[op.Token], op.Amount.value(), op.Sessions)
		return err
	}
	return fmt.Errorf("unknown op %q", op.Op)
}

// run applies the operations and advances the sessions, calling onSession after each one.
func (s *simulation) run(ctx context.Context, onSession func(session uint32) error) error {
	steps := make(map[uint32][]*scenarioOp)
	for i := range s.scenario.Operations {
		op := &s.scenario.Operations[i]
		steps[op.After] = append(steps[op.After], op)
	}

	for session := uint32(0); ; session++ {
		for _, op := range steps[session] {
			if err := s.apply(op); err != nil {
				return err
			}
		}
		if session == s.scenario.Sessions {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, _, err := s.clock.Advance(); err != nil {
			return err
		}
		if err := s.engine.CheckInvariants(); err != nil {
			return errors.WithMessagef(err, "session %d", session+1)
		}
		if onSession != nil {
			if err := onSession(session + 1); err != nil {
				return err
			}
		}
	}
}

func (s *simulation) tokenName(id mining.TokenID) string {
	for name, t := range s.tokens {
		if t == id {
			return name
		}
	}
	return id.String()
}

func (s *simulation) report(w io.Writer) error {
	issued, distributed := new(big.Int), new(big.Int)
	for _, r := range s.reports {
		issued.Add(issued, r.Issuance)
		distributed.Add(distributed, r.Distributed)
	}
	fmt.Fprintf(w, "sessions:    %d\n", len(s.reports))
	fmt.Fprintf(w, "issued:      %v\n", issued)
	fmt.Fprintf(w, "distributed: %v\n", distributed)
	fmt.Fprintf(w, "dust:        %v\n\n", new(big.Int).Sub(issued, distributed))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tPOOL\tACTIVATED\tTOKEN\tCLAIMED\tCLAIMABLE")
	for _, p := range s.positions {
		account, err := accountAddress(p.account)
		if err != nil {
			return err
		}
		pool := s.tokens[p.pool]
		activated, err := s.engine.GetActivated(account, pool)
		if err != nil {
			return err
		}
		info, err := s.engine.GetPool(pool)
		if err != nil {
			return err
		}
		if len(info.Streams) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t%v\t-\t-\t-\n", p.account, p.pool, activated)
			continue
		}
		for _, st := range info.Streams {
			claimable, err := s.engine.CalculateRewardsAmountFor(account, pool, st.Token)
			if err != nil {
				return err
			}
			claimed := s.claimed[p][st.Token]
			if claimed == nil {
				claimed = new(big.Int)
			}
			fmt.Fprintf(tw, "%s\t%s\t%v\t%s\t%v\t%v\n", p.account, p.pool, activated, s.tokenName(st.Token), claimed, claimable)
		}
	}
	return tw.Flush()
}
