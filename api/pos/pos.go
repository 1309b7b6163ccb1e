// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/api/utils"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/mining"
)

type PoS struct {
	engine *Engine
	db     *logdb.LogDB
	limit  uint64
}

func New(engine *Engine, db *logdb.LogDB, eventsLimit uint64) *PoS {
	return &PoS{
		engine,
		db,
		eventsLimit,
	}
}

func parsePool(req *http.Request) (mining.TokenID, error) {
	pool, err := mining.ParseTokenID(mux.Vars(req)["pool"])
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "pool"))
	}
	if pool == mining.NativeToken {
		return 0, utils.BadRequest(errors.New("pool: native token is not a liquidity token"))
	}
	return pool, nil
}

func (p *PoS) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	pool, err := parsePool(req)
	if err != nil {
		return err
	}
	var out *Pool
	if err := p.engine.View(func(engine *pos.PoS) error {
		info, err := engine.GetPool(pool)
		if err != nil {
			return err
		}
		if info.Weight == 0 && len(info.Streams) == 0 && info.TotalActivated.Sign() == 0 {
			return utils.NotFound(fmt.Errorf("pool %v has no promotion, stake or rewards", pool))
		}
		out = convertPool(pool, info)
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *PoS) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	pool, err := parsePool(req)
	if err != nil {
		return err
	}
	account, err := mining.ParseAddress(mux.Vars(req)["account"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "account"))
	}

	out := &Account{Account: account, Pool: pool, Rewards: []*Reward{}}
	if err := p.engine.View(func(engine *pos.PoS) error {
		activated, err := engine.GetActivated(account, pool)
		if err != nil {
			return err
		}
		out.Activated = hexOrDecimal(activated)

		info, err := engine.GetPool(pool)
		if err != nil {
			return err
		}
		for _, st := range info.Streams {
			amount, err := engine.CalculateRewardsAmountFor(account, pool, st.Token)
			if err != nil {
				return err
			}
			out.Rewards = append(out.Rewards, &Reward{Token: st.Token, Claimable: hexOrDecimal(amount)})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *PoS) handleGetSchedules(w http.ResponseWriter, _ *http.Request) error {
	out := []*Schedule{}
	if err := p.engine.View(func(engine *pos.PoS) error {
		schedules, err := engine.GetSchedules()
		if err != nil {
			return err
		}
		for _, s := range schedules {
			out = append(out, convertSchedule(s))
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *PoS) handleGetSession(w http.ResponseWriter, _ *http.Request) error {
	out := &Session{EnabledPools: []mining.TokenID{}, Totals: []*Totals{}}
	if err := p.engine.View(func(engine *pos.PoS) (err error) {
		if out.Session, err = engine.CurrentSession(); err != nil {
			return err
		}
		out.SchedulesLimit = engine.SchedulesLimit()
		pools, err := engine.EnabledPools()
		if err != nil {
			return err
		}
		out.EnabledPools = append(out.EnabledPools, pools...)

		tokens, err := engine.RewardTokens()
		if err != nil {
			return err
		}
		for _, token := range tokens {
			totals, err := engine.Totals(token)
			if err != nil {
				return err
			}
			out.Totals = append(out.Totals, &Totals{
				Token:       token,
				Apportioned: hexOrDecimal(totals.Apportioned),
				Claimed:     hexOrDecimal(totals.Claimed),
			})
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func parseUint(query map[string][]string, name string, bitSize int) (*uint64, error) {
	values, ok := query[name]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(values[0], 10, bitSize)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, name))
	}
	return &n, nil
}

func (p *PoS) parseEventFilter(req *http.Request) (*logdb.EventFilter, error) {
	query := req.URL.Query()
	filter := &logdb.EventFilter{Order: logdb.ASC}

	if s := query.Get("account"); s != "" {
		account, err := mining.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = &account
	}
	pool, err := parseUint(query, "pool", 32)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		id := mining.TokenID(*pool)
		filter.Pool = &id
	}
	if s := query.Get("kind"); s != "" {
		kind := pos.EventKind(s)
		filter.Kind = &kind
	}

	from, err := parseUint(query, "from", 32)
	if err != nil {
		return nil, err
	}
	to, err := parseUint(query, "to", 32)
	if err != nil {
		return nil, err
	}
	if from != nil || to != nil {
		rng := &logdb.Range{To: ^uint32(0)}
		if from != nil {
			rng.From = uint32(*from)
		}
		if to != nil {
			rng.To = uint32(*to)
		}
		if rng.From > rng.To {
			return nil, utils.BadRequest(errors.New("to must be greater than or equal to from"))
		}
		filter.Range = rng
	}

	switch order := logdb.Order(query.Get("order")); order {
	case "", logdb.ASC:
	case logdb.DESC:
		filter.Order = logdb.DESC
	default:
		return nil, utils.BadRequest(fmt.Errorf("order: unsupported value %q", order))
	}

	offset, err := parseUint(query, "offset", 63)
	if err != nil {
		return nil, err
	}
	limit, err := parseUint(query, "limit", 63)
	if err != nil {
		return nil, err
	}
	opts := &logdb.Options{Limit: p.limit}
	if offset != nil {
		opts.Offset = *offset
	}
	if limit != nil {
		if *limit > p.limit {
			return nil, utils.HTTPError(fmt.Errorf("limit exceeds the maximum allowed value of %d", p.limit), http.StatusForbidden)
		}
		opts.Limit = *limit
	}
	filter.Options = opts
	return filter, nil
}

func (p *PoS) handleGetEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := p.parseEventFilter(req)
	if err != nil {
		return err
	}
	events, err := p.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		out = append(out, ConvertEvent(ev))
	}
	return utils.WriteJSON(w, out)
}

func (p *PoS) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	sub.Path("/pools/{pool}").
		Methods(http.MethodGet).
		Name("GET /pos/pools/{pool}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/pools/{pool}/accounts/{account}").
		Methods(http.MethodGet).
		Name("GET /pos/pools/{pool}/accounts/{account}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetAccount))
	sub.Path("/schedules").
		Methods(http.MethodGet).
		Name("GET /pos/schedules").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSchedules))
	sub.Path("/session").
		Methods(http.MethodGet).
		Name("GET /pos/session").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetSession))
	sub.Path("/events").
		Methods(http.MethodGet).
		Name("GET /pos/events").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetEvents))
}
