// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/api/utils"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/co"
	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/mining"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

var logger = log.WithContext("pkg", "subscriptions")

type Subscriptions struct {
	db             *logdb.LogDB
	sessions       *co.Signal
	backtraceLimit uint32
	upgrader       *websocket.Upgrader
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

// New creates the subscriptions endpoints. sessions is broadcast each time new
// events are committed to db.
func New(db *logdb.LogDB, sessions *co.Signal, allowedOrigins []string, backtraceLimit uint32) *Subscriptions {
	return &Subscriptions{
		db:             db,
		sessions:       sessions,
		backtraceLimit: backtraceLimit,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == strings.ToLower(origin) {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) parseEventReader(req *http.Request) (*eventReader, error) {
	query := req.URL.Query()
	filter := &logdb.EventFilter{}

	if v := query.Get("account"); v != "" {
		account, err := mining.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = &account
	}
	if v := query.Get("pool"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "pool"))
		}
		pool := mining.TokenID(n)
		filter.Pool = &pool
	}
	if v := query.Get("kind"); v != "" {
		kind := pos.EventKind(v)
		filter.Kind = &kind
	}

	newest, err := s.newestEvent(req.Context())
	if err != nil {
		return nil, err
	}

	v := query.Get("pos")
	if v == "" {
		// only events committed from now on
		if newest == nil {
			return newEventReader(s.db, filter, 0, 0), nil
		}
		return newEventReader(s.db, filter, newest.Session, newest.Index+1), nil
	}

	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "pos"))
	}
	from := uint32(n)
	if newest != nil && newest.Session > from && newest.Session-from > s.backtraceLimit {
		return nil, utils.HTTPError(errors.New("pos: backtrace limit exceeded"), http.StatusForbidden)
	}
	return newEventReader(s.db, filter, from, 0), nil
}

func (s *Subscriptions) newestEvent(ctx context.Context) (*logdb.Event, error) {
	events, err := s.db.FilterEvents(ctx, &logdb.EventFilter{
		Order:   logdb.DESC,
		Options: &logdb.Options{Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return events[0], nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	s.wg.Add(1)
	defer s.wg.Done()

	reader, err := s.parseEventReader(req)
	if err != nil {
		return err
	}

	conn, closed, err := s.setupConn(w, req)
	// the conn is hijacked from here on, errors are reported through close messages
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}

	err = s.pipe(conn, reader, closed)
	s.closeConn(conn, err)
	return nil
}

func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	// the read loop handles pongs and detects the peer going away
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(closed)

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read", "err", err)
				return
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) closeConn(conn *websocket.Conn, err error) {
	var msg []byte
	if err != nil {
		msg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	} else {
		msg = websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	}
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.Debug("write close message", "err", err)
	}
	if err := conn.Close(); err != nil {
		logger.Debug("close websocket", "err", err)
	}
}

func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader, closed chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	waiter := s.sessions.NewWaiter()
	for {
		msgs, hasMore, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}
		if hasMore {
			continue
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-waiter.C():
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// Close ends all subscriptions and waits for their connections to close.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
