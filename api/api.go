// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the read side of the rewards engine over REST.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/liquidity-mining/api/middleware"
	"github.com/vechain/liquidity-mining/api/pos"
	"github.com/vechain/liquidity-mining/api/subscriptions"
	"github.com/vechain/liquidity-mining/api/utils"
	"github.com/vechain/liquidity-mining/co"
	"github.com/vechain/liquidity-mining/health"
	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/logdb"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EventsLimit          uint64
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	// Health is served under /health when set.
	Health *health.Health
	// Sessions is broadcast after each committed session, waking event subscribers.
	Sessions       *co.Signal
	BacktraceLimit uint32
}

// New return api router and a func to close the subscriptions.
func New(engine *pos.Engine, logDB *logdb.LogDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	pos.New(engine, logDB, opts.EventsLimit).
		Mount(router, "/pos")

	sessions := opts.Sessions
	if sessions == nil {
		sessions = &co.Signal{}
	}
	subs := subscriptions.New(logDB, sessions, origins, opts.BacktraceLimit)
	subs.Mount(router, "/subscriptions")

	if opts.Health != nil {
		router.Path("/health").
			Methods(http.MethodGet).
			Name("GET /health").
			HandlerFunc(utils.WrapHandlerFunc(handleHealth(opts.Health)))
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}
	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions hold hijacked conns, which need to be closed
}

func handleHealth(h *health.Health) utils.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) error {
		status := h.Status()
		if !status.Healthy {
			w.Header().Set("Content-Type", utils.JSONContentType)
			w.WriteHeader(http.StatusServiceUnavailable)
			return json.NewEncoder(w).Encode(status)
		}
		return utils.WriteJSON(w, status)
	}
}
