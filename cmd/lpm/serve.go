// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math/big"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/liquidity-mining/api"
	apipos "github.com/vechain/liquidity-mining/api/pos"
	"github.com/vechain/liquidity-mining/builtin"
	"github.com/vechain/liquidity-mining/builtin/issuance"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/co"
	"github.com/vechain/liquidity-mining/health"
	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/metrics"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

func serveAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	config := issuance.DefaultConfig()
	params := mining.DefaultParams()
	if path := ctx.String(scenarioFlag.Name); path != "" {
		sc, err := loadScenario(path)
		if err != nil {
			return err
		}
		config = sc.issuanceConfig()
		params = sc.params()
	}

	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	stateDB, err := openStateDB(ctx, dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing state database..."); stateDB.Close() }()
	logDB, err := openLogDB(dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing event database..."); logDB.Close() }()

	st := state.New(stateDB)
	writer := logDB.NewWriter()
	engine := builtin.PoS.WithState(st, params).WithEvents(writer.Write)
	if limit := ctx.Uint(schedulesLimitFlag.Name); limit > 0 {
		if err := engine.SetSchedulesLimit(uint32(limit)); err != nil {
			return err
		}
		if err := commitSession(st, writer); err != nil {
			return err
		}
	}
	handle := apipos.NewEngine(engine)

	interval := ctx.Duration(sessionIntervalFlag.Name)
	tracker := health.New(interval)

	var enableAPILogs atomic.Bool
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	var sessions co.Signal
	handler, closeSubs := api.New(handle, logDB, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
		EnableReqLogger:      &enableAPILogs,
		SlowQueriesThreshold: ctx.Duration(apiSlowQueriesThresholdFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		Health:               tracker,
		Sessions:             &sessions,
		BacktraceLimit:       uint32(ctx.Uint(apiBacktraceLimitFlag.Name)),
	})
	defer func() { logger.Info("closing subscriptions..."); closeSubs() }()

	group, gctx := errgroup.WithContext(exitSignal)

	apiListener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", ctx.String(apiAddrFlag.Name))
	}
	apiURL := "http://" + apiListener.Addr().String() + "/"
	group.Go(func() error {
		return serveHTTP(gctx, apiListener, handler)
	})

	metricsURL := "Disabled"
	if ctx.Bool(enableMetricsFlag.Name) {
		metricsListener, err := net.Listen("tcp", ctx.String(metricsAddrFlag.Name))
		if err != nil {
			apiListener.Close()
			return errors.Wrapf(err, "listen metrics addr [%v]", ctx.String(metricsAddrFlag.Name))
		}
		metricsURL = "http://" + metricsListener.Addr().String() + "/metrics"
		router := mux.NewRouter()
		router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
		group.Go(func() error {
			return serveHTTP(gctx, metricsListener, handlers.CompressHandler(router))
		})
	}

	if interval > 0 {
		clock := builtin.Issuance.WithState(st, config, func(session uint32, amount *big.Int) error {
			_, err := engine.OnSessionStart(session, amount)
			return err
		})
		group.Go(func() error {
			return driveSessions(gctx, interval, handle, clock, st, writer, tracker, &sessions)
		})
	}

	printStartupMessage(dataDir, apiURL, metricsURL)

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serveHTTP(ctx context.Context, listener net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// driveSessions starts a session every interval until ctx is done.
func driveSessions(
	ctx context.Context,
	interval time.Duration,
	handle *apipos.Engine,
	clock *issuance.Clock,
	st *state.State,
	writer *logdb.Writer,
	tracker *health.Health,
	sessions *co.Signal,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := handle.Update(func(_ *pos.PoS) error {
				checkpoint := st.NewCheckpoint()
				session, amount, err := clock.Advance()
				if err != nil {
					st.RevertTo(checkpoint)
					writer.Rollback()
					logger.Warn("failed to start session", "error", err)
					return nil
				}
				logger.Info("session started", "session", session, "issuance", amount)
				if err := commitSession(st, writer); err != nil {
					return err
				}
				tracker.NewSession(session)
				sessions.Broadcast()
				return nil
			})
			if err != nil {
				return err
			}
		}
	}
}

func commitSession(st *state.State, writer *logdb.Writer) error {
	if err := writer.Commit(); err != nil {
		return err
	}
	return st.Stage().Commit()
}
