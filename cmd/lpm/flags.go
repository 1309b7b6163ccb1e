// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/liquidity-mining/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the state and event databases",
	}
	scenarioFlag = cli.StringFlag{
		Name:  "scenario",
		Usage: "path to a YAML scenario file",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "save the simulated state and events to data-dir",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 1024,
		Usage: "megabytes of ram allocated to the state database cache",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /pos/events",
	}
	apiBacktraceLimitFlag = cli.UintFlag{
		Name:  "api-backtrace-limit",
		Value: 1000,
		Usage: "limit the distance in sessions between the newest session and the subscriptions starting position",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.DurationFlag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "log API requests slower than this duration, 0 disables",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LegacyLevelInfo,
		Usage: "log verbosity (0-9)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	schedulesLimitFlag = cli.UintFlag{
		Name:  "schedules-limit",
		Usage: "override the capacity of the reward schedule ledger, 0 keeps the stored value",
	}
	sessionIntervalFlag = cli.DurationFlag{
		Name:  "session-interval",
		Value: time.Duration(0),
		Usage: "start a new session every interval while serving, 0 disables",
	}
)
