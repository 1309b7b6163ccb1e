// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/liquidity-mining/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "lpm")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "lpm"
	app.Usage = "Liquidity mining rewards engine"
	app.Copyright = "2025 VeChain Foundation <https://vechain.org/>"
	app.Commands = []cli.Command{
		{
			Name:  "simulate",
			Usage: "run a scripted scenario and print the rewards of every position",
			Flags: []cli.Flag{
				scenarioFlag,
				dataDirFlag,
				persistFlag,
				cacheFlag,
				verbosityFlag,
				jsonLogsFlag,
			},
			Action: simulateAction,
		},
		{
			Name:  "serve",
			Usage: "serve the persisted engine state and events over REST",
			Flags: []cli.Flag{
				dataDirFlag,
				scenarioFlag,
				cacheFlag,
				apiAddrFlag,
				apiCorsFlag,
				apiEventsLimitFlag,
				apiBacktraceLimitFlag,
				enableAPILogsFlag,
				apiSlowQueriesThresholdFlag,
				enableMetricsFlag,
				metricsAddrFlag,
				schedulesLimitFlag,
				sessionIntervalFlag,
				verbosityFlag,
				jsonLogsFlag,
			},
			Action: serveAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
