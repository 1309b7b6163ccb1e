// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/liquidity-mining/logdb"
	"github.com/vechain/liquidity-mining/lvldb"
	"github.com/vechain/liquidity-mining/state"
)

// commitThreshold is the count of buffered events that triggers a write to the event db.
const commitThreshold = 2048

func simulateAction(ctx *cli.Context) error {
	initLogger(ctx)

	path := ctx.String(scenarioFlag.Name)
	if path == "" {
		return errors.New("missing --scenario")
	}
	sc, err := loadScenario(path)
	if err != nil {
		return err
	}

	var (
		stateDB *lvldb.LevelDB
		logDB   *logdb.LogDB
	)
	if ctx.Bool(persistFlag.Name) {
		dataDir, err := makeDataDir(ctx)
		if err != nil {
			return err
		}
		if stateDB, err = openStateDB(ctx, dataDir); err != nil {
			return err
		}
		if logDB, err = openLogDB(dataDir); err != nil {
			stateDB.Close()
			return err
		}
	} else {
		if stateDB, err = lvldb.NewMem(); err != nil {
			return err
		}
		if logDB, err = logdb.NewMem(); err != nil {
			stateDB.Close()
			return err
		}
	}
	defer func() { logger.Info("closing state database..."); stateDB.Close() }()
	defer func() { logger.Info("closing event database..."); logDB.Close() }()

	st := state.New(stateDB)
	writer := logDB.NewWriter()
	sim := newSimulation(sc, st, writer.Write)

	if err := sim.setup(); err != nil {
		return err
	}

	bar := pb.New64(int64(sc.Sessions)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	err = sim.run(handleExitSignal(), func(session uint32) error {
		if writer.UncommittedCount() > commitThreshold {
			if err := writer.Commit(); err != nil {
				return err
			}
		}
		if err := st.Stage().Commit(); err != nil {
			return errors.WithMessagef(err, "commit session %d", session)
		}
		bar.Add64(1)
		return nil
	})
	if err != nil {
		writer.Rollback()
		return err
	}
	if err := writer.Commit(); err != nil {
		return err
	}
	if err := st.Stage().Commit(); err != nil {
		return err
	}
	bar.Finish()

	return sim.report(os.Stdout)
}
