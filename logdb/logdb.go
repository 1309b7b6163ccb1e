// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb keeps the history of engine events in SQLite.
package logdb

import (
	"context"
	"database/sql"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/mining"
)

type LogDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (*LogDB, error) {
	return open(path, 0)
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	// every connection to :memory: is a distinct database
	return open(":memory:", 1)
}

func open(path string, maxConns int) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestSession returns the latest session with an event, zero for an empty db.
func (db *LogDB) NewestSession() (uint32, error) {
	var seq sql.NullInt64
	if err := db.db.QueryRow("SELECT MAX(seq) FROM event").Scan(&seq); err != nil {
		return 0, err
	}
	if !seq.Valid {
		return 0, nil
	}
	return sequence(seq.Int64).Session(), nil
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND session >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND session <= ? "
		}
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if filter.Pool != nil {
		args = append(args, uint32(*filter.Pool))
		stmt += " AND pool = ? "
	}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		stmt += " AND kind = ? "
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq        int64
			session    uint32
			kind       string
			account    []byte
			pool       uint32
			token      uint32
			amount     []byte
			weight     uint8
			scheduleID uint64
			sessions   uint32
		)
		if err := rows.Scan(
			&seq,
			&session,
			&kind,
			&account,
			&pool,
			&token,
			&amount,
			&weight,
			&scheduleID,
			&sessions,
		); err != nil {
			return nil, err
		}
		ev := &pos.Event{
			Kind:       pos.EventKind(kind),
			Session:    session,
			Account:    mining.BytesToAddress(account),
			Pool:       mining.TokenID(pool),
			Token:      mining.TokenID(token),
			Weight:     weight,
			ScheduleID: scheduleID,
			Sessions:   sessions,
		}
		if amount != nil {
			ev.Amount = new(big.Int).SetBytes(amount)
		}
		events = append(events, &Event{Index: sequence(seq).Index(), Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// NewWriter creates a log writer.
func (db *LogDB) NewWriter() *Writer {
	return &Writer{db: db}
}

// Writer buffers events and writes them in one transaction on Commit.
type Writer struct {
	db     *LogDB
	events []*pos.Event
}

// Write appends events, typically from pos.EventSink.
func (w *Writer) Write(events []*pos.Event) {
	w.events = append(w.events, events...)
}

// UncommittedCount returns the count of uncommitted events.
func (w *Writer) UncommittedCount() int {
	return len(w.events)
}

// Rollback drops all uncommitted events.
func (w *Writer) Rollback() {
	w.events = nil
}

// Commit writes the accumulated events.
func (w *Writer) Commit() error {
	if len(w.events) == 0 {
		return nil
	}
	// prepared outside the tx, the in-memory db has a single connection
	insert, err := w.db.stmtCache.Prepare(insertEventSQL)
	if err != nil {
		return errors.Wrap(err, "commit events")
	}
	err = w.execInTx(func(tx *sql.Tx) error {
		stmt := tx.Stmt(insert)

		next := make(map[uint32]uint32)
		for _, ev := range w.events {
			index, ok := next[ev.Session]
			if !ok {
				if err := tx.QueryRow("SELECT COUNT(*) FROM event WHERE session = ?", ev.Session).Scan(&index); err != nil {
					return err
				}
			}
			next[ev.Session] = index + 1

			var amount []byte
			if ev.Amount != nil {
				amount = ev.Amount.Bytes()
			}
			if _, err := stmt.Exec(
				int64(newSequence(ev.Session, index)),
				ev.Session,
				string(ev.Kind),
				ev.Account.Bytes(),
				uint32(ev.Pool),
				uint32(ev.Token),
				amount,
				ev.Weight,
				ev.ScheduleID,
				ev.Sessions,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "commit events")
	}
	metricWrittenEvents().Add(int64(len(w.events)))
	w.events = nil
	return nil
}

// Truncate deletes the events of session and every later session.
func (w *Writer) Truncate(session uint32) error {
	return w.execInTx(func(tx *sql.Tx) error {
		_, err := tx.Exec("DELETE FROM event WHERE seq >= ?", int64(newSequence(session, 0)))
		return err
	})
}

func (w *Writer) execInTx(proc func(*sql.Tx) error) error {
	tx, err := w.db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
