// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key,
	session integer not null,
	kind text not null,
	account blob(20),
	pool integer,
	token integer,
	amount blob,
	weight integer,
	scheduleID integer,
	sessions integer
);

create index if not exists eventSessionIndex on event(session);
create index if not exists eventAccountIndex on event(account);
create index if not exists eventPoolIndex on event(pool);
create index if not exists eventKindIndex on event(kind);
`

const insertEventSQL = `insert or replace into event(seq, session, kind, account, pool, token, amount, weight, scheduleID, sessions)
values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
