// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"context"

	apipos "github.com/vechain/liquidity-mining/api/pos"
	"github.com/vechain/liquidity-mining/logdb"
)

const readBatch = 256

// eventReader reads committed events past a (session, index) cursor.
type eventReader struct {
	db      *logdb.LogDB
	filter  logdb.EventFilter
	session uint32
	index   uint32
}

func newEventReader(db *logdb.LogDB, filter *logdb.EventFilter, session, index uint32) *eventReader {
	return &eventReader{
		db:      db,
		filter:  *filter,
		session: session,
		index:   index,
	}
}

// Read returns the next batch of matched events, and whether more may be pending.
func (er *eventReader) Read(ctx context.Context) ([]any, bool, error) {
	filter := er.filter
	filter.Range = &logdb.Range{From: er.session, To: ^uint32(0)}
	filter.Order = logdb.ASC
	// matched events of the cursor session that were already sent are at most er.index
	limit := uint64(er.index) + readBatch
	filter.Options = &logdb.Options{Limit: limit}

	events, err := er.db.FilterEvents(ctx, &filter)
	if err != nil {
		return nil, false, err
	}

	var msgs []any
	for _, ev := range events {
		if ev.Session == er.session && ev.Index < er.index {
			continue
		}
		msgs = append(msgs, apipos.ConvertEvent(ev))
		er.session, er.index = ev.Session, ev.Index+1
		if len(msgs) == readBatch {
			break
		}
	}
	return msgs, uint64(len(events)) == limit, nil
}
