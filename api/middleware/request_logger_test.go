// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vechain/liquidity-mining/log"
)

type mockLogger struct {
	loggedData []any
}

func (m *mockLogger) Trace(_ string, _ ...any)  {}
func (m *mockLogger) Debug(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)   {}
func (m *mockLogger) Error(_ string, _ ...any)  {}
func (m *mockLogger) Crit(_ string, _ ...any)   {}
func (m *mockLogger) With(_ ...any) log.Logger  { return m }
func (m *mockLogger) Info(_ string, ctx ...any) { m.loggedData = append(m.loggedData, ctx...) }

func serve(logger log.Logger, enabled bool, threshold time.Duration, delay time.Duration) {
	var flag atomic.Bool
	flag.Store(enabled)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(http.StatusOK)
	})
	mw := RequestLoggerMiddleware(logger, &flag, threshold)(handler)
	mw.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pos/session?x=1", nil))
}

func TestRequestLoggerEnabled(t *testing.T) {
	logger := &mockLogger{}
	serve(logger, true, 0, 0)

	assert.Contains(t, logger.loggedData, "URI")
	assert.Contains(t, logger.loggedData, "/pos/session?x=1")
	assert.Contains(t, logger.loggedData, "Method")
	assert.Contains(t, logger.loggedData, http.MethodGet)
}

func TestRequestLoggerDisabled(t *testing.T) {
	logger := &mockLogger{}
	serve(logger, false, 0, 0)
	assert.Empty(t, logger.loggedData)
}

func TestRequestLoggerSlowQueries(t *testing.T) {
	fast := &mockLogger{}
	serve(fast, false, time.Hour, 0)
	assert.Empty(t, fast.loggedData)

	slow := &mockLogger{}
	serve(slow, false, time.Millisecond, 10*time.Millisecond)
	assert.Contains(t, slow.loggedData, "DurationMs")
}
