// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"github.com/vechain/liquidity-mining/builtin/pos/reverts"
	"github.com/vechain/liquidity-mining/metrics"
)

var (
	metricOperations      = metrics.LazyLoadCounterVec("pos_operations_count", []string{"op", "result"})
	metricSessions        = metrics.LazyLoadCounter("pos_sessions_count")
	metricApportionMillis = metrics.LazyLoadHistogram("pos_apportion_duration_ms", metrics.BucketHTTPReqs)
	metricEnabledPools    = metrics.LazyLoadGauge("pos_enabled_pools")
	metricSchedules       = metrics.LazyLoadGauge("pos_schedules")
)

func observeOp(op string, err error) {
	result := "success"
	switch {
	case reverts.IsRevertErr(err):
		result = "revert"
	case err != nil:
		result = "failure"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}
