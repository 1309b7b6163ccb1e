// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		session uint32
		index   uint32
	}{
		{0, 0},
		{1, 1},
		{math.MaxUint32, math.MaxInt32},
		{12345, 678},
	}
	for _, tt := range tests {
		seq := newSequence(tt.session, tt.index)
		assert.Equal(t, tt.session, seq.Session())
		assert.Equal(t, tt.index, seq.Index())
	}

	assert.Less(t, int64(newSequence(1, math.MaxInt32)), int64(newSequence(2, 0)))
	assert.Panics(t, func() { newSequence(1, math.MaxInt32+1) })
}
