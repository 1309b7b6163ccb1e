// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mining

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"with prefix", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"without prefix", "7567d83b7b8d80addcb281a71d54fc7b3364ffed", false},
		{"bad prefix", "1x7567d83b7b8d80addcb281a71d54fc7b3364ffed", true},
		{"short", "0x7567", true},
		{"not hex", "0x7567d83b7b8d80addcb281a71d54fc7b3364ffzz", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
		})
	}
}

func TestAddressJSON(t *testing.T) {
	addr := BytesToAddress([]byte("alice"))

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
	assert.False(t, decoded.IsZero())
}

func TestBytesToAddress(t *testing.T) {
	long := make([]byte, 32)
	long[31] = 1
	assert.Equal(t, byte(1), BytesToAddress(long)[AddressLength-1])
	assert.Equal(t, byte(2), BytesToAddress([]byte{2})[AddressLength-1])
}
