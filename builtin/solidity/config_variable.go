// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/vechain/liquidity-mining/log"
	"github.com/vechain/liquidity-mining/mining"
)

// ConfigVariable is a uint32 setting with a compiled-in default that can be overridden in storage.
type ConfigVariable struct {
	slot         mining.Bytes32
	name         string
	defaultValue uint32
}

func NewConfigVariable(name string, defaultValue uint32) *ConfigVariable {
	return &ConfigVariable{
		slot:         mining.BytesToBytes32([]byte(name)),
		name:         name,
		defaultValue: defaultValue,
	}
}

func (c *ConfigVariable) Name() string {
	return c.name
}

func (c *ConfigVariable) Slot() mining.Bytes32 {
	return c.slot
}

// Get returns the stored override, or the default when none is stored.
func (c *ConfigVariable) Get(ctx *Context) uint32 {
	storage, err := ctx.state.GetStorage(ctx.address, c.slot)
	if err != nil {
		log.Warn("failed to read config value", "slot", c.name, "error", err)
		return c.defaultValue
	}
	num := new(big.Int).SetBytes(storage.Bytes())
	if num.Sign() == 0 || !num.IsUint64() || num.Uint64() > uint64(^uint32(0)) {
		return c.defaultValue
	}
	return uint32(num.Uint64())
}

// Override stores a new value, zero restores the default.
func (c *ConfigVariable) Override(ctx *Context, value uint32) {
	ctx.state.SetStorage(ctx.address, c.slot, mining.BytesToBytes32(new(big.Int).SetUint64(uint64(value)).Bytes()))
	log.Debug("config value overridden", "slot", c.name, "value", value)
}
