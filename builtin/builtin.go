// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/liquidity-mining/builtin/issuance"
	"github.com/vechain/liquidity-mining/builtin/pos"
	"github.com/vechain/liquidity-mining/builtin/tokens"
	"github.com/vechain/liquidity-mining/builtin/xyk"
	"github.com/vechain/liquidity-mining/mining"
	"github.com/vechain/liquidity-mining/state"
)

// Builtin contracts binding.
var (
	Tokens   = &tokensContract{newContract("Tokens")}
	XYK      = &xykContract{newContract("XYK")}
	Issuance = &issuanceContract{newContract("Issuance")}
	PoS      = &posContract{newContract("PoS")}
)

type (
	tokensContract   struct{ *contract }
	xykContract      struct{ *contract }
	issuanceContract struct{ *contract }
	posContract      struct{ *contract }
)

func (t *tokensContract) WithState(state *state.State) *tokens.Ledger {
	return tokens.New(t.Address, state)
}

func (x *xykContract) WithState(state *state.State) *xyk.Registry {
	return xyk.New(x.Address, state, Tokens.WithState(state))
}

func (i *issuanceContract) WithState(state *state.State, config issuance.Config, listener issuance.SessionListener) *issuance.Clock {
	return issuance.New(i.Address, state, config, listener)
}

// WithState binds the engine to the builtin token ledger and pool registry.
func (p *posContract) WithState(state *state.State, params mining.Params) *pos.PoS {
	return pos.New(p.Address, state, Tokens.WithState(state), XYK.WithState(state), params)
}
