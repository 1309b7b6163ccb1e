// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/liquidity-mining/builtin/issuance"
	"github.com/vechain/liquidity-mining/mining"
)

// nativeTokenName refers to the native token in scenario files.
const nativeTokenName = "native"

// amount is a non-negative decimal or 0x prefixed hex integer of at most 256 bits.
type amount struct {
	*big.Int
}

func (a *amount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", value.Line)
	}
	v, ok := math.ParseBig256(strings.ReplaceAll(value.Value, "_", ""))
	if !ok || v.Sign() < 0 {
		return fmt.Errorf("line %d: invalid amount %q", value.Line, value.Value)
	}
	a.Int = v
	return nil
}

func (a amount) value() *big.Int {
	if a.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Int)
}

type scenarioParams struct {
	SchedulesLimit       uint32  `yaml:"schedulesLimit"`
	MinRewardsPerSession *amount `yaml:"minRewardsPerSession"`
	MaxScheduleSessions  uint32  `yaml:"maxScheduleSessions"`
}

type scenarioIssuance struct {
	TotalCap               *amount `yaml:"totalCap"`
	LinearIssuanceSessions uint32  `yaml:"linearIssuanceSessions"`
	LiquidityMiningSplit   *uint8  `yaml:"liquidityMiningSplit"`
}

type scenarioToken struct {
	Name   string `yaml:"name"`
	Owner  string `yaml:"owner"`
	Supply amount `yaml:"supply"`
}

type scenarioPool struct {
	Name        string `yaml:"name"`
	Base        string `yaml:"base"`
	Quote       string `yaml:"quote"`
	Creator     string `yaml:"creator"`
	BaseAmount  amount `yaml:"baseAmount"`
	QuoteAmount amount `yaml:"quoteAmount"`
	Weight      uint8  `yaml:"weight"`
}

type scenarioTransfer struct {
	Token  string `yaml:"token"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount amount `yaml:"amount"`
}

// operation kinds of a scenario step
const (
	opActivate       = "activate"
	opDeactivate     = "deactivate"
	opClaim          = "claim"
	opPromote        = "promote"
	opSchedule       = "schedule"
	opSchedulesLimit = "schedules-limit"
	opTransfer       = "transfer"
)

// scenarioOp is applied after session After has been apportioned, zero meaning before the first one.
type scenarioOp struct {
	After    uint32 `yaml:"after"`
	Op       string `yaml:"op"`
	Account  string `yaml:"account"`
	Pool     string `yaml:"pool"`
	Token    string `yaml:"token"`
	To       string `yaml:"to"`
	Amount   amount `yaml:"amount"`
	Weight   uint8  `yaml:"weight"`
	Sessions uint32 `yaml:"sessions"`
	Limit    uint32 `yaml:"limit"`
	// Expect is a substring of the error the operation must fail with.
	Expect string `yaml:"expect"`
}

// Scenario scripts a simulation: the initial ledger, the pools and the operations applied between sessions.
type Scenario struct {
	Sessions   uint32             `yaml:"sessions"`
	Params     scenarioParams     `yaml:"params"`
	Issuance   scenarioIssuance   `yaml:"issuance"`
	Endowments []scenarioTransfer `yaml:"endowments"`
	Tokens     []scenarioToken    `yaml:"tokens"`
	Pools      []scenarioPool     `yaml:"pools"`
	Transfers  []scenarioTransfer `yaml:"transfers"`
	Operations []scenarioOp       `yaml:"operations"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario")
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *Scenario) validate() error {
	names := map[string]bool{nativeTokenName: true}
	declare := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%s: missing name", kind)
		}
		if names[name] {
			return fmt.Errorf("%s %q: name already used", kind, name)
		}
		names[name] = true
		return nil
	}
	for _, t := range sc.Tokens {
		if err := declare("token", t.Name); err != nil {
			return err
		}
	}
	for _, p := range sc.Pools {
		if err := declare("pool", p.Name); err != nil {
			return err
		}
		if !names[p.Base] || !names[p.Quote] {
			return fmt.Errorf("pool %q: unknown pair %s/%s", p.Name, p.Base, p.Quote)
		}
	}
	for _, tr := range append(append([]scenarioTransfer{}, sc.Endowments...), sc.Transfers...) {
		if !names[tr.Token] {
			return fmt.Errorf("transfer: unknown token %q", tr.Token)
		}
	}
	for i, op := range sc.Operations {
		switch op.Op {
		case opActivate, opDeactivate, opClaim, opPromote, opSchedule, opSchedulesLimit, opTransfer:
		default:
			return fmt.Errorf("operations[%d]: unknown op %q", i, op.Op)
		}
		if op.After > sc.Sessions {
			return fmt.Errorf("operations[%d]: after session %d is beyond the last session %d", i, op.After, sc.Sessions)
		}
		if op.Pool != "" && !names[op.Pool] {
			return fmt.Errorf("operations[%d]: unknown pool %q", i, op.Pool)
		}
		if op.Token != "" && !names[op.Token] {
			return fmt.Errorf("operations[%d]: unknown token %q", i, op.Token)
		}
	}
	return nil
}

func (sc *Scenario) params() mining.Params {
	params := mining.DefaultParams()
	if sc.Params.SchedulesLimit > 0 {
		params.RewardsSchedulesLimit = sc.Params.SchedulesLimit
	}
	if sc.Params.MinRewardsPerSession != nil {
		params.MinRewardsPerSession = sc.Params.MinRewardsPerSession.value()
	}
	if sc.Params.MaxScheduleSessions > 0 {
		params.MaxScheduleSessions = sc.Params.MaxScheduleSessions
	}
	return params
}

func (sc *Scenario) issuanceConfig() issuance.Config {
	config := issuance.DefaultConfig()
	if sc.Issuance.TotalCap != nil {
		config.TotalCap = sc.Issuance.TotalCap.value()
	}
	if sc.Issuance.LinearIssuanceSessions > 0 {
		config.LinearIssuanceSessions = sc.Issuance.LinearIssuanceSessions
	}
	if sc.Issuance.LiquidityMiningSplit != nil {
		config.LiquidityMiningSplit = *sc.Issuance.LiquidityMiningSplit
	}
	return config
}

// accountAddress resolves an account of a scenario: a hex address, or a name hashed into one.
func accountAddress(account string) (mining.Address, error) {
	if account == "" {
		return mining.Address{}, errors.New("missing account")
	}
	if strings.HasPrefix(account, "0x") {
		return mining.ParseAddress(account)
	}
	return mining.BytesToAddress([]byte(account)), nil
}
