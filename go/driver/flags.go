// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"
	"strings"

	"github.com/Fantom-foundation/tokenbound/go/chain"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	configFlag = cli.StringFlag{
		Name:      "config",
		Aliases:   []string{"c"},
		Usage:     "YAML configuration file",
		TakesFile: true,
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory of the persisted chain state, in-memory if empty",
	}
	chainIDFlag = cli.Uint64Flag{
		Name:  "chain-id",
		Usage: "id of the chain accounts are bound to",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "one of debug, info, warn, error",
	}
)

// addressFlag is a flag holding a 0x prefixed address.
type addressFlag struct {
	cli.StringFlag
}

func newAddressFlag(name, usage string, value tba.Address) *addressFlag {
	res := &addressFlag{cli.StringFlag{Name: name, Usage: usage}}
	if value != (tba.Address{}) {
		res.Value = value.String()
	}
	return res
}

func (f *addressFlag) Fetch(context *cli.Context) (tba.Address, error) {
	text := context.String(f.Name)
	if text == "" {
		return tba.Address{}, fmt.Errorf("missing --%s", f.Name)
	}
	return chain.ParseAddress(text)
}

// valueFlag is a flag holding a 256-bit value in decimal or 0x prefixed
// hexadecimal notation.
type valueFlag struct {
	cli.StringFlag
}

func newValueFlag(name, usage string) *valueFlag {
	return &valueFlag{cli.StringFlag{Name: name, Usage: usage, Value: "0"}}
}

func (f *valueFlag) Fetch(context *cli.Context) (tba.Value, error) {
	return parseValue(context.String(f.Name))
}

func parseValue(text string) (tba.Value, error) {
	value := new(uint256.Int)
	var err error
	if strings.HasPrefix(text, "0x") {
		err = value.SetFromHex(text)
	} else {
		err = value.SetFromDecimal(text)
	}
	if err != nil {
		return tba.Value{}, fmt.Errorf("invalid value %q: %w", text, err)
	}
	return tba.ValueFromUint256(value), nil
}

var (
	registryFlag       = newAddressFlag("registry", "address of the registry", chain.RegistryAddress)
	implementationFlag = newAddressFlag("implementation", "account implementation", chain.AccountImplementation)
	tokenContractFlag  = newAddressFlag("token-contract", "contract of the bound token", chain.SampleERC721)
	fromFlag           = newAddressFlag("from", "sender of the transaction", tba.Address{})
	tokenIDFlag        = newValueFlag("token-id", "id of the bound token")
	saltFlag           = newValueFlag("salt", "salt distinguishing accounts of the same token")
)
