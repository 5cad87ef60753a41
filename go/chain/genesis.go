// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/contracts/account"
	"github.com/Fantom-foundation/tokenbound/go/contracts/assets"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// Well-known addresses of the contracts deployed at genesis.
var (
	RegistryAddress       = mustParseAddress("0x000000006551c19487814612e58FE06813775758")
	AccountImplementation = mustParseAddress("0x41C8f39463A868d3A88af00cd0fe7102F30E44eC")
	SampleERC20           = mustParseAddress("0x0000000000000000000000000000000000002020")
	SampleERC721          = mustParseAddress("0x0000000000000000000000000000000000007210")
	SampleERC1155         = mustParseAddress("0x0000000000000000000000000000000000011550")
)

var genesisContracts = map[tba.Address]string{
	RegistryAddress:       registry.Name,
	AccountImplementation: account.Name,
	SampleERC20:           assets.ERC20Name,
	SampleERC721:          assets.ERC721Name,
	SampleERC1155:         assets.ERC1155Name,
}

// Genesis creates the initial world state holding the registry, the account
// implementation and the sample ledgers. The given accounts are funded with
// the associated balances.
func Genesis(funds map[tba.Address]tba.Value) state.WorldState {
	res := state.WorldState{}
	for address, name := range genesisContracts {
		res[address] = state.Account{
			Nonce: 1,
			Code:  tba.NativeCode(name),
		}
	}
	for address, balance := range funds {
		account := res[address]
		account.Balance = balance
		res[address] = account
	}
	return res
}

// ParseAddress parses a 0x prefixed hex encoded address.
func ParseAddress(text string) (tba.Address, error) {
	var res tba.Address
	if err := res.UnmarshalText([]byte(text)); err != nil {
		return tba.Address{}, fmt.Errorf("invalid address %q: %w", text, err)
	}
	return res, nil
}

func mustParseAddress(text string) tba.Address {
	res, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return res
}
