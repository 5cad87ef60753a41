// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package registry implements the ERC-6551 registry as a native contract.
// The registry deploys account proxies at deterministic addresses and keeps
// an index of all accounts created for a token.
package registry

import (
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// Name is the name under which the registry is registered.
const Name = "erc6551-registry"

func init() {
	tba.MustRegisterContract(Name, New())
}

// accountsSlot holds mapping(address => mapping(uint256 => address[])).
var accountsSlot = contracts.Slot(0)

// New creates the native registry implementation.
func New() *contracts.Dispatcher {
	return contracts.NewDispatcher(ABI).
		Handle("account", account).
		Handle("createAccount", createAccount).
		Handle("accountsOf", accountsOf)
}

func identityOf(call contracts.Call) Identity {
	return Identity{
		Implementation: call.Address(0),
		ChainID:        call.Value(1),
		TokenContract:  call.Address(2),
		TokenID:        call.Value(3),
		Salt:           call.Value(4),
	}
}

func indexSlot(tokenContract tba.Address, tokenID tba.Value) tba.Key {
	perContract := contracts.MappingSlot(accountsSlot, tba.AddressToWord(tokenContract))
	return contracts.MappingSlot(perContract, tba.Word(tokenID))
}

func account(call contracts.Call) ([]any, error) {
	return []any{contracts.EthAddress(ComputeAddress(call.Recipient, identityOf(call)))}, nil
}

func createAccount(call contracts.Call) ([]any, error) {
	identity := identityOf(call)
	initData := call.Bytes(5)
	address := ComputeAddress(call.Recipient, identity)

	if !contracts.IsContract(call.Parameters, address) {
		if err := deploy(call, identity, address); err != nil {
			return nil, err
		}
		if len(initData) > 0 {
			_, err := contracts.Forward(call.Parameters, tba.Call, address, tba.Value{}, initData)
			if err != nil {
				return nil, err
			}
		}
	}

	// Every request is recorded, including those for existing accounts.
	contracts.StorageOf(call.Parameters).Push(
		indexSlot(identity.TokenContract, identity.TokenID),
		tba.AddressToWord(address),
	)
	return []any{contracts.EthAddress(address)}, nil
}

func deploy(call contracts.Call, identity Identity, address tba.Address) error {
	result, err := call.Context.Call(tba.Create2, tba.CallParameters{
		Sender: call.Recipient,
		Input:  tba.Data(identity.CreationCode()),
		Salt:   tba.Hash(identity.Salt),
	})
	if err != nil {
		return err
	}
	if !result.Success {
		return contracts.RevertWithError(ABI, "AccountCreationFailed")
	}
	if result.CreatedAddress != address {
		return fmt.Errorf("account %v created at unexpected address %v", identity, result.CreatedAddress)
	}
	return contracts.EmitEvent(call.Parameters, ABI, "AccountCreated",
		contracts.EthAddress(address),
		contracts.EthAddress(identity.Implementation),
		contracts.Big(identity.ChainID),
		contracts.EthAddress(identity.TokenContract),
		contracts.Big(identity.TokenID),
		contracts.Big(identity.Salt),
	)
}

func accountsOf(call contracts.Call) ([]any, error) {
	words := contracts.StorageOf(call.Parameters).Elements(indexSlot(call.Address(0), call.Value(1)))
	res := make([]tba.Address, len(words))
	for i, word := range words {
		res[i] = tba.WordToAddress(word)
	}
	return []any{contracts.EthAddresses(res)}, nil
}
