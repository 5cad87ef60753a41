// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package client

import (
	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// Registry is a binding of an ERC-6551 registry.
type Registry struct {
	contract
}

func NewRegistry(backend Backend, address tba.Address) *Registry {
	return &Registry{contract{backend: backend, address: address, abi: registry.ABI}}
}

func identityArgs(identity registry.Identity) []any {
	return []any{
		contracts.EthAddress(identity.Implementation),
		contracts.Big(identity.ChainID),
		contracts.EthAddress(identity.TokenContract),
		contracts.Big(identity.TokenID),
		contracts.Big(identity.Salt),
	}
}

// Account obtains the address of the account with the given identity as
// computed by the registry.
func (r *Registry) Account(identity registry.Identity) (tba.Address, error) {
	res, err := r.query("account", identityArgs(identity)...)
	if err != nil {
		return tba.Address{}, err
	}
	return toAddress(res[0]), nil
}

// CreateAccount creates the account with the given identity, or returns the
// address of the existing one. Non-empty init data is sent to a newly created
// account.
func (r *Registry) CreateAccount(from tba.Address, identity registry.Identity, initData []byte) (tba.Address, error) {
	res, err := r.transact(from, tba.Value{}, "createAccount", append(identityArgs(identity), nonNil(initData))...)
	if err != nil {
		return tba.Address{}, err
	}
	return toAddress(res[0]), nil
}

// AccountsOf lists all accounts created for the given token, in order of
// creation requests.
func (r *Registry) AccountsOf(tokenContract tba.Address, tokenID tba.Value) ([]tba.Address, error) {
	res, err := r.query("accountsOf", contracts.EthAddress(tokenContract), contracts.Big(tokenID))
	if err != nil {
		return nil, err
	}
	return toAddresses(res[0]), nil
}
