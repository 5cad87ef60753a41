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
	"github.com/Fantom-foundation/tokenbound/go/contracts/account"
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// Account is a binding of a token-bound account.
type Account struct {
	contract
}

func NewAccount(backend Backend, address tba.Address) *Account {
	return &Account{contract{backend: backend, address: address, abi: account.ABI}}
}

// Token returns the token the account is bound to.
func (a *Account) Token() (account.Token, error) {
	res, err := a.query("token")
	if err != nil {
		return account.Token{}, err
	}
	chainID, err := toValue(res[0])
	if err != nil {
		return account.Token{}, err
	}
	tokenID, err := toValue(res[2])
	if err != nil {
		return account.Token{}, err
	}
	return account.Token{ChainID: chainID, Contract: toAddress(res[1]), ID: tokenID}, nil
}

// Owner returns the current holder of the bound token.
func (a *Account) Owner() (tba.Address, error) {
	res, err := a.query("owner")
	if err != nil {
		return tba.Address{}, err
	}
	return toAddress(res[0]), nil
}

// State returns the number of operations executed by the account.
func (a *Account) State() (tba.Value, error) {
	res, err := a.query("state")
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (a *Account) IsValidSigner(signer tba.Address, context []byte) ([4]byte, error) {
	res, err := a.query("isValidSigner", contracts.EthAddress(signer), nonNil(context))
	if err != nil {
		return [4]byte{}, err
	}
	return res[0].([4]byte), nil
}

func (a *Account) IsValidSignature(hash tba.Hash, signature []byte) ([]byte, error) {
	res, err := a.query("isValidSignature", [32]byte(hash), signature)
	if err != nil {
		return nil, err
	}
	return res[0].([]byte), nil
}

func (a *Account) SupportsInterface(id [4]byte) (bool, error) {
	res, err := a.query("supportsInterface", id)
	if err != nil {
		return false, err
	}
	return res[0].(bool), nil
}

// Execute makes the account perform a call. Only account.OperationCall is
// accepted by accounts.
func (a *Account) Execute(from, to tba.Address, value tba.Value, data []byte, operation account.Operation) ([]byte, error) {
	res, err := a.transact(from, tba.Value{}, "execute",
		contracts.EthAddress(to), contracts.Big(value), nonNil(data), uint8(operation))
	if err != nil {
		return nil, err
	}
	return res[0].([]byte), nil
}

func (a *Account) TransferCoin(from, to tba.Address, amount tba.Value) error {
	_, err := a.transact(from, tba.Value{}, "transferCoin", contracts.EthAddress(to), contracts.Big(amount))
	return err
}

func (a *Account) Transfer20(from, token, to tba.Address, amount tba.Value) error {
	_, err := a.transact(from, tba.Value{}, "transfer20",
		contracts.EthAddress(token), contracts.EthAddress(to), contracts.Big(amount))
	return err
}

func (a *Account) Transfer721(from, token, to tba.Address, tokenID tba.Value) error {
	_, err := a.transact(from, tba.Value{}, "transfer721",
		contracts.EthAddress(token), contracts.EthAddress(to), contracts.Big(tokenID))
	return err
}

func (a *Account) Transfer1155(from, token, to tba.Address, id, amount tba.Value, data []byte) error {
	_, err := a.transact(from, tba.Value{}, "transfer1155",
		contracts.EthAddress(token), contracts.EthAddress(to), contracts.Big(id), contracts.Big(amount), nonNil(data))
	return err
}
