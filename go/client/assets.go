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
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// ERC20 is a binding of a fungible token ledger.
type ERC20 struct {
	contract
}

func NewERC20(backend Backend, address tba.Address) *ERC20 {
	return &ERC20{contract{backend: backend, address: address, abi: contracts.ERC20}}
}

func (t *ERC20) BalanceOf(owner tba.Address) (tba.Value, error) {
	res, err := t.query("balanceOf", contracts.EthAddress(owner))
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (t *ERC20) TotalSupply() (tba.Value, error) {
	res, err := t.query("totalSupply")
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (t *ERC20) Allowance(owner, spender tba.Address) (tba.Value, error) {
	res, err := t.query("allowance", contracts.EthAddress(owner), contracts.EthAddress(spender))
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (t *ERC20) Mint(from, to tba.Address, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "mint", contracts.EthAddress(to), contracts.Big(amount))
	return err
}

func (t *ERC20) Transfer(from, to tba.Address, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "transfer", contracts.EthAddress(to), contracts.Big(amount))
	return err
}

func (t *ERC20) TransferFrom(from, owner, to tba.Address, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "transferFrom",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(amount))
	return err
}

func (t *ERC20) Approve(from, spender tba.Address, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "approve", contracts.EthAddress(spender), contracts.Big(amount))
	return err
}

func (t *ERC20) Burn(from tba.Address, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "burn", contracts.Big(amount))
	return err
}

// ERC721 is a binding of a non-fungible token ledger.
type ERC721 struct {
	contract
}

func NewERC721(backend Backend, address tba.Address) *ERC721 {
	return &ERC721{contract{backend: backend, address: address, abi: contracts.ERC721}}
}

func (t *ERC721) OwnerOf(id tba.Value) (tba.Address, error) {
	res, err := t.query("ownerOf", contracts.Big(id))
	if err != nil {
		return tba.Address{}, err
	}
	return toAddress(res[0]), nil
}

func (t *ERC721) BalanceOf(owner tba.Address) (tba.Value, error) {
	res, err := t.query("balanceOf", contracts.EthAddress(owner))
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (t *ERC721) Mint(from, to tba.Address, id tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "mint", contracts.EthAddress(to), contracts.Big(id))
	return err
}

func (t *ERC721) SafeMint(from, to tba.Address, id tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "safeMint", contracts.EthAddress(to), contracts.Big(id))
	return err
}

func (t *ERC721) TransferFrom(from, owner, to tba.Address, id tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "transferFrom",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(id))
	return err
}

func (t *ERC721) SafeTransferFrom(from, owner, to tba.Address, id tba.Value, data []byte) error {
	if data == nil {
		_, err := t.transact(from, tba.Value{}, "safeTransferFrom",
			contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(id))
		return err
	}
	_, err := t.transact(from, tba.Value{}, "safeTransferFrom0",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(id), data)
	return err
}

func (t *ERC721) Approve(from, to tba.Address, id tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "approve", contracts.EthAddress(to), contracts.Big(id))
	return err
}

func (t *ERC721) SetApprovalForAll(from, operator tba.Address, approved bool) error {
	_, err := t.transact(from, tba.Value{}, "setApprovalForAll", contracts.EthAddress(operator), approved)
	return err
}

func (t *ERC721) Burn(from tba.Address, id tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "burn", contracts.Big(id))
	return err
}

// ERC1155 is a binding of a multi-token ledger.
type ERC1155 struct {
	contract
}

func NewERC1155(backend Backend, address tba.Address) *ERC1155 {
	return &ERC1155{contract{backend: backend, address: address, abi: contracts.ERC1155}}
}

func (t *ERC1155) BalanceOf(owner tba.Address, id tba.Value) (tba.Value, error) {
	res, err := t.query("balanceOf", contracts.EthAddress(owner), contracts.Big(id))
	if err != nil {
		return tba.Value{}, err
	}
	return toValue(res[0])
}

func (t *ERC1155) BalanceOfBatch(owners []tba.Address, ids []tba.Value) ([]tba.Value, error) {
	res, err := t.query("balanceOfBatch", contracts.EthAddresses(owners), contracts.Bigs(ids))
	if err != nil {
		return nil, err
	}
	return toValues(res[0])
}

func (t *ERC1155) Mint(from, to tba.Address, id, amount tba.Value, data []byte) error {
	_, err := t.transact(from, tba.Value{}, "mint",
		contracts.EthAddress(to), contracts.Big(id), contracts.Big(amount), nonNil(data))
	return err
}

func (t *ERC1155) MintBatch(from, to tba.Address, ids, amounts []tba.Value, data []byte) error {
	_, err := t.transact(from, tba.Value{}, "mintBatch",
		contracts.EthAddress(to), contracts.Bigs(ids), contracts.Bigs(amounts), nonNil(data))
	return err
}

func (t *ERC1155) SafeTransferFrom(from, owner, to tba.Address, id, amount tba.Value, data []byte) error {
	_, err := t.transact(from, tba.Value{}, "safeTransferFrom",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(id), contracts.Big(amount), nonNil(data))
	return err
}

func (t *ERC1155) SafeBatchTransferFrom(from, owner, to tba.Address, ids, amounts []tba.Value, data []byte) error {
	_, err := t.transact(from, tba.Value{}, "safeBatchTransferFrom",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Bigs(ids), contracts.Bigs(amounts), nonNil(data))
	return err
}

func (t *ERC1155) SetApprovalForAll(from, operator tba.Address, approved bool) error {
	_, err := t.transact(from, tba.Value{}, "setApprovalForAll", contracts.EthAddress(operator), approved)
	return err
}

func (t *ERC1155) Burn(from, owner tba.Address, id, amount tba.Value) error {
	_, err := t.transact(from, tba.Value{}, "burn",
		contracts.EthAddress(owner), contracts.Big(id), contracts.Big(amount))
	return err
}

func nonNil(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}
