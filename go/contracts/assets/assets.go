// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package assets provides minimal native ERC-20, ERC-721 and ERC-1155
// ledgers. Minting is open to everyone; the ledgers exist to move assets in
// and out of token-bound accounts.
package assets

import (
	"errors"

	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Names under which the ledgers are registered.
const (
	ERC20Name   = "erc20"
	ERC721Name  = "erc721"
	ERC1155Name = "erc1155"
)

func init() {
	tba.MustRegisterContract(ERC20Name, NewERC20())
	tba.MustRegisterContract(ERC721Name, NewERC721())
	tba.MustRegisterContract(ERC1155Name, NewERC1155())
}

var (
	erc165InterfaceID = [4]byte{0x01, 0xff, 0xc9, 0xa7}
	maxValue          = tba.Value{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
)

// credit adds the amount to the value stored at the given key.
func credit(storage contracts.Storage, key tba.Key, amount tba.Value) error {
	sum, overflow := tba.Add(storage.GetValue(key), amount)
	if overflow {
		return contracts.RevertWithReason("arithmetic overflow")
	}
	storage.SetValue(key, sum)
	return nil
}

// debit subtracts the amount from the value stored at the given key. If the
// stored value is insufficient, the call reverts with the given reason.
func debit(storage contracts.Storage, key tba.Key, amount tba.Value, reason string) error {
	rest, underflow := tba.Sub(storage.GetValue(key), amount)
	if underflow {
		return contracts.RevertWithReason(reason)
	}
	storage.SetValue(key, rest)
	return nil
}

func addressKey(slot tba.Key, address tba.Address) tba.Key {
	return contracts.MappingSlot(slot, tba.AddressToWord(address))
}

func valueKey(slot tba.Key, value tba.Value) tba.Key {
	return contracts.MappingSlot(slot, tba.Word(value))
}

func operatorKey(slot tba.Key, owner, operator tba.Address) tba.Key {
	return contracts.MappingSlot(addressKey(slot, owner), tba.AddressToWord(operator))
}

func isApprovedForAll(params tba.Parameters, slot tba.Key, owner, operator tba.Address) bool {
	return contracts.StorageOf(params).GetBool(operatorKey(slot, owner, operator))
}

// setApprovalForAll grants or revokes the permission of an operator to move
// all tokens of the caller. Ledgers keep approvals in a nested mapping at the
// given slot.
func setApprovalForAll(call contracts.Call, ledger *abi.ABI, slot tba.Key, selfApproval string) error {
	operator, approved := call.Address(0), call.Bool(1)
	if operator == call.Sender {
		return contracts.RevertWithReason(selfApproval)
	}
	contracts.StorageOf(call.Parameters).SetBool(operatorKey(slot, call.Sender, operator), approved)
	return contracts.EmitEvent(call.Parameters, ledger, "ApprovalForAll",
		contracts.EthAddress(call.Sender), contracts.EthAddress(operator), approved)
}

// receiverCheck describes the acceptance hook invoked when tokens are
// transferred to a contract.
type receiverCheck struct {
	abi *abi.ABI
	// hook is the method to be called on the recipient.
	hook string
	// notImplemented is the revert reason used if the recipient does not
	// implement the hook.
	notImplemented string
	// rejected is the revert reason used if the recipient answers with
	// anything but the hook's selector.
	rejected string
}

// run calls the acceptance hook of the recipient if the recipient is a
// contract. Reverts of the hook carrying data are passed on unchanged.
func (c receiverCheck) run(params tba.Parameters, to tba.Address, args ...any) error {
	if !contracts.IsContract(params, to) {
		return nil
	}
	res, err := contracts.Invoke(params, tba.Call, to, tba.Value{}, c.abi, c.hook, args...)
	if err != nil {
		var revert *contracts.Revert
		if errors.As(err, &revert) && len(revert.Data) == 0 {
			return contracts.RevertWithReason(c.notImplemented)
		}
		return err
	}
	if magic, _ := res[0].([4]byte); magic != contracts.Selector(c.abi, c.hook) {
		return contracts.RevertWithReason(c.rejected)
	}
	return nil
}
