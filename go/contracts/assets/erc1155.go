// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package assets

import (
	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/tba"
)

var (
	erc1155Balances          = contracts.Slot(0) // mapping(uint256 => mapping(address => uint256))
	erc1155OperatorApprovals = contracts.Slot(1) // mapping(address => mapping(address => bool))
)

var erc1155Interfaces = map[[4]byte]bool{
	erc165InterfaceID: true,
	{0xd9, 0xb6, 0x7a, 0x26}: true, // ERC-1155
	{0x0e, 0x89, 0x34, 0x1c}: true, // ERC-1155 metadata URI
}

var (
	erc1155SingleReceiver = receiverCheck{
		abi:            contracts.ERC1155Receiver,
		hook:           "onERC1155Received",
		notImplemented: "ERC1155: transfer to non-ERC1155Receiver implementer",
		rejected:       "ERC1155: ERC1155Receiver rejected tokens",
	}
	erc1155BatchReceiver = receiverCheck{
		abi:            contracts.ERC1155Receiver,
		hook:           "onERC1155BatchReceived",
		notImplemented: "ERC1155: transfer to non-ERC1155Receiver implementer",
		rejected:       "ERC1155: ERC1155Receiver rejected tokens",
	}
)

// NewERC1155 creates a multi-token ledger.
func NewERC1155() *contracts.Dispatcher {
	return contracts.NewDispatcher(contracts.ERC1155).
		Handle("supportsInterface", func(call contracts.Call) ([]any, error) {
			return []any{erc1155Interfaces[call.Bytes4(0)]}, nil
		}).
		Handle("balanceOf", func(call contracts.Call) ([]any, error) {
			account := call.Address(0)
			if account == (tba.Address{}) {
				return nil, contracts.RevertWithReason("ERC1155: address zero is not a valid owner")
			}
			return []any{contracts.Big(balanceOf1155(call.Parameters, account, call.Value(1)))}, nil
		}).
		Handle("balanceOfBatch", func(call contracts.Call) ([]any, error) {
			accounts, ids := call.Addresses(0), call.Values(1)
			if len(accounts) != len(ids) {
				return nil, contracts.RevertWithReason("ERC1155: accounts and ids length mismatch")
			}
			res := make([]tba.Value, len(ids))
			for i := range ids {
				res[i] = balanceOf1155(call.Parameters, accounts[i], ids[i])
			}
			return []any{contracts.Bigs(res)}, nil
		}).
		Handle("isApprovedForAll", func(call contracts.Call) ([]any, error) {
			return []any{isApprovedForAll(call.Parameters, erc1155OperatorApprovals, call.Address(0), call.Address(1))}, nil
		}).
		Handle("setApprovalForAll", func(call contracts.Call) ([]any, error) {
			return nil, setApprovalForAll(call, contracts.ERC1155, erc1155OperatorApprovals, "ERC1155: setting approval status for self")
		}).
		Handle("safeTransferFrom", erc1155SafeTransferFrom).
		Handle("safeBatchTransferFrom", erc1155SafeBatchTransferFrom).
		Handle("mint", erc1155Mint).
		Handle("mintBatch", erc1155MintBatch).
		Handle("burn", erc1155Burn)
}

func balanceKey1155(account tba.Address, id tba.Value) tba.Key {
	return contracts.MappingSlot(valueKey(erc1155Balances, id), tba.AddressToWord(account))
}

func balanceOf1155(params tba.Parameters, account tba.Address, id tba.Value) tba.Value {
	return contracts.StorageOf(params).GetValue(balanceKey1155(account, id))
}

func requireOwnerOrApproved(call contracts.Call, owner tba.Address) error {
	if owner != call.Sender && !isApprovedForAll(call.Parameters, erc1155OperatorApprovals, owner, call.Sender) {
		return contracts.RevertWithReason("ERC1155: caller is not token owner or approved")
	}
	return nil
}

// update moves the given amounts of tokens. A zero from address mints, a zero
// to address burns.
func update(params tba.Parameters, from, to tba.Address, ids, values []tba.Value) error {
	if len(ids) != len(values) {
		return contracts.RevertWithReason("ERC1155: ids and amounts length mismatch")
	}
	storage := contracts.StorageOf(params)
	for i, id := range ids {
		if from != (tba.Address{}) {
			if err := debit(storage, balanceKey1155(from, id), values[i], "ERC1155: insufficient balance for transfer"); err != nil {
				return err
			}
		}
		if to != (tba.Address{}) {
			if err := credit(storage, balanceKey1155(to, id), values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func emitTransfer1155(params tba.Parameters, operator, from, to tba.Address, ids, values []tba.Value, batch bool) error {
	if !batch {
		return contracts.EmitEvent(params, contracts.ERC1155, "TransferSingle",
			contracts.EthAddress(operator), contracts.EthAddress(from), contracts.EthAddress(to),
			contracts.Big(ids[0]), contracts.Big(values[0]))
	}
	return contracts.EmitEvent(params, contracts.ERC1155, "TransferBatch",
		contracts.EthAddress(operator), contracts.EthAddress(from), contracts.EthAddress(to),
		contracts.Bigs(ids), contracts.Bigs(values))
}

// move transfers, mints or burns tokens and notifies a receiving contract.
func move(call contracts.Call, from, to tba.Address, ids, values []tba.Value, data []byte, batch bool) error {
	if err := update(call.Parameters, from, to, ids, values); err != nil {
		return err
	}
	if err := emitTransfer1155(call.Parameters, call.Sender, from, to, ids, values, batch); err != nil {
		return err
	}
	if to == (tba.Address{}) {
		return nil
	}
	operator := contracts.EthAddress(call.Sender)
	if batch {
		return erc1155BatchReceiver.run(call.Parameters, to,
			operator, contracts.EthAddress(from), contracts.Bigs(ids), contracts.Bigs(values), data)
	}
	return erc1155SingleReceiver.run(call.Parameters, to,
		operator, contracts.EthAddress(from), contracts.Big(ids[0]), contracts.Big(values[0]), data)
}

func erc1155SafeTransferFrom(call contracts.Call) ([]any, error) {
	from, to := call.Address(0), call.Address(1)
	if err := requireOwnerOrApproved(call, from); err != nil {
		return nil, err
	}
	if to == (tba.Address{}) {
		return nil, contracts.RevertWithReason("ERC1155: transfer to the zero address")
	}
	ids, values := []tba.Value{call.Value(2)}, []tba.Value{call.Value(3)}
	return nil, move(call, from, to, ids, values, call.Bytes(4), false)
}

func erc1155SafeBatchTransferFrom(call contracts.Call) ([]any, error) {
	from, to := call.Address(0), call.Address(1)
	if err := requireOwnerOrApproved(call, from); err != nil {
		return nil, err
	}
	if to == (tba.Address{}) {
		return nil, contracts.RevertWithReason("ERC1155: transfer to the zero address")
	}
	return nil, move(call, from, to, call.Values(2), call.Values(3), call.Bytes(4), true)
}

func erc1155Mint(call contracts.Call) ([]any, error) {
	to := call.Address(0)
	if to == (tba.Address{}) {
		return nil, contracts.RevertWithReason("ERC1155: mint to the zero address")
	}
	ids, values := []tba.Value{call.Value(1)}, []tba.Value{call.Value(2)}
	return nil, move(call, tba.Address{}, to, ids, values, call.Bytes(3), false)
}

func erc1155MintBatch(call contracts.Call) ([]any, error) {
	to := call.Address(0)
	if to == (tba.Address{}) {
		return nil, contracts.RevertWithReason("ERC1155: mint to the zero address")
	}
	return nil, move(call, tba.Address{}, to, call.Values(1), call.Values(2), call.Bytes(3), true)
}

func erc1155Burn(call contracts.Call) ([]any, error) {
	from := call.Address(0)
	if err := requireOwnerOrApproved(call, from); err != nil {
		return nil, err
	}
	if from == (tba.Address{}) {
		return nil, contracts.RevertWithReason("ERC1155: burn from the zero address")
	}
	ids, values := []tba.Value{call.Value(1)}, []tba.Value{call.Value(2)}
	storage := contracts.StorageOf(call.Parameters)
	if err := debit(storage, balanceKey1155(from, ids[0]), values[0], "ERC1155: burn amount exceeds balance"); err != nil {
		return nil, err
	}
	return nil, emitTransfer1155(call.Parameters, call.Sender, from, tba.Address{}, ids, values, false)
}
