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
	erc721Owners            = contracts.Slot(0) // mapping(uint256 => address)
	erc721Balances          = contracts.Slot(1) // mapping(address => uint256)
	erc721TokenApprovals    = contracts.Slot(2) // mapping(uint256 => address)
	erc721OperatorApprovals = contracts.Slot(3) // mapping(address => mapping(address => bool))
)

var erc721Interfaces = map[[4]byte]bool{
	erc165InterfaceID: true,
	{0x80, 0xac, 0x58, 0xcd}: true, // ERC-721
	{0x5b, 0x5e, 0x13, 0x9f}: true, // ERC-721 metadata
}

var erc721Receiver = receiverCheck{
	abi:            contracts.ERC721Receiver,
	hook:           "onERC721Received",
	notImplemented: "ERC721: transfer to non ERC721Receiver implementer",
	rejected:       "ERC721: transfer to non ERC721Receiver implementer",
}

// NewERC721 creates a non-fungible token ledger.
func NewERC721() *contracts.Dispatcher {
	return contracts.NewDispatcher(contracts.ERC721).
		Handle("name", constant("Sample NFT")).
		Handle("symbol", constant("SNFT")).
		Handle("supportsInterface", func(call contracts.Call) ([]any, error) {
			return []any{erc721Interfaces[call.Bytes4(0)]}, nil
		}).
		Handle("balanceOf", func(call contracts.Call) ([]any, error) {
			owner := call.Address(0)
			if owner == (tba.Address{}) {
				return nil, contracts.RevertWithReason("ERC721: address zero is not a valid owner")
			}
			balance := contracts.StorageOf(call.Parameters).GetValue(addressKey(erc721Balances, owner))
			return []any{contracts.Big(balance)}, nil
		}).
		Handle("ownerOf", func(call contracts.Call) ([]any, error) {
			owner, err := ownerOf(call.Parameters, call.Value(0))
			if err != nil {
				return nil, err
			}
			return []any{contracts.EthAddress(owner)}, nil
		}).
		Handle("getApproved", func(call contracts.Call) ([]any, error) {
			id := call.Value(0)
			if _, err := ownerOf(call.Parameters, id); err != nil {
				return nil, err
			}
			approved := contracts.StorageOf(call.Parameters).GetAddress(valueKey(erc721TokenApprovals, id))
			return []any{contracts.EthAddress(approved)}, nil
		}).
		Handle("isApprovedForAll", func(call contracts.Call) ([]any, error) {
			return []any{isApprovedForAll(call.Parameters, erc721OperatorApprovals, call.Address(0), call.Address(1))}, nil
		}).
		Handle("approve", erc721Approve).
		Handle("setApprovalForAll", func(call contracts.Call) ([]any, error) {
			return nil, setApprovalForAll(call, contracts.ERC721, erc721OperatorApprovals, "ERC721: approve to caller")
		}).
		Handle("transferFrom", func(call contracts.Call) ([]any, error) {
			return nil, erc721TransferFrom(call, false, nil)
		}).
		Handle("safeTransferFrom", func(call contracts.Call) ([]any, error) {
			return nil, erc721TransferFrom(call, true, nil)
		}).
		Handle("safeTransferFrom0", func(call contracts.Call) ([]any, error) {
			return nil, erc721TransferFrom(call, true, call.Bytes(3))
		}).
		Handle("mint", func(call contracts.Call) ([]any, error) {
			return nil, erc721Mint(call.Parameters, call.Address(0), call.Value(1))
		}).
		Handle("safeMint", func(call contracts.Call) ([]any, error) {
			to, id := call.Address(0), call.Value(1)
			if err := erc721Mint(call.Parameters, to, id); err != nil {
				return nil, err
			}
			return nil, erc721Receiver.run(call.Parameters, to,
				contracts.EthAddress(call.Sender), contracts.EthAddress(tba.Address{}), contracts.Big(id), []byte{})
		}).
		Handle("burn", erc721Burn)
}

func ownerOf(params tba.Parameters, id tba.Value) (tba.Address, error) {
	owner := contracts.StorageOf(params).GetAddress(valueKey(erc721Owners, id))
	if owner == (tba.Address{}) {
		return owner, contracts.RevertWithReason("ERC721: invalid token ID")
	}
	return owner, nil
}

func isApprovedOrOwner(params tba.Parameters, spender tba.Address, id tba.Value) (bool, error) {
	owner, err := ownerOf(params, id)
	if err != nil {
		return false, err
	}
	if spender == owner || isApprovedForAll(params, erc721OperatorApprovals, owner, spender) {
		return true, nil
	}
	approved := contracts.StorageOf(params).GetAddress(valueKey(erc721TokenApprovals, id))
	return approved == spender, nil
}

func erc721Approve(call contracts.Call) ([]any, error) {
	to, id := call.Address(0), call.Value(1)
	owner, err := ownerOf(call.Parameters, id)
	if err != nil {
		return nil, err
	}
	if to == owner {
		return nil, contracts.RevertWithReason("ERC721: approval to current owner")
	}
	if call.Sender != owner && !isApprovedForAll(call.Parameters, erc721OperatorApprovals, owner, call.Sender) {
		return nil, contracts.RevertWithReason("ERC721: approve caller is not token owner or approved for all")
	}
	contracts.StorageOf(call.Parameters).SetAddress(valueKey(erc721TokenApprovals, id), to)
	return nil, contracts.EmitEvent(call.Parameters, contracts.ERC721, "Approval",
		contracts.EthAddress(owner), contracts.EthAddress(to), contracts.Big(id))
}

func erc721TransferFrom(call contracts.Call, safe bool, data []byte) error {
	from, to, id := call.Address(0), call.Address(1), call.Value(2)
	allowed, err := isApprovedOrOwner(call.Parameters, call.Sender, id)
	if err != nil {
		return err
	}
	if !allowed {
		return contracts.RevertWithReason("ERC721: caller is not token owner or approved")
	}
	if err := erc721Transfer(call.Parameters, from, to, id); err != nil {
		return err
	}
	if !safe {
		return nil
	}
	if data == nil {
		data = []byte{}
	}
	return erc721Receiver.run(call.Parameters, to,
		contracts.EthAddress(call.Sender), contracts.EthAddress(from), contracts.Big(id), data)
}

func erc721Transfer(params tba.Parameters, from, to tba.Address, id tba.Value) error {
	owner, err := ownerOf(params, id)
	if err != nil {
		return err
	}
	if owner != from {
		return contracts.RevertWithReason("ERC721: transfer from incorrect owner")
	}
	if to == (tba.Address{}) {
		return contracts.RevertWithReason("ERC721: transfer to the zero address")
	}
	storage := contracts.StorageOf(params)
	storage.SetAddress(valueKey(erc721TokenApprovals, id), tba.Address{})
	if err := debit(storage, addressKey(erc721Balances, from), tba.NewValue(1), "ERC721: balance underflow"); err != nil {
		return err
	}
	if err := credit(storage, addressKey(erc721Balances, to), tba.NewValue(1)); err != nil {
		return err
	}
	storage.SetAddress(valueKey(erc721Owners, id), to)
	return contracts.EmitEvent(params, contracts.ERC721, "Transfer",
		contracts.EthAddress(from), contracts.EthAddress(to), contracts.Big(id))
}

func erc721Mint(params tba.Parameters, to tba.Address, id tba.Value) error {
	if to == (tba.Address{}) {
		return contracts.RevertWithReason("ERC721: mint to the zero address")
	}
	storage := contracts.StorageOf(params)
	if storage.GetAddress(valueKey(erc721Owners, id)) != (tba.Address{}) {
		return contracts.RevertWithReason("ERC721: token already minted")
	}
	if err := credit(storage, addressKey(erc721Balances, to), tba.NewValue(1)); err != nil {
		return err
	}
	storage.SetAddress(valueKey(erc721Owners, id), to)
	return contracts.EmitEvent(params, contracts.ERC721, "Transfer",
		contracts.EthAddress(tba.Address{}), contracts.EthAddress(to), contracts.Big(id))
}

func erc721Burn(call contracts.Call) ([]any, error) {
	id := call.Value(0)
	allowed, err := isApprovedOrOwner(call.Parameters, call.Sender, id)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, contracts.RevertWithReason("ERC721: caller is not token owner or approved")
	}
	owner, _ := ownerOf(call.Parameters, id)
	storage := contracts.StorageOf(call.Parameters)
	storage.SetAddress(valueKey(erc721TokenApprovals, id), tba.Address{})
	if err := debit(storage, addressKey(erc721Balances, owner), tba.NewValue(1), "ERC721: balance underflow"); err != nil {
		return nil, err
	}
	storage.SetAddress(valueKey(erc721Owners, id), tba.Address{})
	return nil, contracts.EmitEvent(call.Parameters, contracts.ERC721, "Transfer",
		contracts.EthAddress(owner), contracts.EthAddress(tba.Address{}), contracts.Big(id))
}
