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
	erc20Balances    = contracts.Slot(0) // mapping(address => uint256)
	erc20Allowances  = contracts.Slot(1) // mapping(address => mapping(address => uint256))
	erc20TotalSupply = contracts.Slot(2)
)

// NewERC20 creates a fungible token ledger.
func NewERC20() *contracts.Dispatcher {
	return contracts.NewDispatcher(contracts.ERC20).
		Handle("name", constant("Sample Token")).
		Handle("symbol", constant("SMPL")).
		Handle("decimals", constant(uint8(18))).
		Handle("totalSupply", func(call contracts.Call) ([]any, error) {
			return []any{contracts.Big(contracts.StorageOf(call.Parameters).GetValue(erc20TotalSupply))}, nil
		}).
		Handle("balanceOf", func(call contracts.Call) ([]any, error) {
			balance := contracts.StorageOf(call.Parameters).GetValue(addressKey(erc20Balances, call.Address(0)))
			return []any{contracts.Big(balance)}, nil
		}).
		Handle("allowance", func(call contracts.Call) ([]any, error) {
			allowance := contracts.StorageOf(call.Parameters).GetValue(allowanceKey(call.Address(0), call.Address(1)))
			return []any{contracts.Big(allowance)}, nil
		}).
		Handle("transfer", func(call contracts.Call) ([]any, error) {
			if err := erc20Transfer(call.Parameters, call.Sender, call.Address(0), call.Value(1)); err != nil {
				return nil, err
			}
			return []any{true}, nil
		}).
		Handle("transferFrom", func(call contracts.Call) ([]any, error) {
			from := call.Address(0)
			if err := spendAllowance(call.Parameters, from, call.Sender, call.Value(2)); err != nil {
				return nil, err
			}
			if err := erc20Transfer(call.Parameters, from, call.Address(1), call.Value(2)); err != nil {
				return nil, err
			}
			return []any{true}, nil
		}).
		Handle("approve", func(call contracts.Call) ([]any, error) {
			if err := erc20Approve(call.Parameters, call.Sender, call.Address(0), call.Value(1)); err != nil {
				return nil, err
			}
			return []any{true}, nil
		}).
		Handle("mint", func(call contracts.Call) ([]any, error) {
			return nil, erc20Mint(call.Parameters, call.Address(0), call.Value(1))
		}).
		Handle("burn", func(call contracts.Call) ([]any, error) {
			return nil, erc20Burn(call.Parameters, call.Sender, call.Value(0))
		}).
		Handle("burnFrom", func(call contracts.Call) ([]any, error) {
			account := call.Address(0)
			if err := spendAllowance(call.Parameters, account, call.Sender, call.Value(1)); err != nil {
				return nil, err
			}
			return nil, erc20Burn(call.Parameters, account, call.Value(1))
		})
}

func constant(value any) contracts.Handler {
	return func(contracts.Call) ([]any, error) {
		return []any{value}, nil
	}
}

func allowanceKey(owner, spender tba.Address) tba.Key {
	return contracts.MappingSlot(addressKey(erc20Allowances, owner), tba.AddressToWord(spender))
}

func erc20Transfer(params tba.Parameters, from, to tba.Address, amount tba.Value) error {
	if from == (tba.Address{}) {
		return contracts.RevertWithReason("ERC20: transfer from the zero address")
	}
	if to == (tba.Address{}) {
		return contracts.RevertWithReason("ERC20: transfer to the zero address")
	}
	storage := contracts.StorageOf(params)
	if err := debit(storage, addressKey(erc20Balances, from), amount, "ERC20: transfer amount exceeds balance"); err != nil {
		return err
	}
	if err := credit(storage, addressKey(erc20Balances, to), amount); err != nil {
		return err
	}
	return contracts.EmitEvent(params, contracts.ERC20, "Transfer",
		contracts.EthAddress(from), contracts.EthAddress(to), contracts.Big(amount))
}

func erc20Approve(params tba.Parameters, owner, spender tba.Address, amount tba.Value) error {
	if spender == (tba.Address{}) {
		return contracts.RevertWithReason("ERC20: approve to the zero address")
	}
	contracts.StorageOf(params).SetValue(allowanceKey(owner, spender), amount)
	return contracts.EmitEvent(params, contracts.ERC20, "Approval",
		contracts.EthAddress(owner), contracts.EthAddress(spender), contracts.Big(amount))
}

// spendAllowance consumes allowance granted by the owner to the spender. An
// unlimited allowance is never reduced.
func spendAllowance(params tba.Parameters, owner, spender tba.Address, amount tba.Value) error {
	key := allowanceKey(owner, spender)
	storage := contracts.StorageOf(params)
	if storage.GetValue(key) == maxValue {
		return nil
	}
	return debit(storage, key, amount, "ERC20: insufficient allowance")
}

func erc20Mint(params tba.Parameters, to tba.Address, amount tba.Value) error {
	if to == (tba.Address{}) {
		return contracts.RevertWithReason("ERC20: mint to the zero address")
	}
	storage := contracts.StorageOf(params)
	if err := credit(storage, erc20TotalSupply, amount); err != nil {
		return err
	}
	// balances are bounded by the total supply
	if err := credit(storage, addressKey(erc20Balances, to), amount); err != nil {
		return err
	}
	return contracts.EmitEvent(params, contracts.ERC20, "Transfer",
		contracts.EthAddress(tba.Address{}), contracts.EthAddress(to), contracts.Big(amount))
}

func erc20Burn(params tba.Parameters, from tba.Address, amount tba.Value) error {
	if from == (tba.Address{}) {
		return contracts.RevertWithReason("ERC20: burn from the zero address")
	}
	storage := contracts.StorageOf(params)
	if err := debit(storage, addressKey(erc20Balances, from), amount, "ERC20: burn amount exceeds balance"); err != nil {
		return err
	}
	if err := debit(storage, erc20TotalSupply, amount, "ERC20: burn amount exceeds total supply"); err != nil {
		return err
	}
	return contracts.EmitEvent(params, contracts.ERC20, "Transfer",
		contracts.EthAddress(from), contracts.EthAddress(tba.Address{}), contracts.Big(amount))
}
