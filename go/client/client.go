// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package client provides typed bindings for the registry, accounts and
// asset ledgers. Reverts are reported as Go errors; the custom errors of
// accounts and the registry map to sentinel errors.
package client

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/tokenbound/go/contracts/account"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorized          = errors.New("caller is not the owner of the account")
	ErrUnsupportedOperation  = errors.New("operation not supported")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrAccountCreationFailed = errors.New("account creation failed")
)

var customErrors = map[[4]byte]error{
	errorID(account.ABI, "NotAuthorized"):          ErrUnauthorized,
	errorID(account.ABI, "OperationNotSupported"):  ErrUnsupportedOperation,
	errorID(account.ABI, "InvalidParameter"):       ErrInvalidParameter,
	errorID(registry.ABI, "AccountCreationFailed"): ErrAccountCreationFailed,
}

func errorID(contractABI *abi.ABI, name string) [4]byte {
	id := contractABI.Errors[name].ID
	return [4]byte(id[:4])
}

// RevertError is reported for reverts not mapped to a sentinel error.
type RevertError struct {
	Data []byte
	// Reason is the decoded Error(string) message, if any.
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("execution reverted: %s", e.Reason)
	}
	if len(e.Data) == 0 {
		return "execution reverted"
	}
	return fmt.Sprintf("execution reverted: 0x%x", e.Data)
}

func (e *RevertError) Unwrap() error {
	return tba.ErrExecutionReverted
}

// decodeRevert converts revert data into an error.
func decodeRevert(data []byte) error {
	if len(data) == 4 {
		if err, found := customErrors[[4]byte(data)]; found {
			return err
		}
	}
	res := &RevertError{Data: data}
	if reason, err := abi.UnpackRevert(data); err == nil {
		res.Reason = reason
	}
	return res
}

// contract binds an ABI to a deployed contract.
type contract struct {
	backend Backend
	address tba.Address
	abi     *abi.ABI
}

func (c contract) Address() tba.Address {
	return c.address
}

// query calls a method without retaining its effects and unpacks the results.
func (c contract) query(method string, args ...any) ([]any, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	receipt, err := c.backend.Call(tba.Address{}, c.address, tba.Value{}, input)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	return c.unpack(method, receipt)
}

// transact sends a transaction invoking a method and unpacks its results.
func (c contract) transact(from tba.Address, value tba.Value, method string, args ...any) ([]any, error) {
	input, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}
	receipt, err := c.backend.Send(from, &c.address, value, input)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", method, err)
	}
	return c.unpack(method, receipt)
}

func (c contract) unpack(method string, receipt tba.Receipt) ([]any, error) {
	if !receipt.Success {
		return nil, decodeRevert(receipt.Output)
	}
	res, err := c.abi.Unpack(method, receipt.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to decode result of %s: %w", method, err)
	}
	return res, nil
}

// ----------------------------------------------------------------------------
// Conversions
// ----------------------------------------------------------------------------

func toAddress(v any) tba.Address {
	return tba.Address(v.(common.Address))
}

func toAddresses(v any) []tba.Address {
	addresses := v.([]common.Address)
	res := make([]tba.Address, len(addresses))
	for i, a := range addresses {
		res[i] = tba.Address(a)
	}
	return res
}

func toValue(v any) (tba.Value, error) {
	return tba.ValueFromBig(v.(*big.Int))
}

func toValues(v any) ([]tba.Value, error) {
	values := v.([]*big.Int)
	res := make([]tba.Value, len(values))
	for i, value := range values {
		converted, err := tba.ValueFromBig(value)
		if err != nil {
			return nil, err
		}
		res[i] = converted
	}
	return res, nil
}
