// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Call is a decoded invocation of a contract method.
type Call struct {
	tba.Parameters
	Method *abi.Method
	Args   []any
}

// Handler implements a single contract method. The returned values are
// packed according to the method's outputs. A *Revert error aborts the call,
// any other error is reported as a failure of the contract itself.
type Handler func(call Call) ([]any, error)

// Dispatcher is a tba.Contract routing calls to method handlers based on the
// 4-byte selector of an ABI. Inputs not matching any handled method, or
// failing to decode, revert without data.
type Dispatcher struct {
	abi      *abi.ABI
	handlers map[string]Handler
	receive  func(tba.Parameters) error
}

func NewDispatcher(contractABI *abi.ABI) *Dispatcher {
	return &Dispatcher{
		abi:      contractABI,
		handlers: map[string]Handler{},
	}
}

// ABI returns the interface definition served by this dispatcher.
func (d *Dispatcher) ABI() *abi.ABI {
	return d.abi
}

// Handle binds a handler to the named method. It panics if the method is not
// part of the ABI, and is intended for contract construction.
func (d *Dispatcher) Handle(method string, handler Handler) *Dispatcher {
	if _, found := d.abi.Methods[method]; !found {
		panic(fmt.Sprintf("method %s not defined by ABI", method))
	}
	d.handlers[method] = handler
	return d
}

// HandleReceive installs a handler for calls without input data.
func (d *Dispatcher) HandleReceive(handler func(tba.Parameters) error) *Dispatcher {
	d.receive = handler
	return d
}

func (d *Dispatcher) Run(params tba.Parameters) (tba.Result, error) {
	if len(params.Input) == 0 {
		if d.receive == nil || params.Static {
			return revert(nil)
		}
		return finish(nil, d.receive(params))
	}

	if len(params.Input) < 4 {
		return revert(nil)
	}
	method, err := d.abi.MethodById(params.Input[:4])
	if err != nil {
		return revert(nil)
	}
	handler, found := d.handlers[method.Name]
	if !found {
		return revert(nil)
	}
	if params.Static && !method.IsConstant() {
		return revert(nil)
	}
	if !method.IsPayable() && !params.Value.IsZero() {
		return revert(nil)
	}
	args, err := method.Inputs.Unpack(params.Input[4:])
	if err != nil {
		return revert(nil)
	}

	results, err := handler(Call{Parameters: params, Method: method, Args: args})
	if err != nil {
		return finish(nil, err)
	}
	output, err := method.Outputs.Pack(results...)
	if err != nil {
		return tba.Result{}, fmt.Errorf("failed to encode result of %s: %w", method.Name, err)
	}
	return tba.Result{Success: true, Output: output}, nil
}

func finish(output []byte, err error) (tba.Result, error) {
	if err == nil {
		return tba.Result{Success: true, Output: output}, nil
	}
	var reverted *Revert
	if errors.As(err, &reverted) {
		return revert(reverted.Data)
	}
	return tba.Result{}, err
}

func revert(data []byte) (tba.Result, error) {
	return tba.Result{Success: false, Output: data}, nil
}

// ----------------------------------------------------------------------------
// Argument access
// ----------------------------------------------------------------------------

func (c Call) Address(i int) tba.Address {
	return tba.Address(c.Args[i].(common.Address))
}

func (c Call) Addresses(i int) []tba.Address {
	addresses := c.Args[i].([]common.Address)
	res := make([]tba.Address, len(addresses))
	for j, a := range addresses {
		res[j] = tba.Address(a)
	}
	return res
}

func (c Call) Value(i int) tba.Value {
	return tba.ValueFromUint256(bigToUint256(c.Args[i].(*big.Int)))
}

func (c Call) Values(i int) []tba.Value {
	values := c.Args[i].([]*big.Int)
	res := make([]tba.Value, len(values))
	for j, v := range values {
		res[j] = tba.ValueFromUint256(bigToUint256(v))
	}
	return res
}

func (c Call) Bytes(i int) []byte {
	return c.Args[i].([]byte)
}

func (c Call) Bytes4(i int) [4]byte {
	return c.Args[i].([4]byte)
}

func (c Call) Bytes32(i int) [32]byte {
	return c.Args[i].([32]byte)
}

func (c Call) Uint8(i int) uint8 {
	return c.Args[i].(uint8)
}

func (c Call) Bool(i int) bool {
	return c.Args[i].(bool)
}
