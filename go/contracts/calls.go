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
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Forward calls the given target on behalf of the running contract. If the
// callee reverts, the returned error is a *Revert carrying the callee's
// revert data unchanged.
func Forward(params tba.Parameters, kind tba.CallKind, target tba.Address, value tba.Value, input []byte) ([]byte, error) {
	result, err := params.Context.Call(kind, tba.CallParameters{
		Sender:      params.Recipient,
		Recipient:   target,
		Value:       value,
		Input:       input,
		CodeAddress: target,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, Reverted(result.Output)
	}
	return result.Output, nil
}

// Invoke calls the named method of the contract at the given target on behalf
// of the running contract and unpacks its results. Reverts of the callee are
// bubbled up; results that can not be decoded cause a revert without data.
func Invoke(
	params tba.Parameters,
	kind tba.CallKind,
	target tba.Address,
	value tba.Value,
	contractABI *abi.ABI,
	method string,
	args ...any,
) ([]any, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode call to %s: %w", method, err)
	}
	output, err := Forward(params, kind, target, value, input)
	if err != nil {
		return nil, err
	}
	res, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, Reverted(nil)
	}
	return res, nil
}

// EmitEvent emits the named event of the given ABI as a log of the running
// contract. Indexed arguments become topics, all others are packed into the
// log data.
func EmitEvent(params tba.Parameters, contractABI *abi.ABI, name string, args ...any) error {
	event, found := contractABI.Events[name]
	if !found {
		return fmt.Errorf("unknown event %s", name)
	}
	if len(args) != len(event.Inputs) {
		return fmt.Errorf("event %s requires %d arguments, got %d", name, len(event.Inputs), len(args))
	}

	topics := []tba.Hash{tba.Hash(event.ID)}
	var data []any
	for i, input := range event.Inputs {
		if !input.Indexed {
			data = append(data, args[i])
			continue
		}
		topic, err := abi.MakeTopics([]any{args[i]})
		if err != nil {
			return fmt.Errorf("failed to encode topic %s of %s: %w", input.Name, name, err)
		}
		topics = append(topics, tba.Hash(topic[0][0]))
	}
	packed, err := event.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", name, err)
	}

	params.Context.EmitLog(tba.Log{
		Address: params.Recipient,
		Topics:  topics,
		Data:    packed,
	})
	return nil
}

// IsContract reports whether code is deployed at the given address.
func IsContract(params tba.Parameters, address tba.Address) bool {
	return params.Context.GetCodeSize(address) > 0
}

// Selector returns the 4-byte identifier of the named method of an ABI. It
// panics if the method is not defined.
func Selector(contractABI *abi.ABI, method string) [4]byte {
	m, found := contractABI.Methods[method]
	if !found {
		panic(fmt.Sprintf("method %s not defined by ABI", method))
	}
	return [4]byte(m.ID)
}
