// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package host

import (
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"go.uber.org/zap"

	// geth dependencies
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type runContext struct {
	tba.TransactionContext
	processor             *Processor
	blockParameters       tba.BlockParameters
	transactionParameters tba.TransactionParameters
	depth                 int
	static                bool
}

func (r runContext) Call(kind tba.CallKind, parameters tba.CallParameters) (tba.CallResult, error) {
	if kind == tba.Create || kind == tba.Create2 {
		return r.executeCreate(kind, parameters)
	}
	return r.executeCall(kind, parameters)
}

func (r runContext) executeCall(kind tba.CallKind, parameters tba.CallParameters) (tba.CallResult, error) {
	errResult := tba.CallResult{Success: false}
	if r.depth >= MaxRecursiveDepth {
		return errResult, nil
	}
	r.processor.metrics.callExecuted(kind)

	if kind == tba.StaticCall {
		r.static = true
		parameters.Value = tba.Value{}
	}
	if kind == tba.Call {
		if r.static && !parameters.Value.IsZero() {
			return errResult, nil
		}
		if !canTransferValue(r, parameters.Value, parameters.Sender, &parameters.Recipient) {
			return errResult, nil
		}
	}

	codeAddress := parameters.Recipient
	if kind == tba.DelegateCall {
		codeAddress = parameters.CodeAddress
	}

	snapshot := r.CreateSnapshot()
	if kind == tba.Call {
		transferValue(r, parameters.Value, parameters.Sender, parameters.Recipient)
	}

	if result, isPrecompiled := handlePrecompiled(parameters.Input, codeAddress); isPrecompiled {
		if !result.Success {
			r.RestoreSnapshot(snapshot)
		}
		return result, nil
	}

	target, err := r.resolve(codeAddress)
	if err != nil {
		r.processor.logger.Debug("call to unsupported code",
			zap.Stringer("address", codeAddress),
			zap.Error(err),
		)
		r.RestoreSnapshot(snapshot)
		return errResult, nil
	}
	if target.contract == nil {
		// accounts without code accept every call
		return tba.CallResult{Success: true}, nil
	}

	next := r
	next.depth++
	result, err := target.contract.Run(tba.Parameters{
		BlockParameters:       r.blockParameters,
		TransactionParameters: r.transactionParameters,
		Context:               next,
		Kind:                  kind,
		Static:                r.static,
		Depth:                 r.depth,
		Recipient:             parameters.Recipient,
		Sender:                parameters.Sender,
		Input:                 parameters.Input,
		Value:                 parameters.Value,
		CodeAddress:           target.codeAddress,
	})
	if err != nil || !result.Success {
		r.RestoreSnapshot(snapshot)
	}
	if err != nil {
		return errResult, fmt.Errorf("contract at %v failed: %w", target.codeAddress, err)
	}

	return tba.CallResult{
		Output:  result.Output,
		Success: result.Success,
	}, nil
}

func (r runContext) executeCreate(kind tba.CallKind, parameters tba.CallParameters) (tba.CallResult, error) {
	errResult := tba.CallResult{Success: false}
	if r.depth >= MaxRecursiveDepth || r.static {
		return errResult, nil
	}
	r.processor.metrics.callExecuted(kind)

	if !canTransferValue(r, parameters.Value, parameters.Sender, nil) {
		return errResult, nil
	}
	if err := incrementNonce(r, parameters.Sender); err != nil {
		return errResult, nil
	}

	initCode := tba.Code(parameters.Input)
	createdAddress := createAddress(kind, parameters.Sender, r.GetNonce(parameters.Sender)-1,
		parameters.Salt, hashCode(initCode))

	if r.GetNonce(createdAddress) != 0 || r.GetCodeSize(createdAddress) != 0 {
		return errResult, nil
	}

	code := tba.DeployedCode(initCode)
	if name, isNative := tba.ParseNativeCode(code); isNative && tba.GetContract(name) == nil {
		return errResult, nil
	}

	r.SetNonce(createdAddress, 1)
	transferValue(r, parameters.Value, parameters.Sender, createdAddress)
	r.SetCode(createdAddress, code)

	r.processor.logger.Debug("contract created",
		zap.Stringer("kind", kind),
		zap.Stringer("address", createdAddress),
		zap.Int("codeSize", len(code)),
	)
	return tba.CallResult{
		Success:        true,
		CreatedAddress: createdAddress,
	}, nil
}

func hashCode(code tba.Code) tba.Hash {
	return tba.Hash(crypto.Keccak256(code))
}

func createAddress(
	kind tba.CallKind,
	sender tba.Address,
	nonce uint64,
	salt tba.Hash,
	initHash tba.Hash,
) tba.Address {
	if kind == tba.Create {
		return tba.Address(crypto.CreateAddress(common.Address(sender), nonce))
	}
	return tba.Address(crypto.CreateAddress2(common.Address(sender), common.Hash(salt), initHash[:]))
}
