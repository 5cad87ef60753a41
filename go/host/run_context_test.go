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
	"bytes"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/mock/gomock"
)

func newTestRunContext(t *testing.T, context tba.TransactionContext) runContext {
	return runContext{
		TransactionContext: context,
		processor:          newTestProcessor(t),
	}
}

func TestCalls_ProxyRunsImplementationInProxyContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	contract := tba.NewMockContract(ctrl)

	implementation := tba.Address{0x10}
	proxy := tba.Address{0x20}
	footer := [tba.AccountFooterSize]byte{1, 2, 3}

	context := state.NewContext(state.WorldState{
		implementation: state.Account{Code: registerContract(t, contract)},
		proxy:          state.Account{Code: tba.DeployedCode(tba.AccountCreationCode(implementation, footer))},
	})

	contract.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tba.Parameters) (tba.Result, error) {
		if want, got := proxy, params.Recipient; want != got {
			t.Errorf("unexpected recipient, wanted %v, got %v", want, got)
		}
		if want, got := implementation, params.CodeAddress; want != got {
			t.Errorf("unexpected code address, wanted %v, got %v", want, got)
		}
		if want, got := (tba.Address{1}), params.Sender; want != got {
			t.Errorf("unexpected sender, wanted %v, got %v", want, got)
		}
		params.Context.SetStorage(params.Recipient, tba.Key{1}, tba.Word{2})
		return tba.Result{Success: true, Output: []byte("done")}, nil
	}).Times(2)

	runContext := newTestRunContext(t, context)
	for i := 0; i < 2; i++ { // the second run uses the code cache
		result, err := runContext.Call(tba.Call, tba.CallParameters{
			Sender:    tba.Address{1},
			Recipient: proxy,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success || string(result.Output) != "done" {
			t.Errorf("unexpected result: %v", result)
		}
	}
	if want, got := (tba.Word{2}), context.GetStorage(proxy, tba.Key{1}); want != got {
		t.Errorf("storage not written in proxy context, got %v", got)
	}
	if got := context.GetStorage(implementation, tba.Key{1}); got != (tba.Word{}) {
		t.Errorf("storage of implementation was modified")
	}
}

func TestCalls_CodeWithoutContractIsHandled(t *testing.T) {
	tests := map[string]struct {
		code    tba.Code
		success bool
	}{
		"no code": {
			code:    nil,
			success: true,
		},
		"proxy to account without code": {
			code:    tba.DeployedCode(tba.AccountCreationCode(tba.Address{0x99}, [tba.AccountFooterSize]byte{})),
			success: true,
		},
		"unregistered native contract": {
			code:    tba.NativeCode("not-registered-anywhere"),
			success: false,
		},
		"unsupported code": {
			code:    tba.Code{0x60, 0x00, 0x60, 0x00, 0xf3},
			success: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			context := state.NewContext(state.WorldState{
				{1}: state.Account{Balance: tba.NewValue(10)},
				{2}: state.Account{Code: test.code},
			})
			result, err := newTestRunContext(t, context).Call(tba.Call, tba.CallParameters{
				Sender:    tba.Address{1},
				Recipient: tba.Address{2},
				Value:     tba.NewValue(10),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if want, got := test.success, result.Success; want != got {
				t.Errorf("unexpected success, wanted %t, got %t", want, got)
			}
			wantBalance := tba.NewValue(0)
			if !test.success {
				wantBalance = tba.NewValue(10)
			}
			if got := context.GetBalance(tba.Address{1}); got != wantBalance {
				t.Errorf("unexpected sender balance, wanted %v, got %v", wantBalance, got)
			}
		})
	}
}

func TestCalls_DepthIsLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	context := tba.NewMockTransactionContext(ctrl)

	runContext := newTestRunContext(t, context)
	runContext.depth = MaxRecursiveDepth

	for _, kind := range []tba.CallKind{tba.Call, tba.StaticCall, tba.DelegateCall, tba.Create, tba.Create2} {
		result, err := runContext.Call(kind, tba.CallParameters{Recipient: tba.Address{2}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Errorf("%v beyond the depth limit should fail", kind)
		}
	}
}

func TestCalls_NestedCallsIncreaseDepth(t *testing.T) {
	ctrl := gomock.NewController(t)
	contract := tba.NewMockContract(ctrl)

	context := state.NewContext(state.WorldState{
		{2}: state.Account{Code: registerContract(t, contract)},
	})

	calls := 0
	contract.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tba.Parameters) (tba.Result, error) {
		if want, got := calls, params.Depth; want != got {
			t.Errorf("unexpected depth, wanted %d, got %d", want, got)
		}
		calls++
		if calls < 3 {
			result, err := params.Context.Call(tba.Call, tba.CallParameters{
				Sender:    params.Recipient,
				Recipient: params.Recipient,
			})
			if err != nil || !result.Success {
				t.Errorf("nested call failed: %v", err)
			}
		}
		return tba.Result{Success: true}, nil
	}).Times(3)

	result, err := newTestRunContext(t, context).Call(tba.Call, tba.CallParameters{Recipient: tba.Address{2}})
	if err != nil || !result.Success {
		t.Fatalf("call failed: %v", err)
	}
}

func TestCalls_StaticModeIsPropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	contract := tba.NewMockContract(ctrl)

	context := state.NewContext(state.WorldState{
		{1}: state.Account{Balance: tba.NewValue(10)},
		{2}: state.Account{Code: registerContract(t, contract)},
	})

	contract.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tba.Parameters) (tba.Result, error) {
		if !params.Static {
			t.Errorf("expected static mode")
		}
		if !params.Value.IsZero() {
			t.Errorf("static calls must not carry value")
		}
		result, err := params.Context.Call(tba.Call, tba.CallParameters{
			Sender:    params.Recipient,
			Recipient: tba.Address{3},
			Value:     tba.NewValue(1),
		})
		if err != nil || result.Success {
			t.Errorf("value transfer in static mode should fail")
		}
		result, err = params.Context.Call(tba.Create2, tba.CallParameters{Sender: params.Recipient})
		if err != nil || result.Success {
			t.Errorf("contract creation in static mode should fail")
		}
		return tba.Result{Success: true}, nil
	})

	result, err := newTestRunContext(t, context).Call(tba.StaticCall, tba.CallParameters{
		Sender:    tba.Address{1},
		Recipient: tba.Address{2},
		Value:     tba.NewValue(10),
	})
	if err != nil || !result.Success {
		t.Fatalf("static call failed: %v", err)
	}
	if want, got := tba.NewValue(10), context.GetBalance(tba.Address{1}); want != got {
		t.Errorf("static call transferred value, balance %v", got)
	}
}

func TestCalls_DelegateCallKeepsContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	contract := tba.NewMockContract(ctrl)

	context := state.NewContext(state.WorldState{
		{1}: state.Account{Balance: tba.NewValue(10)},
		{3}: state.Account{Code: registerContract(t, contract)},
	})

	contract.EXPECT().Run(gomock.Any()).DoAndReturn(func(params tba.Parameters) (tba.Result, error) {
		if want, got := (tba.Address{2}), params.Recipient; want != got {
			t.Errorf("unexpected recipient, wanted %v, got %v", want, got)
		}
		if want, got := (tba.Address{3}), params.CodeAddress; want != got {
			t.Errorf("unexpected code address, wanted %v, got %v", want, got)
		}
		return tba.Result{Success: true}, nil
	})

	result, err := newTestRunContext(t, context).Call(tba.DelegateCall, tba.CallParameters{
		Sender:      tba.Address{1},
		Recipient:   tba.Address{2},
		CodeAddress: tba.Address{3},
		Value:       tba.NewValue(10),
	})
	if err != nil || !result.Success {
		t.Fatalf("delegate call failed: %v", err)
	}
	if want, got := tba.NewValue(10), context.GetBalance(tba.Address{1}); want != got {
		t.Errorf("delegate call transferred value, balance %v", got)
	}
}

func TestCreate2_DeploysAccountProxyAtPredictedAddress(t *testing.T) {
	deployer := tba.Address{0xde}
	salt := tba.Hash{0x5a}
	initCode := tba.AccountCreationCode(tba.Address{0x10}, [tba.AccountFooterSize]byte{})
	predicted := tba.Address(crypto.CreateAddress2(common.Address(deployer), common.Hash(salt), crypto.Keccak256(initCode)))

	context := state.NewContext(nil)
	runContext := newTestRunContext(t, context)
	params := tba.CallParameters{
		Sender: deployer,
		Input:  tba.Data(initCode),
		Salt:   salt,
	}

	result, err := runContext.Call(tba.Create2, params)
	if err != nil || !result.Success {
		t.Fatalf("create2 failed: %v", err)
	}
	if want, got := predicted, result.CreatedAddress; want != got {
		t.Errorf("unexpected address, wanted %v, got %v", want, got)
	}
	if want, got := tba.DeployedCode(initCode), context.GetCode(predicted); !bytes.Equal(want, got) {
		t.Errorf("unexpected code, wanted %x, got %x", want, got)
	}
	if want, got := uint64(1), context.GetNonce(predicted); want != got {
		t.Errorf("unexpected nonce of created account, wanted %d, got %d", want, got)
	}

	// a second deployment at the same address is refused
	result, err = runContext.Call(tba.Create2, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Errorf("re-creating an existing account should fail")
	}
}

func TestPrecompiled_EcrecoverIsAvailable(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	hash := crypto.Keccak256([]byte("message"))
	signature, err := crypto.Sign(hash, key)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	input := make([]byte, 128)
	copy(input[0:32], hash)
	input[63] = signature[64] + 27
	copy(input[64:128], signature[:64])

	context := state.NewContext(nil)
	result, err := newTestRunContext(t, context).Call(tba.StaticCall, tba.CallParameters{
		Recipient: tba.Address{19: 0x01},
		Input:     input,
	})
	if err != nil || !result.Success {
		t.Fatalf("ecrecover failed: %v", err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)
	if len(result.Output) != 32 || !bytes.Equal(result.Output[12:], want[:]) {
		t.Errorf("unexpected recovered address, wanted %v, got %x", want, result.Output)
	}
}
