// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package account

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/contracts/assets"
	"github.com/Fantom-foundation/tokenbound/go/host"
	statedb "github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	implementation = tba.Address{0x1a}
	proxy          = tba.Address{0xaa}
	erc20          = tba.Address{0x20}
	erc721         = tba.Address{0x72}
	erc1155        = tba.Address{0x11}

	alice = tba.Address{0xa1}
	bob   = tba.Address{0xb0}

	boundTokenID = tba.NewValue(7)
)

type testAccount struct {
	t         *testing.T
	processor *host.Processor
	context   *statedb.Context
}

// newTestAccount deploys an account bound to token 7 of the ERC-721 ledger
// and mints that token to alice.
func newTestAccount(t *testing.T) *testAccount {
	t.Helper()
	processor, err := host.NewProcessor(host.Config{})
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	var footer [tba.AccountFooterSize]byte
	chainID := tba.NewValue(250)
	contract := tba.AddressToWord(erc721)
	copy(footer[32:64], chainID[:])
	copy(footer[64:96], contract[:])
	copy(footer[96:128], boundTokenID[:])

	a := &testAccount{
		t:         t,
		processor: processor,
		context: statedb.NewContext(statedb.WorldState{
			implementation: {Nonce: 1, Code: tba.NativeCode(Name)},
			proxy:          {Nonce: 1, Balance: tba.NewValue(1000), Code: tba.DeployedCode(tba.AccountCreationCode(implementation, footer))},
			erc20:          {Nonce: 1, Code: tba.NativeCode(assets.ERC20Name)},
			erc721:         {Nonce: 1, Code: tba.NativeCode(assets.ERC721Name)},
			erc1155:        {Nonce: 1, Code: tba.NativeCode(assets.ERC1155Name)},
		}),
	}
	a.mustSend(alice, erc721, contracts.ERC721, "mint", common.Address(alice), contracts.Big(boundTokenID))
	return a
}

func (a *testAccount) send(sender tba.Address, target tba.Address, contractABI *abi.ABI, method string, args ...any) tba.Receipt {
	a.t.Helper()
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		a.t.Fatalf("failed to encode %s: %v", method, err)
	}
	receipt, err := a.processor.Run(tba.BlockParameters{}, tba.Transaction{
		Sender:    sender,
		Recipient: &target,
		Nonce:     a.context.GetNonce(sender),
		Input:     input,
	}, a.context)
	if err != nil {
		a.t.Fatalf("failed to run %s: %v", method, err)
	}
	a.context.Commit()
	return receipt
}

func (a *testAccount) mustSend(sender tba.Address, target tba.Address, contractABI *abi.ABI, method string, args ...any) []any {
	a.t.Helper()
	receipt := a.send(sender, target, contractABI, method, args...)
	if !receipt.Success {
		a.t.Fatalf("%s reverted with %x", method, receipt.Output)
	}
	res, err := contractABI.Unpack(method, receipt.Output)
	if err != nil {
		a.t.Fatalf("failed to decode result of %s: %v", method, err)
	}
	return res
}

func (a *testAccount) execute(sender tba.Address, target tba.Address, value uint64, data []byte, operation Operation) tba.Receipt {
	a.t.Helper()
	return a.send(sender, proxy, ABI, "execute",
		common.Address(target), new(big.Int).SetUint64(value), data, uint8(operation))
}

func (a *testAccount) state() uint64 {
	a.t.Helper()
	return a.mustSend(bob, proxy, ABI, "state")[0].(*big.Int).Uint64()
}

func errorData(name string) []byte {
	id := ABI.Errors[name].ID
	return id[:4]
}

func TestAccount_TokenIsReadFromFooter(t *testing.T) {
	a := newTestAccount(t)
	res := a.mustSend(bob, proxy, ABI, "token")
	if got := res[0].(*big.Int); got.Uint64() != 250 {
		t.Errorf("unexpected chain id %v", got)
	}
	if got := res[1].(common.Address); got != common.Address(erc721) {
		t.Errorf("unexpected token contract %v", got)
	}
	if got := res[2].(*big.Int); got.Uint64() != 7 {
		t.Errorf("unexpected token id %v", got)
	}
}

func TestAccount_OwnerFollowsToken(t *testing.T) {
	a := newTestAccount(t)
	if got := a.mustSend(bob, proxy, ABI, "owner")[0].(common.Address); got != common.Address(alice) {
		t.Fatalf("unexpected owner %v", got)
	}
	a.mustSend(alice, erc721, contracts.ERC721, "transferFrom",
		common.Address(alice), common.Address(bob), contracts.Big(boundTokenID))
	if got := a.mustSend(bob, proxy, ABI, "owner")[0].(common.Address); got != common.Address(bob) {
		t.Fatalf("unexpected owner %v", got)
	}
}

func TestAccount_OwnerOfBurnedTokenReverts(t *testing.T) {
	a := newTestAccount(t)
	a.mustSend(alice, erc721, contracts.ERC721, "burn", contracts.Big(boundTokenID))
	if receipt := a.send(bob, proxy, ABI, "owner"); receipt.Success {
		t.Errorf("owner of burned token should revert")
	}
}

func TestAccount_ExecuteIsRestrictedToOwner(t *testing.T) {
	tests := map[string]struct {
		sender  tba.Address
		burn    bool
		success bool
	}{
		"owner":        {sender: alice, success: true},
		"other":        {sender: bob},
		"burned token": {sender: alice, burn: true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := newTestAccount(t)
			if test.burn {
				a.mustSend(alice, erc721, contracts.ERC721, "burn", contracts.Big(boundTokenID))
			}
			receipt := a.execute(test.sender, bob, 100, nil, OperationCall)
			if receipt.Success != test.success {
				t.Fatalf("unexpected success %t, output %x", receipt.Success, receipt.Output)
			}
			wantBalance := uint64(0)
			if test.success {
				wantBalance = 100
			} else if !bytes.Equal(receipt.Output, errorData("NotAuthorized")) {
				t.Errorf("unexpected revert data %x", receipt.Output)
			}
			if got := a.context.GetBalance(bob); got != tba.NewValue(wantBalance) {
				t.Errorf("unexpected balance of bob %v, wanted %d", got, wantBalance)
			}
		})
	}
}

func TestAccount_OnlyPlainCallsAreSupported(t *testing.T) {
	for _, operation := range []Operation{OperationDelegateCall, OperationCreate, OperationCreate2, 4, 255} {
		for _, sender := range []tba.Address{alice, bob} {
			a := newTestAccount(t)
			receipt := a.execute(sender, bob, 0, nil, operation)
			if receipt.Success {
				t.Fatalf("operation %d by %v should fail", operation, sender)
			}
			if !bytes.Equal(receipt.Output, errorData("OperationNotSupported")) {
				t.Errorf("unexpected revert data for operation %d by %v: %x", operation, sender, receipt.Output)
			}
		}
	}
}

func TestAccount_ExecuteForwardsCallsAndEmitsLog(t *testing.T) {
	a := newTestAccount(t)
	input, err := contracts.ERC20.Pack("mint", common.Address(bob), big.NewInt(42))
	if err != nil {
		t.Fatalf("failed to encode mint: %v", err)
	}
	receipt := a.execute(alice, erc20, 0, input, OperationCall)
	if !receipt.Success {
		t.Fatalf("execute failed: %x", receipt.Output)
	}
	balance := a.mustSend(bob, erc20, contracts.ERC20, "balanceOf", common.Address(bob))[0].(*big.Int)
	if balance.Uint64() != 42 {
		t.Errorf("unexpected balance %v", balance)
	}

	var executed *tba.Log
	for i := range receipt.Logs {
		if receipt.Logs[i].Address == proxy {
			executed = &receipt.Logs[i]
		}
	}
	if executed == nil {
		t.Fatalf("missing Executed log in %v", receipt.Logs)
	}
	if want := tba.Hash(ABI.Events["Executed"].ID); executed.Topics[0] != want {
		t.Errorf("unexpected topic %v", executed.Topics[0])
	}
	if want := tba.Hash(tba.AddressToWord(erc20)); executed.Topics[1] != want {
		t.Errorf("unexpected target topic %v", executed.Topics[1])
	}
}

func TestAccount_DownstreamRevertsAreBubbled(t *testing.T) {
	a := newTestAccount(t)
	input, err := contracts.ERC20.Pack("transfer", common.Address(bob), big.NewInt(1))
	if err != nil {
		t.Fatalf("failed to encode transfer: %v", err)
	}
	receipt := a.execute(alice, erc20, 0, input, OperationCall)
	if receipt.Success {
		t.Fatalf("transfer without balance should fail")
	}
	if _, err := abi.UnpackRevert(receipt.Output); err != nil {
		t.Errorf("revert reason of ledger was not bubbled: %x", receipt.Output)
	}
}

func TestAccount_StateCountsSuccessfulOperations(t *testing.T) {
	a := newTestAccount(t)
	if got := a.state(); got != 0 {
		t.Fatalf("unexpected initial state %d", got)
	}
	a.execute(alice, bob, 1, nil, OperationCall)
	a.execute(bob, bob, 1, nil, OperationCall)
	a.execute(alice, bob, 5000, nil, OperationCall)
	if got := a.state(); got != 1 {
		t.Errorf("unexpected state after executions %d", got)
	}
	a.send(alice, proxy, ABI, "transferCoin", common.Address(bob), big.NewInt(10))
	if got := a.state(); got != 2 {
		t.Errorf("unexpected state after transferCoin %d", got)
	}
}

func TestAccount_TransferHelpersMoveAssets(t *testing.T) {
	a := newTestAccount(t)
	a.mustSend(alice, erc20, contracts.ERC20, "mint", common.Address(proxy), big.NewInt(50))
	a.mustSend(alice, erc1155, contracts.ERC1155, "mint", common.Address(proxy), big.NewInt(3), big.NewInt(9), []byte{})
	a.mustSend(alice, erc721, contracts.ERC721, "mint", common.Address(proxy), big.NewInt(8))

	a.mustSend(alice, proxy, ABI, "transfer20", common.Address(erc20), common.Address(bob), big.NewInt(20))
	a.mustSend(alice, proxy, ABI, "transfer1155", common.Address(erc1155), common.Address(bob), big.NewInt(3), big.NewInt(4), []byte{})
	a.mustSend(alice, proxy, ABI, "transfer721", common.Address(erc721), common.Address(bob), big.NewInt(8))

	if got := a.mustSend(bob, erc20, contracts.ERC20, "balanceOf", common.Address(bob))[0].(*big.Int); got.Uint64() != 20 {
		t.Errorf("unexpected ERC-20 balance %v", got)
	}
	if got := a.mustSend(bob, erc1155, contracts.ERC1155, "balanceOf", common.Address(bob), big.NewInt(3))[0].(*big.Int); got.Uint64() != 4 {
		t.Errorf("unexpected ERC-1155 balance %v", got)
	}
	if got := a.mustSend(bob, erc721, contracts.ERC721, "ownerOf", big.NewInt(8))[0].(common.Address); got != common.Address(bob) {
		t.Errorf("unexpected ERC-721 owner %v", got)
	}
	if got := a.state(); got != 3 {
		t.Errorf("unexpected state %d", got)
	}

	receipt := a.send(bob, proxy, ABI, "transfer20", common.Address(erc20), common.Address(bob), big.NewInt(1))
	if receipt.Success || !bytes.Equal(receipt.Output, errorData("NotAuthorized")) {
		t.Errorf("transfer by non-owner should be rejected, got %x", receipt.Output)
	}
}

func TestAccount_ReceiverHooksValidateInput(t *testing.T) {
	nonZero := big.NewInt(1)
	tests := map[string]struct {
		method string
		args   []any
		valid  bool
	}{
		"erc721":               {"onERC721Received", []any{common.Address(bob), common.Address(bob), nonZero, []byte{}}, true},
		"erc721 zero operator": {"onERC721Received", []any{common.Address{}, common.Address(bob), nonZero, []byte{}}, false},
		"erc721 zero id":       {"onERC721Received", []any{common.Address(bob), common.Address(bob), big.NewInt(0), []byte{}}, false},
		"erc1155":              {"onERC1155Received", []any{common.Address(bob), common.Address{}, nonZero, nonZero, []byte{}}, true},
		"erc1155 zero amount":  {"onERC1155Received", []any{common.Address(bob), common.Address(bob), nonZero, big.NewInt(0), []byte{}}, false},
		"batch":                {"onERC1155BatchReceived", []any{common.Address(bob), common.Address(bob), []*big.Int{nonZero}, []*big.Int{nonZero}, []byte{}}, true},
		"batch empty ids":      {"onERC1155BatchReceived", []any{common.Address(bob), common.Address(bob), []*big.Int{}, []*big.Int{nonZero}, []byte{}}, false},
		"batch zero amount":    {"onERC1155BatchReceived", []any{common.Address(bob), common.Address(bob), []*big.Int{nonZero}, []*big.Int{big.NewInt(0)}, []byte{}}, false},
		"batch zero operator":  {"onERC1155BatchReceived", []any{common.Address{}, common.Address(bob), []*big.Int{nonZero}, []*big.Int{nonZero}, []byte{}}, false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			a := newTestAccount(t)
			receipt := a.send(bob, proxy, ABI, test.method, test.args...)
			if receipt.Success != test.valid {
				t.Fatalf("unexpected success %t, output %x", receipt.Success, receipt.Output)
			}
			if !test.valid {
				if !bytes.Equal(receipt.Output, errorData("InvalidParameter")) {
					t.Errorf("unexpected revert data %x", receipt.Output)
				}
				return
			}
			selector := contracts.Selector(ABI, test.method)
			if !bytes.Equal(receipt.Output[:4], selector[:]) {
				t.Errorf("unexpected magic value %x", receipt.Output[:4])
			}
		})
	}
}

func TestAccount_SupportsInterface(t *testing.T) {
	tests := map[string]struct {
		id        [4]byte
		supported bool
	}{
		"erc165":     {[4]byte{0x01, 0xff, 0xc9, 0xa7}, true},
		"account":    {[4]byte{0x6f, 0xaf, 0xf5, 0xf1}, true},
		"executable": {[4]byte{0x51, 0x94, 0x54, 0x47}, true},
		"erc721":     {[4]byte{0x80, 0xac, 0x58, 0xcd}, false},
		"invalid":    {[4]byte{0xff, 0xff, 0xff, 0xff}, false},
	}
	a := newTestAccount(t)
	for name, test := range tests {
		got := a.mustSend(bob, proxy, ABI, "supportsInterface", test.id)[0].(bool)
		if got != test.supported {
			t.Errorf("%s: unexpected result %t", name, got)
		}
	}
}

func TestAccount_IsValidSignerDoesNotRevert(t *testing.T) {
	a := newTestAccount(t)
	magic := contracts.Selector(ABI, "isValidSigner")
	if got := a.mustSend(bob, proxy, ABI, "isValidSigner", common.Address(alice), []byte{})[0].([4]byte); got != magic {
		t.Errorf("owner should be a valid signer, got %x", got)
	}
	if got := a.mustSend(bob, proxy, ABI, "isValidSigner", common.Address(bob), []byte{})[0].([4]byte); got != ([4]byte{}) {
		t.Errorf("other should not be a valid signer, got %x", got)
	}
	a.mustSend(alice, erc721, contracts.ERC721, "burn", contracts.Big(boundTokenID))
	if got := a.mustSend(bob, proxy, ABI, "isValidSigner", common.Address(alice), []byte{})[0].([4]byte); got != ([4]byte{}) {
		t.Errorf("no one should be a valid signer of a burned token, got %x", got)
	}
}

func TestAccount_PlainTransfersAreAccepted(t *testing.T) {
	a := newTestAccount(t)
	a.context.SetBalance(bob, tba.NewValue(10))
	receipt, err := a.processor.Run(tba.BlockParameters{}, tba.Transaction{
		Sender:    bob,
		Recipient: &proxy,
		Nonce:     a.context.GetNonce(bob),
		Value:     tba.NewValue(10),
	}, a.context)
	if err != nil || !receipt.Success {
		t.Fatalf("plain transfer failed: %v, %x", err, receipt.Output)
	}
	if got := a.context.GetBalance(proxy); got != tba.NewValue(1010) {
		t.Errorf("unexpected balance %v", got)
	}
}
