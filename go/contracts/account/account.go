// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package account implements the ERC-6551 token-bound account as a native
// contract. Accounts are deployed as minimal proxies delegating to this
// implementation; the bound token is read from the proxy's code footer and
// ownership is resolved from the token contract on every call.
package account

import (
	"errors"

	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
)

// Name is the name under which the account implementation is registered.
const Name = "erc6551-account"

func init() {
	tba.MustRegisterContract(Name, New())
}

// Operation is the kind of call requested from execute.
type Operation uint8

const (
	OperationCall Operation = iota
	OperationDelegateCall
	OperationCreate
	OperationCreate2
)

// callKind maps the operation to the call performed by the host. Only plain
// calls are executable by accounts.
func (o Operation) callKind() (tba.CallKind, bool) {
	if o == OperationCall {
		return tba.Call, true
	}
	return 0, false
}

var (
	stateSlot = contracts.Slot(0)

	validSignerMagic    = contracts.Selector(ABI, "isValidSigner")
	invalidSignerMagic  = [4]byte{}
	validSignatureMagic = [4]byte{0x16, 0x26, 0xba, 0x7e}

	ecrecover = tba.Address{19: 0x01}
)

var supportedInterfaces = map[[4]byte]bool{
	// ERC-165
	contracts.Selector(ABI, "supportsInterface"): true,
	// IERC6551Account
	xor(
		contracts.Selector(ABI, "token"),
		contracts.Selector(ABI, "state"),
		contracts.Selector(ABI, "isValidSigner"),
	): true,
	// IERC6551Executable
	contracts.Selector(ABI, "execute"): true,
}

// New creates the native account implementation.
func New() *contracts.Dispatcher {
	return contracts.NewDispatcher(ABI).
		HandleReceive(func(tba.Parameters) error { return nil }).
		Handle("execute", execute).
		Handle("token", token).
		Handle("owner", owner).
		Handle("state", state).
		Handle("isValidSigner", isValidSigner).
		Handle("isValidSignature", isValidSignature).
		Handle("supportsInterface", supportsInterface).
		Handle("onERC721Received", onERC721Received).
		Handle("onERC1155Received", onERC1155Received).
		Handle("onERC1155BatchReceived", onERC1155BatchReceived).
		Handle("transferCoin", transferCoin).
		Handle("transfer20", transfer20).
		Handle("transfer721", transfer721).
		Handle("transfer1155", transfer1155)
}

// ----------------------------------------------------------------------------
// Identity and ownership
// ----------------------------------------------------------------------------

// Token identifies the token an account is bound to.
type Token struct {
	ChainID  tba.Value
	Contract tba.Address
	ID       tba.Value
}

// boundToken reads the token binding from the footer of the account proxy
// the call is running for. Accounts not deployed as proxies are bound to
// the zero token.
func boundToken(params tba.Parameters) Token {
	_, footer, ok := tba.ParseAccountProxy(params.Context.GetCode(params.Recipient))
	if !ok {
		return Token{}
	}
	return Token{
		ChainID:  tba.Value(footer[32:64]),
		Contract: tba.WordToAddress(tba.Word(footer[64:96])),
		ID:       tba.Value(footer[96:128]),
	}
}

// liveOwner resolves the current holder of the bound token.
func liveOwner(params tba.Parameters) (tba.Address, error) {
	bound := boundToken(params)
	res, err := contracts.Invoke(params, tba.StaticCall, bound.Contract, tba.Value{},
		contracts.ERC721, "ownerOf", contracts.Big(bound.ID))
	if err != nil {
		return tba.Address{}, err
	}
	return tba.Address(res[0].(common.Address)), nil
}

// authorize ensures that the sender of the call is the current holder of
// the bound token. A token whose owner can not be resolved has no holder.
func authorize(call contracts.Call) error {
	owner, err := liveOwner(call.Parameters)
	if err != nil {
		var revert *contracts.Revert
		if errors.As(err, &revert) {
			return contracts.RevertWithError(ABI, "NotAuthorized")
		}
		return err
	}
	if call.Sender != owner {
		return contracts.RevertWithError(ABI, "NotAuthorized")
	}
	return nil
}

func incrementState(params tba.Parameters) {
	storage := contracts.StorageOf(params)
	current := storage.GetValue(stateSlot)
	next, _ := tba.Add(current, tba.NewValue(1))
	storage.SetValue(stateSlot, next)
}

// ----------------------------------------------------------------------------
// Execution
// ----------------------------------------------------------------------------

func execute(call contracts.Call) ([]any, error) {
	target := call.Address(0)
	value := call.Value(1)
	data := call.Bytes(2)

	kind, supported := Operation(call.Uint8(3)).callKind()
	if !supported {
		return nil, contracts.RevertWithError(ABI, "OperationNotSupported")
	}
	if err := authorize(call); err != nil {
		return nil, err
	}

	result, err := contracts.Forward(call.Parameters, kind, target, value, data)
	if err != nil {
		return nil, err
	}
	incrementState(call.Parameters)
	err = contracts.EmitEvent(call.Parameters, ABI, "Executed",
		contracts.EthAddress(target), contracts.Big(value), data)
	if err != nil {
		return nil, err
	}
	return []any{result}, nil
}

func transferCoin(call contracts.Call) ([]any, error) {
	if err := authorize(call); err != nil {
		return nil, err
	}
	if _, err := contracts.Forward(call.Parameters, tba.Call, call.Address(0), call.Value(1), nil); err != nil {
		return nil, err
	}
	incrementState(call.Parameters)
	return nil, nil
}

func transfer20(call contracts.Call) ([]any, error) {
	if err := authorize(call); err != nil {
		return nil, err
	}
	res, err := contracts.Invoke(call.Parameters, tba.Call, call.Address(0), tba.Value{},
		contracts.ERC20, "transfer", call.Args[1], call.Args[2])
	if err != nil {
		return nil, err
	}
	if success, _ := res[0].(bool); !success {
		return nil, contracts.Reverted(nil)
	}
	incrementState(call.Parameters)
	return nil, nil
}

func transfer721(call contracts.Call) ([]any, error) {
	if err := authorize(call); err != nil {
		return nil, err
	}
	_, err := contracts.Invoke(call.Parameters, tba.Call, call.Address(0), tba.Value{},
		contracts.ERC721, "safeTransferFrom", contracts.EthAddress(call.Recipient), call.Args[1], call.Args[2])
	if err != nil {
		return nil, err
	}
	incrementState(call.Parameters)
	return nil, nil
}

func transfer1155(call contracts.Call) ([]any, error) {
	if err := authorize(call); err != nil {
		return nil, err
	}
	_, err := contracts.Invoke(call.Parameters, tba.Call, call.Address(0), tba.Value{},
		contracts.ERC1155, "safeTransferFrom",
		contracts.EthAddress(call.Recipient), call.Args[1], call.Args[2], call.Args[3], call.Args[4])
	if err != nil {
		return nil, err
	}
	incrementState(call.Parameters)
	return nil, nil
}

// ----------------------------------------------------------------------------
// Accessors
// ----------------------------------------------------------------------------

func token(call contracts.Call) ([]any, error) {
	bound := boundToken(call.Parameters)
	return []any{
		contracts.Big(bound.ChainID),
		contracts.EthAddress(bound.Contract),
		contracts.Big(bound.ID),
	}, nil
}

func owner(call contracts.Call) ([]any, error) {
	owner, err := liveOwner(call.Parameters)
	if err != nil {
		return nil, err
	}
	return []any{contracts.EthAddress(owner)}, nil
}

func state(call contracts.Call) ([]any, error) {
	return []any{contracts.Big(contracts.StorageOf(call.Parameters).GetValue(stateSlot))}, nil
}

func supportsInterface(call contracts.Call) ([]any, error) {
	return []any{supportedInterfaces[call.Bytes4(0)]}, nil
}

// ----------------------------------------------------------------------------
// Signer validation
// ----------------------------------------------------------------------------

func isValidSigner(call contracts.Call) ([]any, error) {
	valid, err := isOwner(call.Parameters, call.Address(0))
	if err != nil {
		return nil, err
	}
	if valid {
		return []any{validSignerMagic}, nil
	}
	return []any{invalidSignerMagic}, nil
}

func isValidSignature(call contracts.Call) ([]any, error) {
	hash := call.Bytes32(0)
	signature := call.Bytes(1)

	signer, recovered := recoverSigner(call.Parameters, hash, signature)
	if recovered {
		valid, err := isOwner(call.Parameters, signer)
		if err != nil {
			return nil, err
		}
		if valid {
			return []any{validSignatureMagic[:]}, nil
		}
	}
	return []any{signature}, nil
}

// isOwner checks whether the given address holds the bound token. Tokens
// whose owner can not be resolved are held by no one.
func isOwner(params tba.Parameters, candidate tba.Address) (bool, error) {
	owner, err := liveOwner(params)
	if err != nil {
		var revert *contracts.Revert
		if errors.As(err, &revert) {
			return false, nil
		}
		return false, err
	}
	return owner == candidate, nil
}

// recoverSigner recovers the address that produced a 65 byte [R || S || V]
// signature of the given hash using the ecrecover precompile.
func recoverSigner(params tba.Parameters, hash [32]byte, signature []byte) (tba.Address, bool) {
	if len(signature) != 65 {
		return tba.Address{}, false
	}
	v := signature[64]
	if v < 27 {
		v += 27
	}
	input := make([]byte, 128)
	copy(input[0:32], hash[:])
	input[63] = v
	copy(input[64:128], signature[:64])

	output, err := contracts.Forward(params, tba.StaticCall, ecrecover, tba.Value{}, input)
	if err != nil || len(output) != 32 {
		return tba.Address{}, false
	}
	return tba.WordToAddress(tba.Word(output)), true
}

// ----------------------------------------------------------------------------
// Receiver hooks
// ----------------------------------------------------------------------------

func onERC721Received(call contracts.Call) ([]any, error) {
	if call.Address(0) == (tba.Address{}) || call.Value(2).IsZero() {
		return nil, contracts.RevertWithError(ABI, "InvalidParameter")
	}
	return []any{contracts.Selector(ABI, "onERC721Received")}, nil
}

func onERC1155Received(call contracts.Call) ([]any, error) {
	if call.Address(0) == (tba.Address{}) || call.Value(2).IsZero() || call.Value(3).IsZero() {
		return nil, contracts.RevertWithError(ABI, "InvalidParameter")
	}
	return []any{contracts.Selector(ABI, "onERC1155Received")}, nil
}

func onERC1155BatchReceived(call contracts.Call) ([]any, error) {
	ids := call.Values(2)
	values := call.Values(3)
	if call.Address(0) == (tba.Address{}) || len(ids) == 0 || len(values) == 0 {
		return nil, contracts.RevertWithError(ABI, "InvalidParameter")
	}
	for _, list := range [][]tba.Value{ids, values} {
		for _, v := range list {
			if v.IsZero() {
				return nil, contracts.RevertWithError(ABI, "InvalidParameter")
			}
		}
	}
	return []any{contracts.Selector(ABI, "onERC1155BatchReceived")}, nil
}

func xor(selectors ...[4]byte) (res [4]byte) {
	for _, s := range selectors {
		for i := range res {
			res[i] ^= s[i]
		}
	}
	return res
}
