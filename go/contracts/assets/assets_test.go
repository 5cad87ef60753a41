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
	"math/big"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/contracts"
	"github.com/Fantom-foundation/tokenbound/go/host"
	"github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	erc20Address   = tba.Address{0x20}
	erc721Address  = tba.Address{0x72}
	erc1155Address = tba.Address{0x11}

	alice = tba.Address{0xa1}
	bob   = tba.Address{0xb0}
	carol = tba.Address{0xca}

	acceptingReceiver = tba.Address{0xac}
	rejectingReceiver = tba.Address{0xbe}
	revertingReceiver = tba.Address{0xde}
	plainContract     = tba.Address{0xc0}

	zero = tba.Address{}
)

// Receivers used to observe the acceptance hooks of the ledgers.
func init() {
	tba.MustRegisterContract("test-accepting-receiver", contracts.NewDispatcher(receiverABI).
		Handle("onERC721Received", func(contracts.Call) ([]any, error) {
			return []any{contracts.Selector(receiverABI, "onERC721Received")}, nil
		}).
		Handle("onERC1155Received", func(contracts.Call) ([]any, error) {
			return []any{contracts.Selector(receiverABI, "onERC1155Received")}, nil
		}).
		Handle("onERC1155BatchReceived", func(contracts.Call) ([]any, error) {
			return []any{contracts.Selector(receiverABI, "onERC1155BatchReceived")}, nil
		}))

	wrongMagic := func(contracts.Call) ([]any, error) {
		return []any{[4]byte{0xba, 0xdc, 0x0f, 0xfe}}, nil
	}
	tba.MustRegisterContract("test-rejecting-receiver", contracts.NewDispatcher(receiverABI).
		Handle("onERC721Received", wrongMagic).
		Handle("onERC1155Received", wrongMagic).
		Handle("onERC1155BatchReceived", wrongMagic))

	refuse := func(contracts.Call) ([]any, error) {
		return nil, contracts.RevertWithReason("not accepted")
	}
	tba.MustRegisterContract("test-reverting-receiver", contracts.NewDispatcher(receiverABI).
		Handle("onERC721Received", refuse).
		Handle("onERC1155Received", refuse).
		Handle("onERC1155BatchReceived", refuse))
}

var receiverABI = contracts.MustParseABI(`[
  {"type":"function","name":"onERC721Received","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"onERC1155Received","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"id","type":"uint256"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"onERC1155BatchReceived","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"ids","type":"uint256[]"},{"name":"values","type":"uint256[]"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]}
]`)

// ledgers runs transactions against all asset ledgers deployed in a fresh
// world state.
type ledgers struct {
	t         *testing.T
	processor *host.Processor
	context   *state.Context
	logs      []tba.Log
}

func newLedgers(t *testing.T) *ledgers {
	t.Helper()
	processor, err := host.NewProcessor(host.Config{})
	if err != nil {
		t.Fatalf("failed to create processor: %v", err)
	}
	return &ledgers{
		t:         t,
		processor: processor,
		context:   state.NewContext(state.WorldState{
			erc20Address:      {Nonce: 1, Code: tba.NativeCode(ERC20Name)},
			erc721Address:     {Nonce: 1, Code: tba.NativeCode(ERC721Name)},
			erc1155Address:    {Nonce: 1, Code: tba.NativeCode(ERC1155Name)},
			acceptingReceiver: {Nonce: 1, Code: tba.NativeCode("test-accepting-receiver")},
			rejectingReceiver: {Nonce: 1, Code: tba.NativeCode("test-rejecting-receiver")},
			revertingReceiver: {Nonce: 1, Code: tba.NativeCode("test-reverting-receiver")},
			// a contract implementing none of the hooks
			plainContract: {Nonce: 1, Code: tba.NativeCode(ERC20Name)},
		}),
	}
}

// call runs the named method and returns its decoded results. If the call
// reverts, the revert reason is returned instead.
func (l *ledgers) call(sender, ledger tba.Address, ledgerABI *abi.ABI, method string, args ...any) ([]any, string, bool) {
	l.t.Helper()
	input, err := ledgerABI.Pack(method, args...)
	if err != nil {
		l.t.Fatalf("failed to encode %s: %v", method, err)
	}
	receipt, err := l.processor.Run(tba.BlockParameters{}, tba.Transaction{
		Sender:    sender,
		Recipient: &ledger,
		Nonce:     l.context.GetNonce(sender),
		Input:     input,
	}, l.context)
	if err != nil {
		l.t.Fatalf("failed to run %s: %v", method, err)
	}
	l.context.Commit()
	l.logs = receipt.Logs
	if !receipt.Success {
		reason, _ := abi.UnpackRevert(receipt.Output)
		return nil, reason, false
	}
	res, err := ledgerABI.Unpack(method, receipt.Output)
	if err != nil {
		l.t.Fatalf("failed to decode result of %s: %v", method, err)
	}
	return res, "", true
}

// mustCall runs the named method and fails the test if it reverts.
func (l *ledgers) mustCall(sender, ledger tba.Address, ledgerABI *abi.ABI, method string, args ...any) []any {
	l.t.Helper()
	res, reason, ok := l.call(sender, ledger, ledgerABI, method, args...)
	if !ok {
		l.t.Fatalf("%s reverted: %q", method, reason)
	}
	return res
}

// mustRevert runs the named method and fails the test unless it reverts with
// the given reason.
func (l *ledgers) mustRevert(reason string, sender, ledger tba.Address, ledgerABI *abi.ABI, method string, args ...any) {
	l.t.Helper()
	_, got, ok := l.call(sender, ledger, ledgerABI, method, args...)
	if ok {
		l.t.Fatalf("%s should revert", method)
	}
	if got != reason {
		l.t.Errorf("unexpected revert reason %q, wanted %q", got, reason)
	}
}

func eth(a tba.Address) common.Address {
	return common.Address(a)
}

func checkBig(t *testing.T, got any, want int64) {
	t.Helper()
	if got.(*big.Int).Cmp(big.NewInt(want)) != 0 {
		t.Errorf("unexpected value %v, wanted %d", got, want)
	}
}

func TestSupportsInterface_LedgersReportTheirInterfaces(t *testing.T) {
	l := newLedgers(t)
	tests := map[string]struct {
		ledger tba.Address
		abi    *abi.ABI
		id     [4]byte
		want   bool
	}{
		"erc721 ERC-165":   {erc721Address, contracts.ERC721, erc165InterfaceID, true},
		"erc721 ERC-721":   {erc721Address, contracts.ERC721, [4]byte{0x80, 0xac, 0x58, 0xcd}, true},
		"erc721 metadata":  {erc721Address, contracts.ERC721, [4]byte{0x5b, 0x5e, 0x13, 0x9f}, true},
		"erc721 ERC-1155":  {erc721Address, contracts.ERC721, [4]byte{0xd9, 0xb6, 0x7a, 0x26}, false},
		"erc721 invalid":   {erc721Address, contracts.ERC721, [4]byte{0xff, 0xff, 0xff, 0xff}, false},
		"erc1155 ERC-165":  {erc1155Address, contracts.ERC1155, erc165InterfaceID, true},
		"erc1155 ERC-1155": {erc1155Address, contracts.ERC1155, [4]byte{0xd9, 0xb6, 0x7a, 0x26}, true},
		"erc1155 metadata": {erc1155Address, contracts.ERC1155, [4]byte{0x0e, 0x89, 0x34, 0x1c}, true},
		"erc1155 ERC-721":  {erc1155Address, contracts.ERC1155, [4]byte{0x80, 0xac, 0x58, 0xcd}, false},
		"erc1155 zero":     {erc1155Address, contracts.ERC1155, [4]byte{}, false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			res := l.mustCall(alice, test.ledger, test.abi, "supportsInterface", test.id)
			if got := res[0].(bool); got != test.want {
				t.Errorf("unexpected result %t, wanted %t", got, test.want)
			}
		})
	}
}
