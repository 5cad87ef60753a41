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
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Revert is returned by contract method handlers to abort the current call.
// All state modifications of the call are rolled back and Data is returned
// to the caller.
type Revert struct {
	Data []byte
}

func (e *Revert) Error() string {
	if reason, err := abi.UnpackRevert(e.Data); err == nil {
		return fmt.Sprintf("execution reverted: %s", reason)
	}
	return fmt.Sprintf("execution reverted: 0x%x", e.Data)
}

// Reverted creates a revert carrying the given data verbatim.
func Reverted(data []byte) error {
	return &Revert{Data: bytes.Clone(data)}
}

// RevertWithError creates a revert carrying the encoding of the named custom
// error of the given ABI.
func RevertWithError(contractABI *abi.ABI, name string, args ...any) error {
	def, found := contractABI.Errors[name]
	if !found {
		return fmt.Errorf("unknown error %s", name)
	}
	data, err := def.Inputs.Pack(args...)
	if err != nil {
		return fmt.Errorf("failed to encode error %s: %w", name, err)
	}
	return &Revert{Data: append(bytes.Clone(def.ID[:4]), data...)}
}

var (
	revertSelector = []byte{0x08, 0xc3, 0x79, 0xa0}
	reasonArgs     = abi.Arguments{{Type: mustNewType("string")}}
)

// RevertWithReason creates a revert carrying an Error(string) reason.
func RevertWithReason(reason string) error {
	data, err := reasonArgs.Pack(reason)
	if err != nil {
		return fmt.Errorf("failed to encode revert reason: %w", err)
	}
	return &Revert{Data: append(bytes.Clone(revertSelector), data...)}
}

// MustParseABI parses a JSON ABI definition. It panics on invalid input and
// is intended for package initialization.
func MustParseABI(definition string) *abi.ABI {
	res, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI definition: %v", err))
	}
	return &res
}

func mustNewType(name string) abi.Type {
	res, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return res
}
