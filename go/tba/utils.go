// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tba

import "errors"

// ErrExecutionReverted is reported by client code for unsuccessful receipts
// or call results.
var ErrExecutionReverted = errors.New("execution reverted")

func IsPrecompiledContract(recipient Address) bool {
	// the addresses 1-10 are precompiled contracts
	for i := 0; i < 19; i++ {
		if recipient[i] != 0 {
			return false
		}
	}
	return 1 <= recipient[19] && recipient[19] <= 10
}

// AddressToWord left-pads the address to a 32 byte word.
func AddressToWord(address Address) (res Word) {
	copy(res[12:], address[:])
	return res
}

// WordToAddress takes the least significant 20 bytes of the word.
func WordToAddress(word Word) (res Address) {
	copy(res[:], word[12:])
	return res
}
