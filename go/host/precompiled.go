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
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
	geth "github.com/ethereum/go-ethereum/core/vm"
)

// handlePrecompiled runs the precompiled contract at the given address, if
// there is one. Gas is not metered by this host.
func handlePrecompiled(input tba.Data, address tba.Address) (tba.CallResult, bool) {
	if !tba.IsPrecompiledContract(address) {
		return tba.CallResult{}, false
	}
	contract, ok := geth.PrecompiledContractsCancun[common.Address(address)]
	if !ok {
		return tba.CallResult{}, false
	}
	output, err := contract.Run(input)
	return tba.CallResult{
		Success: err == nil, // precompiled contracts only return errors on invalid input
		Output:  output,
	}, true
}
