// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package registry

import "github.com/Fantom-foundation/tokenbound/go/contracts"

// ABI is the interface of the ERC-6551 registry.
var ABI = contracts.MustParseABI(abiDefinition)

const abiDefinition = `[
  {"type":"function","name":"account","stateMutability":"view",
   "inputs":[{"name":"implementation","type":"address"},{"name":"chainId","type":"uint256"},{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"salt","type":"uint256"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"createAccount","stateMutability":"nonpayable",
   "inputs":[{"name":"implementation","type":"address"},{"name":"chainId","type":"uint256"},{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"salt","type":"uint256"},{"name":"initData","type":"bytes"}],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"accountsOf","stateMutability":"view",
   "inputs":[{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"}],
   "outputs":[{"name":"","type":"address[]"}]},
  {"type":"event","name":"AccountCreated","anonymous":false,
   "inputs":[{"name":"account","type":"address","indexed":false},{"name":"implementation","type":"address","indexed":true},{"name":"chainId","type":"uint256","indexed":false},{"name":"tokenContract","type":"address","indexed":true},{"name":"tokenId","type":"uint256","indexed":true},{"name":"salt","type":"uint256","indexed":false}]},
  {"type":"error","name":"AccountCreationFailed","inputs":[]}
]`
