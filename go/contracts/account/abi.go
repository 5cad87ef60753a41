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

import "github.com/Fantom-foundation/tokenbound/go/contracts"

// ABI is the interface of ERC-6551 accounts.
var ABI = contracts.MustParseABI(abiDefinition)

const abiDefinition = `[
  {"type":"receive","stateMutability":"payable"},
  {"type":"function","name":"execute","stateMutability":"payable",
   "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"}],
   "outputs":[{"name":"result","type":"bytes"}]},
  {"type":"function","name":"token","stateMutability":"view","inputs":[],
   "outputs":[{"name":"chainId","type":"uint256"},{"name":"tokenContract","type":"address"},{"name":"tokenId","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"state","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"isValidSigner","stateMutability":"view",
   "inputs":[{"name":"signer","type":"address"},{"name":"context","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"isValidSignature","stateMutability":"view",
   "inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],
   "outputs":[{"name":"magicValue","type":"bytes"}]},
  {"type":"function","name":"supportsInterface","stateMutability":"pure",
   "inputs":[{"name":"interfaceId","type":"bytes4"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"onERC721Received","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"onERC1155Received","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"id","type":"uint256"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"onERC1155BatchReceived","stateMutability":"nonpayable",
   "inputs":[{"name":"operator","type":"address"},{"name":"from","type":"address"},{"name":"ids","type":"uint256[]"},{"name":"values","type":"uint256[]"},{"name":"data","type":"bytes"}],
   "outputs":[{"name":"","type":"bytes4"}]},
  {"type":"function","name":"transferCoin","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"transfer20","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"transfer721","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"transfer1155","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],
   "outputs":[]},
  {"type":"event","name":"Executed","anonymous":false,
   "inputs":[{"name":"target","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false},{"name":"data","type":"bytes","indexed":false}]},
  {"type":"error","name":"NotAuthorized","inputs":[]},
  {"type":"error","name":"OperationNotSupported","inputs":[]},
  {"type":"error","name":"InvalidParameter","inputs":[]}
]`
