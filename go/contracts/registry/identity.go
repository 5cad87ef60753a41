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

import (
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity is the tuple determining the address of a token-bound account.
// All combinations of values, including zero values, are valid identities.
type Identity struct {
	Implementation tba.Address
	ChainID        tba.Value
	TokenContract  tba.Address
	TokenID        tba.Value
	Salt           tba.Value
}

func (i Identity) String() string {
	return fmt.Sprintf("%v@%v/%v/%v#%v", i.Implementation, i.ChainID, i.TokenContract, i.TokenID, i.Salt)
}

// Footer is the abi.encode(salt, chainId, tokenContract, tokenId) record
// appended to the code of the account proxy.
func (i Identity) Footer() (res [tba.AccountFooterSize]byte) {
	tokenContract := tba.AddressToWord(i.TokenContract)
	copy(res[0:32], i.Salt[:])
	copy(res[32:64], i.ChainID[:])
	copy(res[64:96], tokenContract[:])
	copy(res[96:128], i.TokenID[:])
	return res
}

// CreationCode is the code deployed by the registry for this identity.
func (i Identity) CreationCode() tba.Code {
	return tba.AccountCreationCode(i.Implementation, i.Footer())
}

// ComputeAddress derives the address of the account with the given identity
// created by the registry at the given address. The result does not depend on
// whether the account has been created.
func ComputeAddress(registry tba.Address, identity Identity) tba.Address {
	return tba.Address(crypto.CreateAddress2(
		common.Address(registry),
		common.Hash(identity.Salt),
		crypto.Keccak256(identity.CreationCode()),
	))
}
