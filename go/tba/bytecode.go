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

import (
	"bytes"
	"strings"
)

// Code deployed in the world state comes in two forms understood by the host:
//
//   - native code descriptors, binding an address to a Contract registered in
//     this binary, and
//   - ERC-1167 minimal proxies carrying the ERC-6551 account footer, which
//     forward every call to an implementation address while running in the
//     storage context of the proxy.

// nativePrefix marks native code descriptors. 0xEF is a reserved leading byte
// for deployed EVM code, so descriptors can never be confused with it.
var nativePrefix = []byte{0xef, 'T', 'B', 'A'}

const maxNativeNameLength = 64

// NativeCode produces the code descriptor binding an account to the native
// contract registered under the given name.
func NativeCode(name string) Code {
	res := make(Code, 0, len(nativePrefix)+len(name))
	res = append(res, nativePrefix...)
	return append(res, strings.ToLower(name)...)
}

// ParseNativeCode extracts the contract name from a native code descriptor.
func ParseNativeCode(code Code) (string, bool) {
	if !bytes.HasPrefix(code, nativePrefix) {
		return "", false
	}
	name := code[len(nativePrefix):]
	if len(name) == 0 || len(name) > maxNativeNameLength {
		return "", false
	}
	return string(name), true
}

// AccountFooterSize is the size of the abi.encode(salt, chainId,
// tokenContract, tokenId) footer appended to an account proxy.
const AccountFooterSize = 4 * 32

var (
	proxyConstructor = []byte{0x3d, 0x60, 0xad, 0x80, 0x60, 0x0a, 0x3d, 0x39, 0x81, 0xf3}
	proxyPrefix      = []byte{0x36, 0x3d, 0x3d, 0x37, 0x3d, 0x3d, 0x3d, 0x36, 0x3d, 0x73}
	proxySuffix      = []byte{0x5a, 0xf4, 0x3d, 0x82, 0x80, 0x3e, 0x90, 0x3d, 0x91, 0x60, 0x2b, 0x57, 0xfd, 0x5b, 0xf3}
)

const accountProxySize = 10 + 20 + 15 + AccountFooterSize

// AccountCreationCode produces the creation code of an ERC-6551 account
// proxy delegating to the given implementation. The creation code consists of
// a constructor copying the runtime code, the ERC-1167 runtime code, and the
// footer identifying the bound token.
func AccountCreationCode(implementation Address, footer [AccountFooterSize]byte) Code {
	res := make(Code, 0, len(proxyConstructor)+accountProxySize)
	res = append(res, proxyConstructor...)
	res = append(res, proxyPrefix...)
	res = append(res, implementation[:]...)
	res = append(res, proxySuffix...)
	return append(res, footer[:]...)
}

// ParseAccountProxy extracts the implementation and the footer from the
// runtime code of an ERC-6551 account proxy.
func ParseAccountProxy(code Code) (implementation Address, footer [AccountFooterSize]byte, ok bool) {
	if len(code) != accountProxySize ||
		!bytes.HasPrefix(code, proxyPrefix) ||
		!bytes.Equal(code[30:45], proxySuffix) {
		return implementation, footer, false
	}
	copy(implementation[:], code[10:30])
	copy(footer[:], code[45:])
	return implementation, footer, true
}

// DeployedCode computes the runtime code resulting from running the given
// creation code. Account proxy constructors return the code they carry;
// any other creation code, in particular native code descriptors, is
// deployed as it is.
func DeployedCode(init Code) Code {
	if len(init) == len(proxyConstructor)+accountProxySize && bytes.HasPrefix(init, proxyConstructor) {
		return bytes.Clone(init[len(proxyConstructor):])
	}
	return bytes.Clone(init)
}
