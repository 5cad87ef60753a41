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
	"errors"
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	lru "github.com/hashicorp/golang-lru/v2"
)

var errUnsupportedCode = errors.New("unsupported code")

// resolvedCode describes what a piece of deployed code executes. Account
// proxies are resolved to their implementation; native code descriptors
// to themselves.
type resolvedCode struct {
	name           string      // < name of the native contract, empty if no code is executed
	implementation tba.Address // < implementation of an account proxy
	isProxy        bool
}

// codeCache caches the analysis of deployed code indexed by its hash.
type codeCache struct {
	cache *lru.Cache[tba.Hash, resolvedCode]
}

func newCodeCache(size int) (*codeCache, error) {
	cache, err := lru.New[tba.Hash, resolvedCode](size)
	if err != nil {
		return nil, err
	}
	return &codeCache{cache: cache}, nil
}

func (c *codeCache) get(hash tba.Hash, code tba.Code) (resolvedCode, error) {
	if res, found := c.cache.Get(hash); found {
		return res, nil
	}
	res, err := analyzeCode(code)
	if err != nil {
		return res, err
	}
	c.cache.Add(hash, res)
	return res, nil
}

func analyzeCode(code tba.Code) (resolvedCode, error) {
	if name, ok := tba.ParseNativeCode(code); ok {
		return resolvedCode{name: name}, nil
	}
	if implementation, _, ok := tba.ParseAccountProxy(code); ok {
		return resolvedCode{implementation: implementation, isProxy: true}, nil
	}
	return resolvedCode{}, errUnsupportedCode
}

// callTarget is the contract to be run for a call and the address its code
// was obtained from.
type callTarget struct {
	contract    tba.Contract
	codeAddress tba.Address
}

// resolve determines the contract to be executed when running the code
// stored at the given address. Accounts without code, as well as proxies
// delegating to accounts without code, yield a target without contract.
func (r runContext) resolve(address tba.Address) (callTarget, error) {
	code, err := r.resolveCode(address)
	if err != nil || code.name != "" || !code.isProxy {
		return r.lookup(address, code, err)
	}
	implementation := code.implementation
	code, err = r.resolveCode(implementation)
	if err == nil && code.isProxy {
		return callTarget{}, fmt.Errorf("proxy %v delegates to another proxy", address)
	}
	return r.lookup(implementation, code, err)
}

func (r runContext) resolveCode(address tba.Address) (resolvedCode, error) {
	if r.GetCodeSize(address) == 0 {
		return resolvedCode{}, nil
	}
	return r.processor.codes.get(r.GetCodeHash(address), r.GetCode(address))
}

func (r runContext) lookup(address tba.Address, code resolvedCode, err error) (callTarget, error) {
	if err != nil {
		return callTarget{}, err
	}
	if code.name == "" {
		return callTarget{codeAddress: address}, nil
	}
	contract := tba.GetContract(code.name)
	if contract == nil {
		return callTarget{}, fmt.Errorf("no native contract registered for %q", code.name)
	}
	return callTarget{contract: contract, codeAddress: address}, nil
}
