// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"bytes"
	"slices"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"golang.org/x/crypto/sha3"
)

// Context is an in-memory tba.TransactionContext. Every modification is
// recorded in an undo log, so any snapshot can be restored until the
// pending changes are committed.
type Context struct {
	current WorldState
	logs    []tba.Log
	undo    []func()
}

// NewContext creates a context operating on a copy of the given state.
func NewContext(initial WorldState) *Context {
	if initial == nil {
		initial = WorldState{}
	}
	return &Context{current: initial.Clone()}
}

// State returns a copy of the current world state including pending changes.
func (c *Context) State() WorldState {
	return c.current.Clone()
}

// Commit makes all pending changes permanent and drops the collected logs.
// Snapshots taken before the commit become invalid.
func (c *Context) Commit() {
	for address, account := range c.current {
		account.Storage = account.Storage.compact()
		if account.IsEmpty() {
			delete(c.current, address)
			continue
		}
		c.current[address] = account
	}
	c.undo = c.undo[:0]
	c.logs = nil
}

func (c *Context) AccountExists(addr tba.Address) bool {
	return c.GetBalance(addr) != tba.Value{} || c.GetNonce(addr) != 0 || c.GetCodeSize(addr) != 0
}

func (c *Context) GetBalance(addr tba.Address) tba.Value {
	return c.current[addr].Balance
}

func (c *Context) SetBalance(addr tba.Address, value tba.Value) {
	original := c.current[addr]
	modified := original
	modified.Balance = value
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetNonce(addr tba.Address) uint64 {
	return c.current[addr].Nonce
}

func (c *Context) SetNonce(addr tba.Address, value uint64) {
	original := c.current[addr]
	modified := original
	modified.Nonce = value
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetCode(addr tba.Address) tba.Code {
	return bytes.Clone(c.current[addr].Code)
}

// GetCodeHash returns the Keccak-256 hash of the code of an existing
// account, and the zero hash for accounts that do not exist.
func (c *Context) GetCodeHash(addr tba.Address) tba.Hash {
	if !c.AccountExists(addr) {
		return tba.Hash{}
	}
	return Keccak256(c.current[addr].Code)
}

func (c *Context) GetCodeSize(addr tba.Address) int {
	return len(c.current[addr].Code)
}

func (c *Context) SetCode(addr tba.Address, code tba.Code) {
	original := c.current[addr]
	modified := original
	modified.Code = bytes.Clone(code)
	c.current[addr] = modified
	c.undo = append(c.undo, func() { c.current[addr] = original })
}

func (c *Context) GetStorage(addr tba.Address, key tba.Key) tba.Word {
	return c.current[addr].Storage[key]
}

func (c *Context) SetStorage(addr tba.Address, key tba.Key, value tba.Word) {
	account := c.current[addr]
	if account.Storage == nil {
		account.Storage = Storage{}
		c.current[addr] = account
	}
	previous, present := account.Storage[key]
	account.Storage[key] = value
	c.undo = append(c.undo, func() {
		if present {
			c.current[addr].Storage[key] = previous
		} else {
			delete(c.current[addr].Storage, key)
		}
	})
}

func (c *Context) CreateSnapshot() tba.Snapshot {
	return tba.Snapshot(len(c.undo))
}

func (c *Context) RestoreSnapshot(snapshot tba.Snapshot) {
	for len(c.undo) > int(snapshot) {
		c.undo[len(c.undo)-1]()
		c.undo = c.undo[:len(c.undo)-1]
	}
}

func (c *Context) EmitLog(log tba.Log) {
	size := len(c.logs)
	c.logs = append(c.logs, log)
	c.undo = append(c.undo, func() { c.logs = c.logs[:size] })
}

func (c *Context) GetLogs() []tba.Log {
	return slices.Clone(c.logs)
}

// Keccak256 computes the legacy Keccak-256 hash of the given data.
func Keccak256(data []byte) tba.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	var res tba.Hash
	hasher.Sum(res[:0])
	return res
}
