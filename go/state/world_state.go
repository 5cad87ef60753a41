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
	"fmt"
	"maps"
	"slices"

	"github.com/Fantom-foundation/tokenbound/go/tba"
)

// WorldState is the complete state of the chain, mapping addresses to
// accounts. Accounts that are empty are treated as absent.
type WorldState map[tba.Address]Account

func (s WorldState) Equal(other WorldState) bool {
	for _, address := range unionKeys(s, other) {
		a, b := s[address], other[address]
		if !a.Equal(&b) {
			return false
		}
	}
	return true
}

func (s WorldState) Clone() WorldState {
	if s == nil {
		return nil
	}
	res := make(WorldState, len(s))
	for address, account := range s {
		res[address] = account.Clone()
	}
	return res
}

// Diff lists the differences between two world states in a stable order.
func (s WorldState) Diff(other WorldState) []string {
	var res []string
	for _, address := range unionKeys(s, other) {
		a, b := s[address], other[address]
		res = append(res, a.Diff(fmt.Sprintf("%v/", address), &b)...)
	}
	slices.Sort(res)
	return res
}

// Account is a single entry of the world state. The zero account is empty
// and ignored by comparisons.
type Account struct {
	Balance tba.Value `json:"balance"`
	Nonce   uint64    `json:"nonce"`
	Code    tba.Code  `json:"code,omitempty"`
	Storage Storage   `json:"storage,omitempty"`
}

func (a *Account) IsEmpty() bool {
	return a.Balance.IsZero() && a.Nonce == 0 && len(a.Code) == 0 && a.Storage.Equal(nil)
}

func (a *Account) Equal(other *Account) bool {
	return a.Balance == other.Balance &&
		a.Nonce == other.Nonce &&
		bytes.Equal(a.Code, other.Code) &&
		a.Storage.Equal(other.Storage)
}

func (a *Account) Clone() Account {
	res := *a
	res.Code = bytes.Clone(a.Code)
	res.Storage = a.Storage.Clone()
	return res
}

func (a *Account) Diff(prefix string, other *Account) []string {
	var res []string
	if a.Balance != other.Balance {
		res = append(res, fmt.Sprintf("%sbalance: %v != %v", prefix, a.Balance, other.Balance))
	}
	if a.Nonce != other.Nonce {
		res = append(res, fmt.Sprintf("%snonce: %d != %d", prefix, a.Nonce, other.Nonce))
	}
	if !bytes.Equal(a.Code, other.Code) {
		res = append(res, fmt.Sprintf("%scode: %s != %s", prefix, describeCode(a.Code), describeCode(other.Code)))
	}
	for _, key := range unionKeys(a.Storage, other.Storage) {
		if x, y := a.Storage[key], other.Storage[key]; x != y {
			res = append(res, fmt.Sprintf("%sstorage/%v: %v != %v", prefix, key, x, y))
		}
	}
	return res
}

// describeCode renders code in terms of the contracts hosted by the chain.
func describeCode(code tba.Code) string {
	if name, ok := tba.ParseNativeCode(code); ok {
		return fmt.Sprintf("native(%s)", name)
	}
	if implementation, footer, ok := tba.ParseAccountProxy(code); ok {
		return fmt.Sprintf("proxy(%v, 0x%x)", implementation, footer[:])
	}
	if len(code) == 0 {
		return "none"
	}
	return fmt.Sprintf("0x%x", []byte(code))
}

// Storage is the key/value store of a single account. Zero-valued entries
// are equivalent to missing entries.
type Storage map[tba.Key]tba.Word

func (s Storage) Equal(other Storage) bool {
	for _, key := range unionKeys(s, other) {
		if s[key] != other[key] {
			return false
		}
	}
	return true
}

func (s Storage) Clone() Storage {
	return maps.Clone(s)
}

// compact drops zero-valued entries.
func (s Storage) compact() Storage {
	maps.DeleteFunc(s, func(_ tba.Key, v tba.Word) bool {
		return v == (tba.Word{})
	})
	if len(s) == 0 {
		return nil
	}
	return s
}

// unionKeys returns the keys present in either of the given maps.
func unionKeys[K comparable, V any](a, b map[K]V) []K {
	res := make([]K, 0, len(a)+len(b))
	for k := range a {
		res = append(res, k)
	}
	for k := range b {
		if _, found := a[k]; !found {
			res = append(res, k)
		}
	}
	return res
}
