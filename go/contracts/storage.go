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
	"encoding/binary"
	"math/big"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Native contracts lay out their state like compiled Solidity contracts do:
// state variables occupy numbered slots, mapping entries are found at
// keccak256(key . slot), and the elements of dynamic arrays start at
// keccak256(slot) while the slot itself holds the length.

// Slot returns the key of the n-th storage slot.
func Slot(n uint64) tba.Key {
	return tba.Key(WordFromUint64(n))
}

// MappingSlot returns the slot holding the entry for the given key of a
// mapping stored at the given slot.
func MappingSlot(slot tba.Key, key tba.Word) tba.Key {
	return tba.Key(crypto.Keccak256Hash(key[:], slot[:]))
}

// ArraySlot returns the slot of the element with the given index of a
// dynamic array stored at the given slot.
func ArraySlot(slot tba.Key, index uint64) tba.Key {
	start := new(uint256.Int).SetBytes(crypto.Keccak256(slot[:]))
	start.Add(start, uint256.NewInt(index))
	return start.Bytes32()
}

// Storage provides typed access to the storage of a single account.
type Storage struct {
	state   tba.WorldState
	address tba.Address
}

// StorageOf provides access to the storage of the account a contract is
// running for.
func StorageOf(params tba.Parameters) Storage {
	return Storage{state: params.Context, address: params.Recipient}
}

func (s Storage) Get(key tba.Key) tba.Word {
	return s.state.GetStorage(s.address, key)
}

func (s Storage) Set(key tba.Key, value tba.Word) {
	s.state.SetStorage(s.address, key, value)
}

func (s Storage) GetValue(key tba.Key) tba.Value {
	return tba.Value(s.Get(key))
}

func (s Storage) SetValue(key tba.Key, value tba.Value) {
	s.Set(key, tba.Word(value))
}

func (s Storage) GetAddress(key tba.Key) tba.Address {
	return tba.WordToAddress(s.Get(key))
}

func (s Storage) SetAddress(key tba.Key, address tba.Address) {
	s.Set(key, tba.AddressToWord(address))
}

func (s Storage) GetBool(key tba.Key) bool {
	return s.Get(key) != (tba.Word{})
}

func (s Storage) SetBool(key tba.Key, value bool) {
	var word tba.Word
	if value {
		word[31] = 1
	}
	s.Set(key, word)
}

// Length returns the length of the dynamic array stored at the given slot.
func (s Storage) Length(slot tba.Key) uint64 {
	word := s.Get(slot)
	return binary.BigEndian.Uint64(word[24:])
}

// Push appends an element to the dynamic array stored at the given slot.
func (s Storage) Push(slot tba.Key, value tba.Word) {
	length := s.Length(slot)
	s.Set(ArraySlot(slot, length), value)
	s.Set(slot, WordFromUint64(length+1))
}

// Elements returns all elements of the dynamic array stored at the given
// slot.
func (s Storage) Elements(slot tba.Key) []tba.Word {
	length := s.Length(slot)
	res := make([]tba.Word, 0, length)
	for i := uint64(0); i < length; i++ {
		res = append(res, s.Get(ArraySlot(slot, i)))
	}
	return res
}

// ----------------------------------------------------------------------------
// Conversions
// ----------------------------------------------------------------------------

func WordFromUint64(n uint64) (res tba.Word) {
	binary.BigEndian.PutUint64(res[24:], n)
	return res
}

// Big converts a value into the representation used by ABI encoding.
func Big(v tba.Value) *big.Int {
	return v.ToBig()
}

// Bigs converts a list of values into the representation used by ABI
// encoding.
func Bigs(values []tba.Value) []*big.Int {
	res := make([]*big.Int, len(values))
	for i, v := range values {
		res[i] = v.ToBig()
	}
	return res
}

// EthAddress converts an address into the representation used by ABI
// encoding.
func EthAddress(a tba.Address) common.Address {
	return common.Address(a)
}

// EthAddresses converts a list of addresses into the representation used by
// ABI encoding.
func EthAddresses(addresses []tba.Address) []common.Address {
	res := make([]common.Address, len(addresses))
	for i, a := range addresses {
		res[i] = common.Address(a)
	}
	return res
}

func bigToUint256(v *big.Int) *uint256.Int {
	res, _ := uint256.FromBig(v)
	return res
}
