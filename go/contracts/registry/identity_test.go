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
	"bytes"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"pgregory.net/rand"
)

func randomIdentity(rnd *rand.Rand) Identity {
	var res Identity
	rnd.Read(res.Implementation[:])
	rnd.Read(res.ChainID[:])
	rnd.Read(res.TokenContract[:])
	rnd.Read(res.TokenID[:])
	rnd.Read(res.Salt[:])
	return res
}

func TestComputeAddress_MatchesCreate2(t *testing.T) {
	rnd := rand.New(0)
	registry := tba.Address{0x65, 0x51}
	for i := 0; i < 100; i++ {
		identity := randomIdentity(rnd)
		code := identity.CreationCode()
		want := crypto.CreateAddress2(common.Address(registry), common.Hash(identity.Salt), crypto.Keccak256(code))
		if got := ComputeAddress(registry, identity); got != tba.Address(want) {
			t.Fatalf("unexpected address for %v: wanted %v, got %v", identity, want, got)
		}
	}
}

func TestComputeAddress_IsDeterministic(t *testing.T) {
	rnd := rand.New(0)
	registry := tba.Address{1}
	for i := 0; i < 100; i++ {
		identity := randomIdentity(rnd)
		if ComputeAddress(registry, identity) != ComputeAddress(registry, identity) {
			t.Fatalf("address of %v is not deterministic", identity)
		}
	}
}

func TestComputeAddress_DistinctIdentitiesHaveDistinctAddresses(t *testing.T) {
	rnd := rand.New(0)
	registry := tba.Address{1}
	base := randomIdentity(rnd)

	variants := map[string]func(*Identity){
		"implementation": func(id *Identity) { id.Implementation[0]++ },
		"chain id":       func(id *Identity) { id.ChainID[31]++ },
		"token contract": func(id *Identity) { id.TokenContract[19]++ },
		"token id":       func(id *Identity) { id.TokenID[31]++ },
		"salt":           func(id *Identity) { id.Salt[0]++ },
	}
	seen := map[tba.Address]string{ComputeAddress(registry, base): "base"}
	for name, modify := range variants {
		identity := base
		modify(&identity)
		address := ComputeAddress(registry, identity)
		if other, found := seen[address]; found {
			t.Errorf("%s variant collides with %s", name, other)
		}
		seen[address] = name
	}

	for i := 0; i < 1000; i++ {
		address := ComputeAddress(registry, randomIdentity(rnd))
		if _, found := seen[address]; found {
			t.Fatalf("random identities collide")
		}
		seen[address] = "random"
	}

	if ComputeAddress(tba.Address{2}, base) == ComputeAddress(registry, base) {
		t.Errorf("addresses should depend on the registry")
	}
}

func TestComputeAddress_AcceptsDegenerateIdentities(t *testing.T) {
	zero := ComputeAddress(tba.Address{}, Identity{})
	if zero == (tba.Address{}) {
		t.Errorf("zero identity should have a regular address")
	}
	if zero == ComputeAddress(tba.Address{}, Identity{TokenID: tba.NewValue(1)}) {
		t.Errorf("degenerate identities should still be distinguished")
	}
}

func TestIdentity_CreationCodeCarriesFooter(t *testing.T) {
	identity := Identity{
		Implementation: tba.Address{0xee},
		ChainID:        tba.NewValue(250),
		TokenContract:  tba.Address{0xcc},
		TokenID:        tba.NewValue(7),
		Salt:           tba.NewValue(3),
	}
	code := tba.DeployedCode(identity.CreationCode())
	implementation, footer, ok := tba.ParseAccountProxy(code)
	if !ok {
		t.Fatalf("creation code does not produce an account proxy")
	}
	if implementation != identity.Implementation {
		t.Errorf("unexpected implementation %v", implementation)
	}
	if want := identity.Footer(); !bytes.Equal(footer[:], want[:]) {
		t.Errorf("unexpected footer %x", footer)
	}
	if footer[31] != 3 || footer[63] != 250 || footer[76] != 0xcc || footer[127] != 7 {
		t.Errorf("unexpected footer layout %x", footer)
	}
}
