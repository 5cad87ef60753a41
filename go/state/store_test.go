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
	"errors"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	badgerdb "github.com/dgraph-io/badger/v3"
)

func TestStore_EmptyStoreLoadsEmptyState(t *testing.T) {
	store, err := OpenStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	state, block, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if len(state) != 0 || block != 0 {
		t.Errorf("unexpected content of empty store: %v, block %d", state, block)
	}
}

func TestStore_SavedStateCanBeReloaded(t *testing.T) {
	dir := t.TempDir()
	state := WorldState{
		{1}: Account{Balance: tba.NewValue(1000), Nonce: 3},
		{2}: Account{Code: tba.NativeCode("registry"), Storage: Storage{{1}: {2}, {3}: {4}}},
		{3}: Account{},
	}

	store, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Save(state, 42); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store, err = OpenStore(dir, nil)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	restored, block, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if !state.Equal(restored) {
		t.Errorf("unexpected restored state: %v", restored.Diff(state))
	}
	if block != 42 {
		t.Errorf("unexpected block number, wanted 42, got %d", block)
	}
}

func TestStore_SaveReplacesPreviousState(t *testing.T) {
	store, err := OpenStore("", nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if err := store.Save(WorldState{{1}: Account{Nonce: 1}}, 1); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}
	second := WorldState{{2}: Account{Nonce: 2}}
	if err := store.Save(second, 2); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	restored, _, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if !second.Equal(restored) {
		t.Errorf("unexpected restored state: %v", restored.Diff(second))
	}
}

func TestStore_AbortedReplacementKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(dir, nil)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	first := WorldState{
		{1}: Account{Balance: tba.NewValue(10)},
		{2}: Account{Nonce: 1},
	}
	if err := store.Save(first, 1); err != nil {
		t.Fatalf("failed to save state: %v", err)
	}

	injected := errors.New("injected")
	err = store.db.Update(func(txn *badgerdb.Txn) error {
		if err := replaceState(txn, WorldState{{3}: Account{Nonce: 3}}, 2); err != nil {
			return err
		}
		return injected
	})
	if !errors.Is(err, injected) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store, err = OpenStore(dir, nil)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()
	restored, block, err := store.Load()
	if err != nil {
		t.Fatalf("failed to load state: %v", err)
	}
	if !first.Equal(restored) {
		t.Errorf("unexpected restored state: %v", restored.Diff(first))
	}
	if block != 1 {
		t.Errorf("unexpected block number, wanted 1, got %d", block)
	}
}
