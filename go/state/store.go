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
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

var (
	accountPrefix  = []byte("acct:")
	blockNumberKey = []byte("meta:block")
)

// Store persists world states in a badger database. Accounts are stored as
// JSON documents keyed by their address.
type Store struct {
	db *badgerdb.DB
}

// OpenStore opens or creates a store in the given directory. An empty
// directory name creates an in-memory store.
func OpenStore(dataDir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badgerdb.DefaultOptions(dataDir)
	if dataDir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger.Sugar()}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return &Store{db: db}, nil
}

// Load reads the persisted world state and the number of the last block
// applied to it. An empty store yields an empty state and block zero.
func (s *Store) Load() (WorldState, int64, error) {
	res := WorldState{}
	var blockNumber int64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(blockNumberKey)
		if err == nil {
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			blockNumber = int64(binary.BigEndian.Uint64(value))
		} else if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}

		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(accountPrefix); it.ValidForPrefix(accountPrefix); it.Next() {
			item := it.Item()
			var address tba.Address
			if err := address.UnmarshalText(item.Key()[len(accountPrefix):]); err != nil {
				return fmt.Errorf("invalid account key %q: %w", item.Key(), err)
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var account Account
			if err := json.Unmarshal(value, &account); err != nil {
				return fmt.Errorf("invalid account %v: %w", address, err)
			}
			res[address] = account
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load state: %w", err)
	}
	return res, blockNumber, nil
}

// Save replaces the persisted state by the given world state. The update is
// atomic; if it fails, the previously saved state is retained.
func (s *Store) Save(state WorldState, blockNumber int64) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return replaceState(txn, state, blockNumber)
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// replaceState writes the given state and block number within the given
// transaction. Persisted accounts not part of the state are deleted.
func replaceState(txn *badgerdb.Txn, state WorldState, blockNumber int64) error {
	opts := badgerdb.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = accountPrefix
	it := txn.NewIterator(opts)
	var persisted [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		persisted = append(persisted, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range persisted {
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to clear account %q: %w", key, err)
		}
	}
	for address, account := range state {
		if account.IsEmpty() {
			continue
		}
		key, err := address.MarshalText()
		if err != nil {
			return err
		}
		value, err := json.Marshal(account)
		if err != nil {
			return fmt.Errorf("failed to encode account %v: %w", address, err)
		}
		if err := txn.Set(append(append([]byte{}, accountPrefix...), key...), value); err != nil {
			return fmt.Errorf("failed to write account %v: %w", address, err)
		}
	}
	number := make([]byte, 8)
	binary.BigEndian.PutUint64(number, uint64(blockNumber))
	return txn.Set(blockNumberKey, number)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger forwards badger's internal logging to zap.
type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("badger: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("badger: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf("badger: "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("badger: "+format, args...)
}
