// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package chain provides a minimal single-node chain applying transactions
// to an in-memory world state, optionally persisted in a badger store.
package chain

import (
	"fmt"
	"time"

	"github.com/Fantom-foundation/tokenbound/go/host"
	"github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

// Config collects the parameters of a chain.
type Config struct {
	ChainID uint64
	// Genesis is used if the store is empty or no store is configured.
	Genesis state.WorldState
	// Store is optional; if set, every block is persisted.
	Store   *state.Store
	Logger  *zap.Logger
	Metrics *host.Metrics
}

// Chain applies transactions one at a time. Every transaction forms a block
// of its own; a transaction is either applied completely or not at all.
type Chain struct {
	chainID   tba.Value // fixed at creation, readable without the mutex
	mutex     deadlock.Mutex
	logger    *zap.Logger
	processor tba.Processor
	context   *state.Context
	block     tba.BlockParameters
	store     *state.Store
}

// New creates a chain from the configured store, or from genesis if there is
// no persisted state.
func New(config Config) (*Chain, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	processor, err := tba.NewProcessor("tba", host.Config{
		Logger:  logger.Named("host"),
		Metrics: config.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	initial := config.Genesis
	var blockNumber int64
	if config.Store != nil {
		persisted, number, err := config.Store.Load()
		if err != nil {
			return nil, err
		}
		if len(persisted) > 0 {
			initial, blockNumber = persisted, number
			logger.Info("restored chain state",
				zap.Int64("block", blockNumber),
				zap.Int("accounts", len(persisted)),
			)
		}
	}

	chainID := tba.NewValue(config.ChainID)
	return &Chain{
		chainID:   chainID,
		logger:    logger,
		processor: processor,
		context:   state.NewContext(initial),
		block: tba.BlockParameters{
			ChainID:     tba.Word(chainID),
			BlockNumber: blockNumber,
		},
		store: config.Store,
	}, nil
}

// ChainID returns the id of this chain.
func (c *Chain) ChainID() tba.Value {
	return c.chainID
}

// BlockNumber returns the number of the last block.
func (c *Chain) BlockNumber() int64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.block.BlockNumber
}

// Transact applies the given transaction in a new block. A failing
// transaction still produces a block; only the sender's nonce changes.
// Errors are reserved for failures of the host.
func (c *Chain) Transact(transaction tba.Transaction) (tba.Receipt, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.transact(transaction)
}

// Send is a convenience variant of Transact filling in the sender's current
// nonce. A nil recipient creates a contract.
func (c *Chain) Send(sender tba.Address, recipient *tba.Address, value tba.Value, input []byte) (tba.Receipt, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.transact(tba.Transaction{
		Sender:    sender,
		Recipient: recipient,
		Nonce:     c.context.GetNonce(sender),
		Input:     input,
		Value:     value,
	})
}

func (c *Chain) transact(transaction tba.Transaction) (tba.Receipt, error) {
	block := c.block
	block.BlockNumber++
	block.Timestamp = time.Now().Unix()

	snapshot := c.context.CreateSnapshot()
	receipt, err := c.processor.Run(block, transaction, c.context)
	if err != nil {
		c.context.RestoreSnapshot(snapshot)
		c.context.Commit()
		c.logger.Error("transaction failed", zap.Stringer("sender", transaction.Sender), zap.Error(err))
		return tba.Receipt{}, err
	}
	c.context.Commit()
	c.block = block

	c.logger.Debug("block applied",
		zap.Int64("block", block.BlockNumber),
		zap.Stringer("sender", transaction.Sender),
		zap.Bool("success", receipt.Success),
		zap.Int("logs", len(receipt.Logs)),
	)

	return receipt, c.persist()
}

func (c *Chain) persist() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(c.context.State(), c.block.BlockNumber); err != nil {
		return fmt.Errorf("failed to persist block %d: %w", c.block.BlockNumber, err)
	}
	return nil
}

// Call runs a transaction without retaining any of its effects. It is used
// to query contracts.
func (c *Chain) Call(sender tba.Address, recipient tba.Address, value tba.Value, input []byte) (tba.Receipt, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot := c.context.CreateSnapshot()
	defer c.context.RestoreSnapshot(snapshot)

	block := c.block
	block.Timestamp = time.Now().Unix()
	return c.processor.Run(block, tba.Transaction{
		Sender:    sender,
		Recipient: &recipient,
		Nonce:     c.context.GetNonce(sender),
		Input:     input,
		Value:     value,
	}, c.context)
}

// Fund adds the given amount to the balance of an address outside of any
// transaction.
func (c *Chain) Fund(address tba.Address, amount tba.Value) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	balance, overflow := tba.Add(c.context.GetBalance(address), amount)
	if overflow {
		return fmt.Errorf("balance of %v would overflow", address)
	}
	c.context.SetBalance(address, balance)
	c.context.Commit()
	return c.persist()
}

func (c *Chain) GetBalance(address tba.Address) tba.Value {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.context.GetBalance(address)
}

func (c *Chain) GetNonce(address tba.Address) uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.context.GetNonce(address)
}

func (c *Chain) GetCode(address tba.Address) tba.Code {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.context.GetCode(address)
}

// State returns a copy of the current world state.
func (c *Chain) State() state.WorldState {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.context.State()
}
