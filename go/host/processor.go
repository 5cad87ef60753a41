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
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/tba"
	"go.uber.org/zap"
)

// MaxRecursiveDepth is the maximum nesting level of contract calls.
const MaxRecursiveDepth = 1024

// defaultCodeCacheSize is the number of resolved code entries kept by a
// processor if not configured otherwise.
const defaultCodeCacheSize = 4096

func init() {
	tba.RegisterProcessorFactory("tba", newProcessorFromConfig)
}

// Config collects the optional dependencies of a Processor.
type Config struct {
	Logger        *zap.Logger
	Metrics       *Metrics
	CodeCacheSize int
}

func newProcessorFromConfig(config any) (tba.Processor, error) {
	switch c := config.(type) {
	case nil:
		return NewProcessor(Config{})
	case Config:
		return NewProcessor(c)
	case *Config:
		return NewProcessor(*c)
	default:
		return nil, fmt.Errorf("invalid processor configuration of type %T", config)
	}
}

// Processor runs transactions against native contracts and ERC-6551
// account proxies deployed in a world state.
type Processor struct {
	logger  *zap.Logger
	metrics *Metrics
	codes   *codeCache
}

// NewProcessor creates a processor using the given configuration. Missing
// dependencies are replaced by no-op defaults.
func NewProcessor(config Config) (*Processor, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	size := config.CodeCacheSize
	if size <= 0 {
		size = defaultCodeCacheSize
	}
	codes, err := newCodeCache(size)
	if err != nil {
		return nil, err
	}
	return &Processor{
		logger:  logger,
		metrics: config.Metrics,
		codes:   codes,
	}, nil
}

// Run executes the given transaction. Failed transactions, including those
// with an invalid nonce or an insufficient balance, are reported through an
// unsuccessful receipt and leave the state untouched. The returned error is
// reserved for failures of the host or of contract implementations.
func (p *Processor) Run(
	blockParams tba.BlockParameters,
	transaction tba.Transaction,
	context tba.TransactionContext,
) (tba.Receipt, error) {
	errorReceipt := tba.Receipt{Success: false}
	logger := p.logger.With(
		zap.Stringer("sender", transaction.Sender),
		zap.Uint64("nonce", transaction.Nonce),
	)

	if err := checkNonce(transaction, context); err != nil {
		logger.Debug("transaction rejected", zap.Error(err))
		p.metrics.transactionProcessed(OutcomeRejected)
		return errorReceipt, nil
	}

	numLogs := len(context.GetLogs())
	snapshot := context.CreateSnapshot()

	runContext := runContext{
		TransactionContext: context,
		processor:          p,
		blockParameters:    blockParams,
		transactionParameters: tba.TransactionParameters{
			Origin: transaction.Sender,
		},
	}

	var result tba.CallResult
	var err error
	var contractAddress *tba.Address
	if transaction.Recipient == nil {
		result, err = runContext.executeCreate(tba.Create, tba.CallParameters{
			Sender: transaction.Sender,
			Value:  transaction.Value,
			Input:  transaction.Input,
		})
		if result.Success {
			contractAddress = &result.CreatedAddress
		}
	} else {
		if err := incrementNonce(context, transaction.Sender); err != nil {
			p.metrics.transactionProcessed(OutcomeRejected)
			return errorReceipt, nil
		}
		result, err = runContext.executeCall(tba.Call, tba.CallParameters{
			Sender:      transaction.Sender,
			Recipient:   *transaction.Recipient,
			Value:       transaction.Value,
			Input:       transaction.Input,
			CodeAddress: *transaction.Recipient,
		})
	}
	if err != nil {
		context.RestoreSnapshot(snapshot)
		logger.Error("transaction failed", zap.Error(err))
		p.metrics.transactionProcessed(OutcomeFailed)
		return errorReceipt, err
	}

	var logs []tba.Log
	if result.Success {
		logs = context.GetLogs()[numLogs:]
		p.metrics.transactionProcessed(OutcomeSuccess)
	} else {
		p.metrics.transactionProcessed(OutcomeReverted)
	}
	logger.Debug("transaction processed",
		zap.Bool("success", result.Success),
		zap.Int("logs", len(logs)),
	)

	return tba.Receipt{
		Success:         result.Success,
		Output:          result.Output,
		ContractAddress: contractAddress,
		Logs:            logs,
	}, nil
}

func checkNonce(transaction tba.Transaction, context tba.TransactionContext) error {
	stateNonce := context.GetNonce(transaction.Sender)
	messageNonce := transaction.Nonce
	if messageNonce != stateNonce {
		return fmt.Errorf("nonce mismatch: %v != %v", messageNonce, stateNonce)
	}
	return nil
}
