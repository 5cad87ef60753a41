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

//go:generate mockgen -source contract.go -destination contract_mock.go -package tba

// Contract is a native implementation of contract code. Deployed code refers
// to a Contract through a native code descriptor (see NativeCode), and the
// host resolves the descriptor through the contract registry whenever the
// code is invoked.
type Contract interface {
	// Run executes the contract for the given parameters. The resulting error
	// is nil whenever the contract was correctly executed, even if it decided
	// to revert. A revert is signaled by a Result with Success set to false,
	// carrying the revert data in its Output. A non-nil error indicates an
	// issue in the host or the contract implementation itself; in such a
	// case the result is undefined.
	Run(Parameters) (Result, error)
}

// Parameters summarizes the list of input parameters required for running a
// contract.
type Parameters struct {
	BlockParameters
	TransactionParameters
	Context     RunContext
	Kind        CallKind
	Static      bool
	Depth       int
	Recipient   Address // < the account whose storage and balance is used
	Sender      Address // < the caller as seen by the contract
	Input       Data
	Value       Value
	CodeAddress Address // < the account the executed code was loaded from
}

// BlockParameters contains information about the current block.
type BlockParameters struct {
	ChainID     Word
	BlockNumber int64
	Timestamp   int64
}

// TransactionParameters contains information about current transaction.
type TransactionParameters struct {
	Origin Address
}

// RunContext provides an interface to access and manipulate state and to
// perform nested calls as needed by contract implementations.
type RunContext interface {
	TransactionContext

	Call(kind CallKind, parameter CallParameters) (CallResult, error)
}

// Result summarizes the result of a contract run.
type Result struct {
	Success bool // false if the execution ended in a revert, true otherwise
	Output  Data
}

type CallParameters struct {
	Sender      Address
	Recipient   Address // < not relevant for CREATE and CREATE2
	Value       Value   // < ignored by static calls, considered to be 0
	Input       Data
	Salt        Hash // < only relevant for CREATE2 calls
	CodeAddress Address
}

type CallResult struct {
	Output         Data
	CreatedAddress Address // < only meaningful for CREATE and CREATE2
	Success        bool    // false if the execution ended in a revert, true otherwise
}
