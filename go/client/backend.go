// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package client

//go:generate mockgen -source backend.go -destination backend_mock.go -package client

import "github.com/Fantom-foundation/tokenbound/go/tba"

// Backend submits transactions and queries to a chain.
type Backend interface {
	// Send applies a transaction from the given sender. A nil recipient
	// creates a contract.
	Send(sender tba.Address, recipient *tba.Address, value tba.Value, input []byte) (tba.Receipt, error)
	// Call runs a transaction without retaining its effects.
	Call(sender tba.Address, recipient tba.Address, value tba.Value, input []byte) (tba.Receipt, error)
}
