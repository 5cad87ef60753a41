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
)

func canTransferValue(
	context tba.TransactionContext,
	value tba.Value,
	sender tba.Address,
	recipient *tba.Address,
) bool {
	if value.IsZero() {
		return true
	}

	senderBalance := context.GetBalance(sender)
	if senderBalance.Cmp(value) < 0 {
		return false
	}

	if recipient == nil || sender == *recipient {
		return true
	}

	_, overflow := tba.Add(context.GetBalance(*recipient), value)
	return !overflow
}

func incrementNonce(context tba.TransactionContext, address tba.Address) error {
	nonce := context.GetNonce(address)
	if nonce+1 < nonce {
		return fmt.Errorf("nonce overflow")
	}
	context.SetNonce(address, nonce+1)
	return nil
}

// transferValue moves value between accounts. The transfer must have been
// checked using canTransferValue before.
func transferValue(
	context tba.TransactionContext,
	value tba.Value,
	sender tba.Address,
	recipient tba.Address,
) {
	if value.IsZero() || sender == recipient {
		return
	}

	senderBalance, _ := tba.Sub(context.GetBalance(sender), value)
	receiverBalance, _ := tba.Add(context.GetBalance(recipient), value)
	context.SetBalance(sender, senderBalance)
	context.SetBalance(recipient, receiverBalance)
}
