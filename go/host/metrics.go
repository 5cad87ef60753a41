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
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/prometheus/client_golang/prometheus"
)

// Names of the collected metric families.
const (
	TransactionsMetric = "tba_host_transactions_total"
	CallsMetric        = "tba_host_calls_total"
)

// Values of the outcome label of TransactionsMetric.
const (
	OutcomeSuccess  = "success"
	OutcomeReverted = "reverted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics collects counters on the activity of a Processor. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	transactions *prometheus.CounterVec
	calls        *prometheus.CounterVec
}

// NewMetrics creates the processor metrics and registers them with the
// given registerer.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	res := &Metrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tba",
				Subsystem: "host",
				Name:      "transactions_total",
				Help:      "Number of processed transactions by outcome",
			},
			[]string{"outcome"}, // success, reverted, rejected, failed
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tba",
				Subsystem: "host",
				Name:      "calls_total",
				Help:      "Number of executed contract calls by kind",
			},
			[]string{"kind"},
		),
	}
	for _, collector := range []prometheus.Collector{res.transactions, res.calls} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (m *Metrics) transactionProcessed(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) callExecuted(kind tba.CallKind) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(kind.String()).Inc()
}
