// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"fmt"

	"github.com/Fantom-foundation/tokenbound/go/host"
	"github.com/prometheus/client_golang/prometheus"
)

// hostActivity summarizes the counters recorded by the host metrics.
type hostActivity struct {
	Transactions int // processed by the host, queries included
	Reverted     int
	Calls        int
}

func (a hostActivity) String() string {
	return fmt.Sprintf("%d host transactions (%d reverted) with %d calls", a.Transactions, a.Reverted, a.Calls)
}

// newHostMetrics creates host metrics registered with a fresh registry.
func newHostMetrics() (*prometheus.Registry, *host.Metrics, error) {
	registry := prometheus.NewRegistry()
	metrics, err := host.NewMetrics(registry)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	return registry, metrics, nil
}

func gatherActivity(gatherer prometheus.Gatherer) (hostActivity, error) {
	families, err := gatherer.Gather()
	if err != nil {
		return hostActivity{}, fmt.Errorf("failed to gather metrics: %w", err)
	}
	var res hostActivity
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			count := int(metric.GetCounter().GetValue())
			switch family.GetName() {
			case host.TransactionsMetric:
				res.Transactions += count
				for _, label := range metric.GetLabel() {
					if label.GetName() == "outcome" && label.GetValue() == host.OutcomeReverted {
						res.Reverted += count
					}
				}
			case host.CallsMetric:
				res.Calls += count
			}
		}
	}
	return res, nil
}
