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

	"github.com/Fantom-foundation/tokenbound/go/chain"
	"github.com/Fantom-foundation/tokenbound/go/state"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// node is a chain opened from the configured data directory.
type node struct {
	*chain.Chain
	config  Config
	logger  *zap.Logger
	store   *state.Store
	metrics *prometheus.Registry
}

func openNode(context *cli.Context) (*node, error) {
	config, err := loadConfig(context)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return nil, err
	}
	registry, metrics, err := newHostMetrics()
	if err != nil {
		return nil, err
	}
	store, err := state.OpenStore(config.DataDir, logger.Named("store"))
	if err != nil {
		return nil, err
	}
	c, err := chain.New(chain.Config{
		ChainID: config.ChainID,
		Genesis: chain.Genesis(nil),
		Store:   store,
		Logger:  logger.Named("chain"),
		Metrics: metrics,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open chain: %w", err)
	}
	return &node{Chain: c, config: config, logger: logger, store: store, metrics: registry}, nil
}

func (n *node) Close() error {
	if activity, err := gatherActivity(n.metrics); err == nil {
		n.logger.Info("closing node",
			zap.Int("transactions", activity.Transactions),
			zap.Int("reverted", activity.Reverted),
			zap.Int("calls", activity.Calls),
		)
	}
	_ = n.logger.Sync()
	return n.store.Close()
}
