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

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Config holds the settings shared by all commands.
type Config struct {
	ChainID  uint64
	DataDir  string
	LogLevel string
}

const defaultChainID = 250

// loadConfig reads the optional configuration file and applies flag
// overrides on top of it.
func loadConfig(context *cli.Context) (Config, error) {
	conf := viper.New()
	conf.SetDefault("chainId", defaultChainID)
	conf.SetDefault("dataDir", "")
	conf.SetDefault("logLevel", "warn")

	if file := context.String(configFlag.Name); file != "" {
		conf.SetConfigType("yaml")
		conf.SetConfigFile(file)
		if err := conf.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	if context.IsSet(chainIDFlag.Name) {
		conf.Set("chainId", context.Uint64(chainIDFlag.Name))
	}
	if context.IsSet(dataDirFlag.Name) {
		conf.Set("dataDir", context.String(dataDirFlag.Name))
	}
	if context.IsSet(logLevelFlag.Name) {
		conf.Set("logLevel", context.String(logLevelFlag.Name))
	}

	return Config{
		ChainID:  conf.GetUint64("chainId"),
		DataDir:  conf.GetString("dataDir"),
		LogLevel: conf.GetString("logLevel"),
	}, nil
}

// newLogger creates a console logger writing to stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config := zap.NewDevelopmentConfig()
	config.Level = atomicLevel
	config.DisableStacktrace = true
	return config.Build()
}
