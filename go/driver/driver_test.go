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
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Fantom-foundation/tokenbound/go/chain"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		if err := f.Apply(set); err != nil {
			t.Fatalf("failed to apply flag: %v", err)
		}
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("failed to parse arguments: %v", err)
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

var globalFlags = []cli.Flag{&configFlag, &dataDirFlag, &chainIDFlag, &logLevelFlag}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := loadConfig(newTestContext(t, globalFlags))
	if err != nil {
		t.Fatalf("failed to load configuration: %v", err)
	}
	want := Config{ChainID: defaultChainID, DataDir: "", LogLevel: "warn"}
	if config != want {
		t.Errorf("unexpected configuration %+v, wanted %+v", config, want)
	}
}

func TestLoadConfig_FileAndFlags(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	content := "chainId: 4002\ndataDir: /tmp/tba\nlogLevel: debug\n"
	if err := os.WriteFile(file, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write configuration: %v", err)
	}

	tests := map[string]struct {
		args []string
		want Config
	}{
		"file only": {
			args: []string{"--config", file},
			want: Config{ChainID: 4002, DataDir: "/tmp/tba", LogLevel: "debug"},
		},
		"flags override file": {
			args: []string{"--config", file, "--chain-id", "1", "--log-level", "error"},
			want: Config{ChainID: 1, DataDir: "/tmp/tba", LogLevel: "error"},
		},
		"flags without file": {
			args: []string{"--data-dir", "state"},
			want: Config{ChainID: defaultChainID, DataDir: "state", LogLevel: "warn"},
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			config, err := loadConfig(newTestContext(t, globalFlags, test.args...))
			if err != nil {
				t.Fatalf("failed to load configuration: %v", err)
			}
			if config != test.want {
				t.Errorf("unexpected configuration %+v, wanted %+v", config, test.want)
			}
		})
	}
}

func TestLoadConfig_MissingFileIsReported(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadConfig(newTestContext(t, globalFlags, "--config", missing)); err == nil {
		t.Errorf("expected an error for a missing configuration file")
	}
}

func TestNewLogger_RejectsUnknownLevels(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := newLogger("chatty"); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
}

func TestParseValue(t *testing.T) {
	tests := map[string]struct {
		text  string
		want  tba.Value
		valid bool
	}{
		"zero":        {"0", tba.Value{}, true},
		"decimal":     {"1234", tba.NewValue(1234), true},
		"hexadecimal": {"0x10", tba.NewValue(16), true},
		"maximum":     {"0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", tba.NewValue(^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)), true},
		"too large":   {"0x1ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", tba.Value{}, false},
		"negative":    {"-1", tba.Value{}, false},
		"garbage":     {"twelve", tba.Value{}, false},
		"empty":       {"", tba.Value{}, false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parseValue(test.text)
			if !test.valid {
				if err == nil {
					t.Errorf("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.want {
				t.Errorf("unexpected value %v, wanted %v", got, test.want)
			}
		})
	}
}

func TestFetchIdentity_UsesDefaultsAndFlags(t *testing.T) {
	ctx := newTestContext(t, identityFlags, "--token-id", "7", "--salt", "0x2")
	registryAddress, identity, err := fetchIdentity(ctx, 250)
	if err != nil {
		t.Fatalf("failed to fetch identity: %v", err)
	}
	if registryAddress != chain.RegistryAddress {
		t.Errorf("unexpected registry %v", registryAddress)
	}
	want := registry.Identity{
		Implementation: chain.AccountImplementation,
		ChainID:        tba.NewValue(250),
		TokenContract:  chain.SampleERC721,
		TokenID:        tba.NewValue(7),
		Salt:           tba.NewValue(2),
	}
	if identity != want {
		t.Errorf("unexpected identity %v, wanted %v", identity, want)
	}

	ctx = newTestContext(t, identityFlags, "--token-contract", "0x1234")
	if _, _, err := fetchIdentity(ctx, 250); err == nil {
		t.Errorf("expected an error for an invalid address")
	}
}

func TestRunCustody_MovesAssetsThroughAccounts(t *testing.T) {
	gatherer, metrics, err := newHostMetrics()
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	c, err := chain.New(chain.Config{ChainID: 250, Genesis: chain.Genesis(nil), Metrics: metrics})
	if err != nil {
		t.Fatalf("failed to create chain: %v", err)
	}
	var progress strings.Builder
	report, err := runCustody(c, gatherer, 3, &progress)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if report.Rounds != 3 {
		t.Errorf("unexpected number of rounds %d", report.Rounds)
	}
	// mint, create, deposit, two mints, three payouts, hand-over, rejected payout
	if want := 3 * 10; report.Transactions != want {
		t.Errorf("unexpected number of transactions %d, wanted %d", report.Transactions, want)
	}
	if got := c.GetBalance(tba.Address{0xfe}); got != tba.NewValue(3*coinPayout) {
		t.Errorf("unexpected receiver balance %v", got)
	}
	// the host also runs the four queries of every round's check
	if want := 3 * 14; report.Host.Transactions != want {
		t.Errorf("unexpected number of host transactions %d, wanted %d", report.Host.Transactions, want)
	}
	if want := 3; report.Host.Reverted != want {
		t.Errorf("unexpected number of reverted transactions %d, wanted %d", report.Host.Reverted, want)
	}
	if report.Host.Calls <= report.Host.Transactions {
		t.Errorf("nested calls are missing, got %d calls for %d transactions", report.Host.Calls, report.Host.Transactions)
	}
	if !strings.Contains(report.String(), "Host: 42 host transactions (3 reverted)") {
		t.Errorf("unexpected report %q", report.String())
	}
	if !strings.Contains(report.String(), "Processed 3 accounts using 30 transactions") {
		t.Errorf("unexpected report %q", report.String())
	}
}
