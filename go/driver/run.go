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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Fantom-foundation/tokenbound/go/chain"
	"github.com/Fantom-foundation/tokenbound/go/client"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/dsnet/golib/unitconv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

var RunCmd = cli.Command{
	Action: doRun,
	Name:   "run",
	Usage:  "Runs a custody scenario moving assets through token-bound accounts on an in-memory chain",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "rounds",
			Usage: "number of accounts taken through the scenario",
			Value: 100,
		},
	},
}

func doRun(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}
	logger, err := newLogger(config.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	gatherer, metrics, err := newHostMetrics()
	if err != nil {
		return err
	}
	c, err := chain.New(chain.Config{
		ChainID: config.ChainID,
		Genesis: chain.Genesis(nil),
		Logger:  logger.Named("chain"),
		Metrics: metrics,
	})
	if err != nil {
		return err
	}

	rounds := context.Int("rounds")
	fmt.Printf("Running custody scenario for %d accounts on chain %d ...\n", rounds, config.ChainID)
	report, err := runCustody(c, gatherer, rounds, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

// Amounts moved through every account of the custody scenario.
const (
	coinDeposit  = 1000
	coinPayout   = 400
	tokenDeposit = 500
	tokenPayout  = 200
	multiDeposit = 10
	multiPayout  = 5
)

// custodyReport summarizes a run of the custody scenario.
type custodyReport struct {
	Rounds       int
	Transactions int
	Duration     time.Duration
	Host         hostActivity
}

func (r custodyReport) String() string {
	rate := 0.0
	if r.Duration > 0 {
		rate = float64(r.Transactions) / r.Duration.Seconds()
	}
	return fmt.Sprintf(
		"Processed %d accounts using %d transactions in %v (~%s transactions per second)\nHost: %v\n",
		r.Rounds, r.Transactions, r.Duration.Round(time.Millisecond),
		unitconv.FormatPrefix(rate, unitconv.SI, 0), r.Host,
	)
}

// countingBackend counts the transactions sent through it.
type countingBackend struct {
	client.Backend
	sent int
}

func (b *countingBackend) Send(sender tba.Address, recipient *tba.Address, value tba.Value, input []byte) (tba.Receipt, error) {
	b.sent++
	return b.Backend.Send(sender, recipient, value, input)
}

// custody takes token-bound accounts through deposits, payouts and a change
// of ownership of the bound token.
type custody struct {
	chain    *chain.Chain
	backend  *countingBackend
	registry *client.Registry
	nft      *client.ERC721
	fungible *client.ERC20
	multi    *client.ERC1155
	receiver tba.Address
}

func runCustody(c *chain.Chain, gatherer prometheus.Gatherer, rounds int, progress io.Writer) (custodyReport, error) {
	backend := &countingBackend{Backend: c}
	scenario := &custody{
		chain:    c,
		backend:  backend,
		registry: client.NewRegistry(backend, chain.RegistryAddress),
		nft:      client.NewERC721(backend, chain.SampleERC721),
		fungible: client.NewERC20(backend, chain.SampleERC20),
		multi:    client.NewERC1155(backend, chain.SampleERC1155),
		receiver: tba.Address{0xfe},
	}

	start := time.Now()
	lastReport := start
	for i := 0; i < rounds; i++ {
		if err := scenario.round(uint64(i + 1)); err != nil {
			return custodyReport{}, fmt.Errorf("round %d failed: %w", i+1, err)
		}
		if now := time.Now(); now.Sub(lastReport) >= time.Second {
			lastReport = now
			elapsed := now.Sub(start)
			fmt.Fprintf(progress,
				"[t=%4d:%02d] - Processing ~%s transactions per second, accounts %d\n",
				int(elapsed.Seconds())/60, int(elapsed.Seconds())%60,
				unitconv.FormatPrefix(float64(backend.sent)/elapsed.Seconds(), unitconv.SI, 0), i+1,
			)
		}
	}
	duration := time.Since(start)
	activity, err := gatherActivity(gatherer)
	if err != nil {
		return custodyReport{}, err
	}
	return custodyReport{
		Rounds:       rounds,
		Transactions: backend.sent,
		Duration:     duration,
		Host:         activity,
	}, nil
}

func (s *custody) round(tokenID uint64) error {
	id := tba.NewValue(tokenID)
	owner := tba.Address{0x0a, byte(tokenID >> 16), byte(tokenID >> 8), byte(tokenID)}
	if err := s.chain.Fund(owner, tba.NewValue(coinDeposit)); err != nil {
		return err
	}

	if err := s.nft.Mint(owner, owner, id); err != nil {
		return fmt.Errorf("failed to mint token: %w", err)
	}
	address, err := s.registry.CreateAccount(owner, registry.Identity{
		Implementation: chain.AccountImplementation,
		ChainID:        s.chain.ChainID(),
		TokenContract:  chain.SampleERC721,
		TokenID:        id,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	account := client.NewAccount(s.backend, address)

	// deposits
	receipt, err := s.backend.Send(owner, &address, tba.NewValue(coinDeposit), nil)
	if err != nil {
		return err
	}
	if !receipt.Success {
		return errors.New("coin deposit failed")
	}
	if err := s.fungible.Mint(owner, address, tba.NewValue(tokenDeposit)); err != nil {
		return fmt.Errorf("failed to deposit tokens: %w", err)
	}
	if err := s.multi.Mint(owner, address, id, tba.NewValue(multiDeposit), nil); err != nil {
		return fmt.Errorf("failed to deposit multi-tokens: %w", err)
	}

	// payouts by the owner
	if err := account.TransferCoin(owner, s.receiver, tba.NewValue(coinPayout)); err != nil {
		return fmt.Errorf("coin payout failed: %w", err)
	}
	if err := account.Transfer20(owner, chain.SampleERC20, s.receiver, tba.NewValue(tokenPayout)); err != nil {
		return fmt.Errorf("token payout failed: %w", err)
	}
	if err := account.Transfer1155(owner, chain.SampleERC1155, s.receiver, id, tba.NewValue(multiPayout), nil); err != nil {
		return fmt.Errorf("multi-token payout failed: %w", err)
	}

	// handing over the token hands over the account
	if err := s.nft.TransferFrom(owner, owner, s.receiver, id); err != nil {
		return fmt.Errorf("failed to hand over token: %w", err)
	}
	err = account.TransferCoin(owner, owner, tba.NewValue(1))
	if !errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("previous owner still controls the account: %v", err)
	}

	return s.check(account, id)
}

func (s *custody) check(account *client.Account, id tba.Value) error {
	checks := []struct {
		what string
		get  func() (tba.Value, error)
		want uint64
	}{
		{"coin balance", func() (tba.Value, error) { return s.chain.GetBalance(account.Address()), nil }, coinDeposit - coinPayout},
		{"token balance", func() (tba.Value, error) { return s.fungible.BalanceOf(account.Address()) }, tokenDeposit - tokenPayout},
		{"multi-token balance", func() (tba.Value, error) { return s.multi.BalanceOf(account.Address(), id) }, multiDeposit - multiPayout},
		{"account state", account.State, 3},
	}
	for _, check := range checks {
		got, err := check.get()
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", check.what, err)
		}
		if got != tba.NewValue(check.want) {
			return fmt.Errorf("unexpected %s, wanted %d, got %v", check.what, check.want, got)
		}
	}
	owner, err := account.Owner()
	if err != nil {
		return err
	}
	if owner != s.receiver {
		return fmt.Errorf("account owned by %v after hand-over", owner)
	}
	return nil
}
