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

	"github.com/Fantom-foundation/tokenbound/go/client"
	"github.com/Fantom-foundation/tokenbound/go/contracts/registry"
	"github.com/Fantom-foundation/tokenbound/go/tba"
	"github.com/urfave/cli/v2"
)

var identityFlags = []cli.Flag{
	registryFlag,
	implementationFlag,
	tokenContractFlag,
	tokenIDFlag,
	saltFlag,
}

var AddressCmd = cli.Command{
	Action: doAddress,
	Name:   "address",
	Usage:  "Computes the address of a token-bound account without creating it",
	Flags:  identityFlags,
}

var CreateCmd = cli.Command{
	Action: doCreate,
	Name:   "create",
	Usage:  "Creates a token-bound account on the local chain",
	Flags:  append([]cli.Flag{fromFlag}, identityFlags...),
}

var AccountsCmd = cli.Command{
	Action: doAccounts,
	Name:   "accounts",
	Usage:  "Lists the accounts created for a token on the local chain",
	Flags: []cli.Flag{
		registryFlag,
		tokenContractFlag,
		tokenIDFlag,
	},
}

// fetchIdentity collects the account identity from the command line.
func fetchIdentity(context *cli.Context, chainID uint64) (tba.Address, registry.Identity, error) {
	registryAddress, err := registryFlag.Fetch(context)
	if err != nil {
		return tba.Address{}, registry.Identity{}, err
	}
	implementation, err := implementationFlag.Fetch(context)
	if err != nil {
		return tba.Address{}, registry.Identity{}, err
	}
	tokenContract, err := tokenContractFlag.Fetch(context)
	if err != nil {
		return tba.Address{}, registry.Identity{}, err
	}
	tokenID, err := tokenIDFlag.Fetch(context)
	if err != nil {
		return tba.Address{}, registry.Identity{}, err
	}
	salt, err := saltFlag.Fetch(context)
	if err != nil {
		return tba.Address{}, registry.Identity{}, err
	}
	return registryAddress, registry.Identity{
		Implementation: implementation,
		ChainID:        tba.NewValue(chainID),
		TokenContract:  tokenContract,
		TokenID:        tokenID,
		Salt:           salt,
	}, nil
}

func doAddress(context *cli.Context) error {
	config, err := loadConfig(context)
	if err != nil {
		return err
	}
	registryAddress, identity, err := fetchIdentity(context, config.ChainID)
	if err != nil {
		return err
	}
	fmt.Println(registry.ComputeAddress(registryAddress, identity))
	return nil
}

func doCreate(context *cli.Context) error {
	from, err := fromFlag.Fetch(context)
	if err != nil {
		return err
	}
	node, err := openNode(context)
	if err != nil {
		return err
	}
	defer node.Close()

	registryAddress, identity, err := fetchIdentity(context, node.config.ChainID)
	if err != nil {
		return err
	}
	address, err := client.NewRegistry(node, registryAddress).CreateAccount(from, identity, nil)
	if err != nil {
		return fmt.Errorf("failed to create account %v: %w", identity, err)
	}
	fmt.Println(address)
	return nil
}

func doAccounts(context *cli.Context) error {
	node, err := openNode(context)
	if err != nil {
		return err
	}
	defer node.Close()

	registryAddress, err := registryFlag.Fetch(context)
	if err != nil {
		return err
	}
	tokenContract, err := tokenContractFlag.Fetch(context)
	if err != nil {
		return err
	}
	tokenID, err := tokenIDFlag.Fetch(context)
	if err != nil {
		return err
	}
	accounts, err := client.NewRegistry(node, registryAddress).AccountsOf(tokenContract, tokenID)
	if err != nil {
		return err
	}
	for _, account := range accounts {
		fmt.Println(account)
	}
	return nil
}
