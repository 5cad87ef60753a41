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

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
)

// This file provides registries for Contract implementations and Processor
// factories.
//
// For a native contract to be executable it needs to be registered under the
// name used in its native code descriptor. Typically, this registration is
// part of the init code of the package providing the implementation. Thus, by
// including the implementation package, contracts become available to every
// processor in the binary. The same holds for processor factories.

// GetContract performs a lookup for the given name (case-insensitive) in the
// registry. The result is nil if no contract was registered under the given
// name.
func GetContract(name string) Contract {
	contractRegistryLock.Lock()
	defer contractRegistryLock.Unlock()
	return contractRegistry[strings.ToLower(name)]
}

// GetAllRegisteredContracts obtains all registered implementations.
func GetAllRegisteredContracts() map[string]Contract {
	contractRegistryLock.Lock()
	defer contractRegistryLock.Unlock()
	return maps.Clone(contractRegistry)
}

// RegisterContract registers a new native Contract implementation. The name
// is not case-sensitive. An error is returned if an implementation was bound
// to the same name before, or the implementation is nil.
func RegisterContract(name string, contract Contract) error {
	key := strings.ToLower(name)
	if contract == nil {
		return fmt.Errorf("invalid initialization: cannot register nil-contract using `%s`", key)
	}
	if len(key) == 0 || len(key) > maxNativeNameLength {
		return fmt.Errorf("invalid initialization: invalid contract name `%s`", key)
	}
	contractRegistryLock.Lock()
	defer contractRegistryLock.Unlock()
	if _, found := contractRegistry[key]; found {
		return fmt.Errorf("invalid initialization: multiple contracts registered for `%s`", key)
	}
	contractRegistry[key] = contract
	return nil
}

// MustRegisterContract is like RegisterContract but panics on failure. It is
// intended to be used by package initialization code.
func MustRegisterContract(name string, contract Contract) {
	if err := RegisterContract(name, contract); err != nil {
		panic(err)
	}
}

// contractRegistry is a global registry for native contracts.
var contractRegistry = map[string]Contract{}

// contractRegistryLock to protect access to the registry.
var contractRegistryLock sync.Mutex

// NewProcessor performs a lookup for the given name (case-insensitive) in
// the registry and creates a new Processor using the given optional
// configuration. An error is returned if no factory was registered under the
// given name.
func NewProcessor(name string, config ...any) (Processor, error) {
	if len(config) > 1 {
		return nil, fmt.Errorf("invalid configuration: too many arguments")
	}
	factory := GetProcessorFactory(name)
	if factory == nil {
		return nil, fmt.Errorf("processor not found: %s", name)
	}
	c := any(nil)
	if len(config) > 0 {
		c = config[0]
	}
	return factory(c)
}

// GetProcessorFactory performs a lookup for the given name (case-insensitive)
// in the registry. The result is nil if no factory was registered under the
// given name.
func GetProcessorFactory(name string) ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return processorRegistry[strings.ToLower(name)]
}

// GetAllRegisteredProcessorFactories obtains all registered implementations.
func GetAllRegisteredProcessorFactories() map[string]ProcessorFactory {
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	return maps.Clone(processorRegistry)
}

// RegisterProcessorFactory can be used to register a new Processor
// implementation. The name is not case-sensitive, and a panic is triggered if
// an implementation was bound to the same name before, or the implementation
// is nil. This function is mainly intended to be used by package
// initialization code.
func RegisterProcessorFactory(name string, factory ProcessorFactory) {
	key := strings.ToLower(name)
	if factory == nil {
		panic(fmt.Sprintf("invalid initialization: cannot register nil-processor using `%s`", key))
	}
	processorRegistryLock.Lock()
	defer processorRegistryLock.Unlock()
	if _, found := processorRegistry[key]; found {
		panic(fmt.Sprintf("invalid initialization: multiple Processors registered for `%s`", key))
	}
	processorRegistry[key] = factory
}

// ProcessorFactory is the type of a function that creates a new Processor
// using a processor specific configuration.
type ProcessorFactory func(config any) (Processor, error)

// processorRegistry is a global registry for Processor factories.
var processorRegistry = map[string]ProcessorFactory{}

// processorRegistryLock to protect access to the registry.
var processorRegistryLock sync.Mutex
