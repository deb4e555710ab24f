// Package networks lists the EVM chains Bitquery serves and the identifiers
// used to address them in queries.
package networks

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TypeEVM is the network type of every supported chain
const TypeEVM = "evm_network"

// Network describes one supported chain
type Network struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Currency string `json:"currency" yaml:"currency"`
	Type     string `json:"network_type" yaml:"network_type"`
	Value    string `json:"network_value" yaml:"network_value"`
}

var (
	Ethereum = Network{ID: "eth", Name: "Ethereum", Currency: "ETH", Type: TypeEVM, Value: "eth"}
	BSC      = Network{ID: "bsc", Name: "Binance Smart Chain", Currency: "BNB", Type: TypeEVM, Value: "bsc"}
	Polygon  = Network{ID: "matic", Name: "Polygon", Currency: "MATIC", Type: TypeEVM, Value: "matic"}
)

var all = []Network{Ethereum, BSC, Polygon}

// All returns every supported network
func All() []Network {
	out := make([]Network, len(all))
	copy(out, all)
	return out
}

// Lookup finds a network by id. Matching is exact and case-sensitive.
func Lookup(id string) (Network, bool) {
	for _, n := range all {
		if n.ID == id {
			return n, true
		}
	}
	return Network{}, false
}

// Validate reports whether id names a supported network
func Validate(id string) bool {
	_, ok := Lookup(id)
	return ok
}

// Type returns the network type for id, or "" if unknown
func Type(id string) string {
	n, _ := Lookup(id)
	return n.Type
}

// Value returns the query value for id, or "" if unknown
func Value(id string) string {
	n, _ := Lookup(id)
	return n.Value
}

// Currency returns the native currency symbol for id, or "" if unknown
func Currency(id string) string {
	n, _ := Lookup(id)
	return n.Currency
}

// Name returns the display name for id, or "" if unknown
func Name(id string) string {
	n, _ := Lookup(id)
	return n.Name
}

// IsAddress reports whether s is a 20-byte hex address, with or without 0x
func IsAddress(s string) bool {
	return common.IsHexAddress(s)
}

// ChecksumAddress returns the EIP-55 form of s
func ChecksumAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}
