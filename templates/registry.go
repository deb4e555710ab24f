package templates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/0xmhha/bitquery-go/query"
)

var (
	// ErrUnknownTemplate is returned by ByName for an unregistered name
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrAddressRequired is returned when a template needs Args.Address
	ErrAddressRequired = errors.New("address is required")
)

// Args is the union of every template option, filled from command line
// flags or other untyped input
type Args struct {
	Address           string
	Network           string
	Limit             int
	From              string
	To                string
	Interval          string
	QuoteSymbol       string
	EventSignature    string
	TokenType         string
	TokenID           string
	CollectionAddress string
	Protocol          string
	TokenAddress      string
}

type entry struct {
	needsAddress bool
	build        func(Args) query.Document
}

var registry = map[string]entry{
	"token-balances": {true, func(a Args) query.Document {
		return TokenBalances(a.Address, TokenBalancesOptions{Network: a.Network, Limit: a.Limit})
	}},
	"transaction-history": {true, func(a Args) query.Document {
		return TransactionHistory(a.Address, TransactionHistoryOptions{
			Network: a.Network, Limit: a.Limit, From: a.From, To: a.To,
		})
	}},
	"token-price-history": {true, func(a Args) query.Document {
		return TokenPriceHistory(a.Address, TokenPriceHistoryOptions{
			Network: a.Network, QuoteSymbol: a.QuoteSymbol, From: a.From, To: a.To, Interval: a.Interval,
		})
	}},
	"contract-events": {true, func(a Args) query.Document {
		return ContractEvents(a.Address, ContractEventsOptions{
			Network: a.Network, Limit: a.Limit, EventSignature: a.EventSignature,
		})
	}},
	"nft-collection": {true, func(a Args) query.Document {
		return NFTCollection(a.Address, NFTCollectionOptions{
			Network: a.Network, Limit: a.Limit, TokenType: a.TokenType,
		})
	}},
	"nfts-by-owner": {true, func(a Args) query.Document {
		return NFTsByOwner(a.Address, NFTsByOwnerOptions{
			Network: a.Network, Limit: a.Limit, CollectionAddress: a.CollectionAddress,
		})
	}},
	"nft-transfers": {false, func(a Args) query.Document {
		return NFTTransfers(NFTTransfersOptions{
			Network: a.Network, Limit: a.Limit, TokenID: a.TokenID,
			CollectionAddress: a.CollectionAddress, From: a.From, To: a.To,
		})
	}},
	"dex-liquidity-pools": {false, func(a Args) query.Document {
		return DEXLiquidityPools(DEXLiquidityPoolsOptions{
			Network: a.Network, Limit: a.Limit, Protocol: a.Protocol, TokenAddress: a.TokenAddress,
		})
	}},
	"dex-swaps": {false, func(a Args) query.Document {
		return DEXSwaps(DEXSwapsOptions{
			Network: a.Network, Limit: a.Limit, Protocol: a.Protocol,
			TokenAddress: a.TokenAddress, From: a.From, To: a.To,
		})
	}},
	"gas-price-analytics": {false, func(a Args) query.Document {
		return GasPriceAnalytics(GasPriceAnalyticsOptions{
			Network: a.Network, From: a.From, To: a.To, Interval: a.Interval,
		})
	}},
	"lending-markets": {false, func(a Args) query.Document {
		return LendingMarkets(LendingMarketsOptions{
			Network: a.Network, Limit: a.Limit, Protocol: a.Protocol, TokenAddress: a.TokenAddress,
		})
	}},
}

// Names returns the registered template names in sorted order
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named template from args
func ByName(name string, args Args) (query.Document, error) {
	e, ok := registry[name]
	if !ok {
		return query.Document{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	if e.needsAddress && args.Address == "" {
		return query.Document{}, fmt.Errorf("template %s: %w", name, ErrAddressRequired)
	}
	return e.build(args), nil
}
