package templates

import (
	"fmt"

	"github.com/0xmhha/bitquery-go/query"
)

// TokenBalancesOptions configures TokenBalances
type TokenBalancesOptions struct {
	Network string
	Limit   int // default 100
}

// TokenBalances queries the token balances held by address
func TokenBalances(address string, opts TokenBalancesOptions) query.Document {
	return query.New().
		Operation(query.KindQuery, "GetTokenBalances", "$address: String!, $limit: Int!").
		Select(network(opts.Network), []string{`address(address: $address) {
      balances(options: { limit: $limit }) {
        currency {
          symbol
          name
          address
          decimals
          tokenType
        }
        value
        valueUSD
      }
    }`}, "", "").
		SetVariables(map[string]any{
			"address": address,
			"limit":   limitOr(opts.Limit, 100),
		}).
		Build()
}

// TransactionHistoryOptions configures TransactionHistory. From and To are
// ISO 8601 timestamps.
type TransactionHistoryOptions struct {
	Network string
	Limit   int // default 50
	From    string
	To      string
}

// TransactionHistory queries the most recent transactions of address
func TransactionHistory(address string, opts TransactionHistoryOptions) query.Document {
	sig := newSignature()
	sig.add("address", "String!", address)
	sig.add("limit", "Int!", limitOr(opts.Limit, 50))
	sig.dates(opts.From, opts.To, "ISO8601DateTime", false)

	selection := fmt.Sprintf(`transactions(
      options: { limit: $limit, desc: "block.timestamp" }
      address: { is: $address }
      %s
    ) {
      hash
      block {
        timestamp
        height
      }
      from {
        address
      }
      to {
        address
      }
      value
      gasValue
      gasPrice
      success
    }`, dateFilter(opts.From, opts.To))

	return query.New().
		Operation(query.KindQuery, "GetTransactionHistory", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// TokenPriceHistoryOptions configures TokenPriceHistory
type TokenPriceHistoryOptions struct {
	Network     string
	QuoteSymbol string // default USD
	From        string
	To          string
	Interval    string // default 1d
}

// TokenPriceHistory queries DEX trade prices of tokenAddress bucketed by
// Interval. The interval is also written into the selection as a field name.
func TokenPriceHistory(tokenAddress string, opts TokenPriceHistoryOptions) query.Document {
	quote := orDefault(opts.QuoteSymbol, DefaultQuoteSymbol)
	interval := orDefault(opts.Interval, DefaultInterval)

	sig := newSignature()
	sig.add("tokenAddress", "String!", tokenAddress)
	sig.add("quoteSymbol", "String!", quote)
	sig.add("interval", "String!", interval)
	sig.dates(opts.From, opts.To, "ISO8601DateTime", false)

	selection := fmt.Sprintf(`dexTrades(
      options: { limit: 1000, asc: "timeInterval.minute" }
      baseCurrency: { is: $tokenAddress }
      quoteCurrency: { symbol: { is: $quoteSymbol } }
      %s
    ) {
      timeInterval {
        %s
      }
      baseCurrency {
        symbol
        address
      }
      quoteCurrency {
        symbol
      }
      quotePrice
      baseAmount
      quoteAmount
      tradeAmount(in: $quoteSymbol)
      maximum_price: quotePrice(calculate: maximum)
      minimum_price: quotePrice(calculate: minimum)
      open_price: minimum(of: block, get: quote_price)
      close_price: maximum(of: block, get: quote_price)
    }`, dateFilter(opts.From, opts.To), interval)

	return query.New().
		Operation(query.KindQuery, "GetTokenPriceHistory", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// ContractEventsOptions configures ContractEvents
type ContractEventsOptions struct {
	Network        string
	Limit          int // default 50
	EventSignature string
}

// ContractEvents queries events emitted by contractAddress, optionally
// restricted to one event signature
func ContractEvents(contractAddress string, opts ContractEventsOptions) query.Document {
	sig := newSignature()
	sig.add("contractAddress", "String!", contractAddress)
	sig.add("limit", "Int!", limitOr(opts.Limit, 50))
	sig.optional("eventSignature", "String", opts.EventSignature,
		"smartContractEvent: { signature: { is: $eventSignature } }")

	selection := fmt.Sprintf(`smartContractEvents(
      options: { limit: $limit, desc: "block.timestamp" }
      smartContractAddress: { is: $contractAddress }
      %s
    ) {
      transaction {
        hash
      }
      block {
        timestamp
        height
      }
      eventIndex
      eventSignature
      eventName
      arguments {
        name
        type
        value
        valueType
      }
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetContractEvents", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}
