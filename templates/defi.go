package templates

import (
	"fmt"

	"github.com/0xmhha/bitquery-go/query"
)

// DEXLiquidityPoolsOptions configures DEXLiquidityPools
type DEXLiquidityPoolsOptions struct {
	Network      string
	Limit        int    // default 20
	Protocol     string // e.g. Uniswap
	TokenAddress string
}

// DEXLiquidityPools queries liquidity pools ordered by total value locked
func DEXLiquidityPools(opts DEXLiquidityPoolsOptions) query.Document {
	sig := newSignature()
	sig.add("limit", "Int!", limitOr(opts.Limit, 20))
	sig.optional("protocol", "String!", opts.Protocol, "protocol: { is: $protocol }")
	sig.optional("tokenAddress", "String!", opts.TokenAddress, "baseCurrency: { is: $tokenAddress }")

	selection := fmt.Sprintf(`liquidityPools(
      options: { limit: $limit, desc: "totalValueLocked" }
      %s
    ) {
      address
      protocol
      name
      totalValueLocked
      totalValueLockedUSD
      inputTokens {
        address
        symbol
        name
        decimals
        balance
        balanceUSD
      }
      outputToken {
        address
        symbol
        name
        decimals
      }
      feePercent
      volumeUSD24h
      apr
      createdTimestamp
      createdBlockNumber
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetDEXLiquidityPools", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// DEXSwapsOptions configures DEXSwaps
type DEXSwapsOptions struct {
	Network      string
	Limit        int // default 50
	Protocol     string
	TokenAddress string
	From         string
	To           string
}

// DEXSwaps queries recent DEX swaps, newest first
func DEXSwaps(opts DEXSwapsOptions) query.Document {
	sig := newSignature()
	sig.add("limit", "Int!", limitOr(opts.Limit, 50))
	sig.optional("protocol", "String!", opts.Protocol, "protocol: { is: $protocol }")
	sig.optional("tokenAddress", "String!", opts.TokenAddress, "tokenIn: { is: $tokenAddress }")
	sig.dates(opts.From, opts.To, "ISO8601DateTime!", true)

	selection := fmt.Sprintf(`dexTrades(
      options: { limit: $limit, desc: "block.timestamp" }
      %s
    ) {
      transaction {
        hash
      }
      block {
        timestamp
        height
      }
      protocol
      exchange {
        name
        fullName
      }
      tokenIn {
        address
        symbol
        name
        decimals
      }
      tokenOut {
        address
        symbol
        name
        decimals
      }
      amountIn
      amountOut
      amountInUSD
      amountOutUSD
      trader {
        address
      }
      pool {
        address
        name
      }
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetDEXSwaps", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}

// LendingMarketsOptions configures LendingMarkets
type LendingMarketsOptions struct {
	Network      string
	Limit        int    // default 20
	Protocol     string // e.g. Aave, Compound
	TokenAddress string
}

// LendingMarkets queries lending protocol markets ordered by total value
// locked
func LendingMarkets(opts LendingMarketsOptions) query.Document {
	sig := newSignature()
	sig.add("limit", "Int!", limitOr(opts.Limit, 20))
	sig.optional("protocol", "String!", opts.Protocol, "protocol: { is: $protocol }")
	sig.optional("tokenAddress", "String!", opts.TokenAddress, "token: { address: { is: $tokenAddress } }")

	selection := fmt.Sprintf(`lendingMarkets(
      options: { limit: $limit, desc: "totalValueLocked" }
      %s
    ) {
      protocol
      marketAddress
      token {
        address
        symbol
        name
        decimals
      }
      totalValueLocked
      totalValueLockedUSD
      supplyRate
      borrowRate
      totalSupply
      totalBorrow
      utilizationRate
      liquidationThreshold
      collateralFactor
      reserveFactor
      lastUpdateTimestamp
    }`, sig.filterString())

	return query.New().
		Operation(query.KindQuery, "GetLendingMarkets", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}
