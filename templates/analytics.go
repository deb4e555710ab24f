package templates

import (
	"fmt"

	"github.com/0xmhha/bitquery-go/query"
)

// GasPriceAnalyticsOptions configures GasPriceAnalytics
type GasPriceAnalyticsOptions struct {
	Network  string
	From     string
	To       string
	Interval string // default 1d
}

// GasPriceAnalytics queries gas price statistics bucketed by Interval
func GasPriceAnalytics(opts GasPriceAnalyticsOptions) query.Document {
	interval := orDefault(opts.Interval, DefaultInterval)

	sig := newSignature()
	sig.add("interval", "String!", interval)
	sig.dates(opts.From, opts.To, "ISO8601DateTime!", false)

	selection := fmt.Sprintf(`gasPrice(
      %s
    ) {
      timeInterval {
        %s
      }
      average: gasPrice(calculate: average)
      max: gasPrice(calculate: maximum)
      min: gasPrice(calculate: minimum)
      median: gasPrice(calculate: median)
      gasUsed
      transactionCount
      blockCount
    }`, dateFilter(opts.From, opts.To), interval)

	return query.New().
		Operation(query.KindQuery, "GetGasPriceAnalytics", sig.definitions()).
		Select(network(opts.Network), []string{selection}, "", "").
		SetVariables(sig.vars).
		Build()
}
