// Package templates provides prebuilt Bitquery queries for common wallet,
// token, NFT and DeFi lookups. Every template returns a query.Document ready
// to be sent with client.Client.
//
// Option structs use zero values for "not supplied": an empty string leaves
// the corresponding filter out and a zero Limit selects the template default.
package templates

import "strings"

// DefaultNetwork is the top-level selection used when Network is empty
const DefaultNetwork = "ethereum"

// DefaultInterval is the time bucket used by price and gas analytics
const DefaultInterval = "1d"

// DefaultQuoteSymbol is the quote currency used by TokenPriceHistory
const DefaultQuoteSymbol = "USD"

func network(n string) string {
	if n == "" {
		return DefaultNetwork
	}
	return n
}

func limitOr(limit, def int) int {
	if limit == 0 {
		return def
	}
	return limit
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// dateFilter renders the block date range argument for the given bounds.
// It returns "" when neither bound is set.
func dateFilter(from, to string) string {
	switch {
	case from != "" && to != "":
		return "date: {since: $from, till: $to}"
	case from != "":
		return "date: {since: $from}"
	case to != "":
		return "date: {till: $to}"
	default:
		return ""
	}
}

// signature accumulates variable definitions, their values and argument
// filters for templates whose shape depends on the supplied options
type signature struct {
	defs    []string
	vars    map[string]any
	filters []string
}

func newSignature() *signature {
	return &signature{vars: make(map[string]any)}
}

func (s *signature) add(name, gqlType string, value any) {
	s.defs = append(s.defs, "$"+name+": "+gqlType)
	s.vars[name] = value
}

// optional declares name only when value is non-empty, along with filter
func (s *signature) optional(name, gqlType, value, filter string) {
	if value == "" {
		return
	}
	s.add(name, gqlType, value)
	if filter != "" {
		s.filters = append(s.filters, filter)
	}
}

// dates declares $from and $to with the given type. When filter is true the
// date range is appended to the filter list.
func (s *signature) dates(from, to, gqlType string, filter bool) {
	s.optional("from", gqlType, from, "")
	s.optional("to", gqlType, to, "")
	if df := dateFilter(from, to); filter && df != "" {
		s.filters = append(s.filters, df)
	}
}

func (s *signature) definitions() string {
	return strings.Join(s.defs, ", ")
}

func (s *signature) filterString() string {
	return strings.Join(s.filters, ", ")
}
