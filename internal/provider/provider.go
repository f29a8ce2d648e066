package provider

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AssetClass selects the upstream fetcher and symbol namespace.
type AssetClass string

const (
	Equity AssetClass = "EQUITY"
	Crypto AssetClass = "CRYPTO"
)

// ParseAssetClass accepts EQUITY/CRYPTO in any case. STOCK is kept as an
// alias of EQUITY because the dashboard has always sent it.
func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EQUITY", "STOCK":
		return Equity, nil
	case "CRYPTO":
		return Crypto, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// Quote is the normalized shape returned by all fetchers.
// A quote with Error set is a failure marker; its numeric fields are
// placeholders and must not be used.
type Quote struct {
	Symbol         string     `json:"symbol"`
	AssetClass     AssetClass `json:"assetClass"`
	Price          float64    `json:"price"`
	ChangeAbsolute *float64   `json:"change,omitempty"`
	ChangePercent  *float64   `json:"changePercent,omitempty"`
	Volume         *float64   `json:"volume,omitempty"`
	AsOf           string     `json:"timestamp,omitempty"`
	Source         string     `json:"source,omitempty"`
	FetchedAt      time.Time  `json:"fetchedAt"`
	Error          string     `json:"error,omitempty"`
}

// OK reports whether q carries a usable price.
func (q Quote) OK() bool { return q.Error == "" }

// ErrorQuote builds a failure marker for symbol.
func ErrorQuote(class AssetClass, symbol, source string, err error) Quote {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Quote{
		Symbol:     symbol,
		AssetClass: class,
		Source:     source,
		FetchedAt:  time.Now().UTC(),
		Error:      msg,
	}
}

// Fetcher fetches one symbol from one upstream. Business failures
// (transport, status, payload, unknown symbol) are returned as error
// quotes, never as Go errors, so one bad symbol cannot fail a batch.
type Fetcher interface {
	Name() string
	Class() AssetClass
	FetchQuote(ctx context.Context, symbol string) Quote
}

// BatchFetcher is a Fetcher that can price several symbols with one
// upstream call. The result has one entry per input symbol.
type BatchFetcher interface {
	Fetcher
	FetchQuotes(ctx context.Context, symbols []string) map[string]Quote
}

// NormalizeSymbol is the canonical cache/fetch key for a ticker.
func NormalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Float returns a pointer to v, for the optional quote fields.
func Float(v float64) *float64 { return &v }
