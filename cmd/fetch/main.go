// Command fetch prints quotes for a list of symbols as JSON. It talks to
// the upstream providers directly, bypassing the quote cache and the
// client rate limit but not the upstream throttle.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"pricewatch/internal/app"
	"pricewatch/internal/config"
	"pricewatch/internal/provider"
)

func main() {
	var (
		symbolsCSV string
		class      string
		timeout    time.Duration
		configPath string
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "AAPL,MSFT"), "comma-separated symbols")
	flag.StringVar(&class, "type", getenv("ASSET_TYPE", "EQUITY"), "asset class: EQUITY or CRYPTO")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	assetClass, err := provider.ParseAssetClass(class)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "no symbols provided")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	quotes, err := app.NewQuotes(cfg, nil, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	var out map[string]provider.Quote
	fetcher := quotes.Throttled[assetClass]
	if bf, ok := fetcher.(provider.BatchFetcher); ok {
		// One upstream call for the whole list.
		out = bf.FetchQuotes(ctx, symbols)
	} else {
		out = make(map[string]provider.Quote, len(symbols))
		for _, s := range symbols {
			out[s] = fetcher.FetchQuote(ctx, s)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
