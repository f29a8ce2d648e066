package alphavantage

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"

	"github.com/tidwall/gjson"
)

// Field names of a "bestMatches" entry.
const (
	fieldMatchSymbol   = "1. symbol"
	fieldMatchName     = "2. name"
	fieldMatchType     = "3. type"
	fieldMatchRegion   = "4. region"
	fieldMatchCurrency = "8. currency"
	fieldMatchScore    = "9. matchScore"
)

// SymbolMatch is one ticker returned by SYMBOL_SEARCH.
type SymbolMatch struct {
	Symbol     string   `json:"symbol"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Region     string   `json:"region"`
	Currency   string   `json:"currency,omitempty"`
	MatchScore *float64 `json:"matchScore,omitempty"`
}

// SymbolSearch finds tickers whose symbol or name matches keywords,
// best match first.
func (c *APIClient) SymbolSearch(ctx context.Context, keywords string, opts ...APIClientOption) ([]SymbolMatch, error) {
	var override = &APIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Set("function", "SYMBOL_SEARCH")
	query.Set("keywords", keywords)

	url := fmt.Sprintf("%s/query?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("unauthorized")

	case http.StatusTooManyRequests:
		return nil, ErrRateLimited

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decoding symbol search response: invalid json")
	}
	for _, key := range []string{"Note", "Information"} {
		if msg := gjson.GetBytes(body, key); msg.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, msg.String())
		}
	}
	if msg := gjson.GetBytes(body, "Error Message"); msg.Exists() {
		return nil, fmt.Errorf("provider error: %s", msg.String())
	}

	// {
	//   "bestMatches": [
	//     {
	//       "1. symbol": "TSCO.LON",
	//       "2. name": "Tesco PLC",
	//       "3. type": "Equity",
	//       "4. region": "United Kingdom",
	//       "8. currency": "GBX",
	//       "9. matchScore": "0.7273"
	//     }
	//   ]
	// }
	matches := gjson.GetBytes(body, "bestMatches")
	if !matches.IsArray() {
		return nil, fmt.Errorf("decoding symbol search response: missing bestMatches array")
	}
	var out = make([]SymbolMatch, 0, len(matches.Array()))
	for _, m := range matches.Array() {
		sm := SymbolMatch{
			Symbol:     m.Get(escape(fieldMatchSymbol)).String(),
			Name:       m.Get(escape(fieldMatchName)).String(),
			Type:       m.Get(escape(fieldMatchType)).String(),
			Region:     m.Get(escape(fieldMatchRegion)).String(),
			Currency:   m.Get(escape(fieldMatchCurrency)).String(),
			MatchScore: optionalNumber(m, fieldMatchScore),
		}
		if sm.Symbol == "" {
			continue
		}
		out = append(out, sm)
	}
	return out, nil
}
