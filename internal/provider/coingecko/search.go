package coingecko

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Coin is one match of a search. ID is the slug SimplePrice expects.
type Coin struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"marketCapRank,omitempty"`
}

// Search looks up coins by name or ticker.
func (c *APIClient) Search(ctx context.Context, query string, opts ...APIClientOption) ([]Coin, error) {
	var override = &APIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	params := maps.Clone(override.query)
	params.Set("query", query)

	url := fmt.Sprintf("%s/search?%s", override.baseURL, params.Encode())
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
		return nil, fmt.Errorf("decoding search response: invalid json")
	}
	if status := gjson.GetBytes(body, "status.error_message"); status.Exists() {
		return nil, fmt.Errorf("provider error: %s", status.String())
	}

	// {
	//   "coins": [
	//     {"id": "bitcoin", "name": "Bitcoin", "symbol": "BTC", "market_cap_rank": 1, ...}
	//   ],
	//   "exchanges": [...], "nfts": [...]
	// }
	coins := gjson.GetBytes(body, "coins").Array()
	var out = make([]Coin, 0, len(coins))
	for _, v := range coins {
		coin := Coin{
			ID:     v.Get("id").String(),
			Symbol: strings.ToUpper(v.Get("symbol").String()),
			Name:   v.Get("name").String(),
		}
		if coin.ID == "" {
			continue
		}
		if rank := v.Get("market_cap_rank"); rank.Type == gjson.Number {
			r := int(rank.Int())
			coin.MarketCapRank = &r
		}
		out = append(out, coin)
	}
	return out, nil
}
