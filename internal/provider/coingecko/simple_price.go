package coingecko

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrRateLimited = errors.New("rate limited")

const maxBodyBytes = 1 << 20

// SimplePrice is the USD price block of one coin id.
type SimplePrice struct {
	USD           *float64
	Change24h     *float64
	Volume24h     *float64
	LastUpdatedAt int64
}

// SimplePrice fetches prices for ids in one request. Ids the provider
// does not know are absent from the result.
func (c *APIClient) SimplePrice(ctx context.Context, ids []string, opts ...APIClientOption) (map[string]SimplePrice, error) {
	if len(ids) == 0 {
		return map[string]SimplePrice{}, nil
	}

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
	query.Set("ids", strings.Join(ids, ","))
	query.Set("vs_currencies", "usd")
	query.Set("include_24hr_change", "true")
	query.Set("include_24hr_vol", "true")
	query.Set("include_last_updated_at", "true")

	url := fmt.Sprintf("%s/simple/price?%s", override.baseURL, query.Encode())
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
		return nil, fmt.Errorf("decoding simple price response: invalid json")
	}

	// {
	//   "bitcoin": {
	//     "usd": 67187.34,
	//     "usd_24h_vol": 31260929299.52,
	//     "usd_24h_change": 3.64,
	//     "last_updated_at": 1711356300
	//   }
	// }
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("decoding simple price response: expected object")
	}
	if status := root.Get("status.error_message"); status.Exists() {
		return nil, fmt.Errorf("provider error: %s", status.String())
	}

	var prices = make(map[string]SimplePrice, len(ids))
	root.ForEach(func(id, v gjson.Result) bool {
		if !v.IsObject() {
			return true
		}
		prices[id.String()] = SimplePrice{
			USD:           number(v.Get("usd")),
			Change24h:     number(v.Get("usd_24h_change")),
			Volume24h:     number(v.Get("usd_24h_vol")),
			LastUpdatedAt: v.Get("last_updated_at").Int(),
		}
		return true
	})
	return prices, nil
}

func number(v gjson.Result) *float64 {
	if v.Type != gjson.Number {
		return nil
	}
	f := v.Float()
	return &f
}
