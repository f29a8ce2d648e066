package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrSymbolNotFound is returned when the provider answers with an
	// empty quote object.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrRateLimited is returned for HTTP 429 and for the 200 responses
	// carrying a "Note" or "Information" message instead of data.
	ErrRateLimited = errors.New("rate limited")
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Field names of the "Global Quote" object.
const (
	fieldSymbol           = "01. symbol"
	fieldPrice            = "05. price"
	fieldVolume           = "06. volume"
	fieldLatestTradingDay = "07. latest trading day"
	fieldPreviousClose    = "08. previous close"
	fieldChange           = "09. change"
	fieldChangePercent    = "10. change percent"
)

// GlobalQuote is the latest price and volume information for a ticker.
type GlobalQuote struct {
	Symbol           string
	Price            *float64
	Volume           *float64
	LatestTradingDay string
	PreviousClose    *float64
	Change           *float64
	ChangePercent    *float64
}

// GetGlobalQuote retrieves the GLOBAL_QUOTE for one symbol.
func (c *APIClient) GetGlobalQuote(ctx context.Context, symbol string, opts ...APIClientOption) (*GlobalQuote, error) {
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
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", symbol)

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
		return nil, fmt.Errorf("decoding global quote response: invalid json")
	}

	// Throttled and malformed calls still answer 200:
	// {"Note": "..."} / {"Information": "..."} / {"Error Message": "..."}
	for _, key := range []string{"Note", "Information"} {
		if msg := gjson.GetBytes(body, key); msg.Exists() {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, msg.String())
		}
	}
	if msg := gjson.GetBytes(body, "Error Message"); msg.Exists() {
		return nil, fmt.Errorf("provider error: %s", msg.String())
	}

	// {
	//   "Global Quote": {
	//     "01. symbol": "IBM",
	//     "05. price": "143.2800",
	//     "06. volume": "3521234",
	//     "07. latest trading day": "2024-03-01",
	//     "08. previous close": "142.1100",
	//     "09. change": "1.1700",
	//     "10. change percent": "0.8233%"
	//   }
	// }
	obj := gjson.GetBytes(body, "Global Quote")
	if !obj.Exists() || !obj.IsObject() {
		return nil, fmt.Errorf("decoding global quote response: missing Global Quote object")
	}
	if len(obj.Map()) == 0 {
		return nil, ErrSymbolNotFound
	}

	price, err := parseNumber(obj, fieldPrice)
	if err != nil {
		return nil, err
	}
	var gq = GlobalQuote{
		Symbol:           obj.Get(escape(fieldSymbol)).String(),
		LatestTradingDay: obj.Get(escape(fieldLatestTradingDay)).String(),
		Price:            price,
		Volume:           optionalNumber(obj, fieldVolume),
		PreviousClose:    optionalNumber(obj, fieldPreviousClose),
		Change:           optionalNumber(obj, fieldChange),
		ChangePercent:    optionalNumber(obj, fieldChangePercent),
	}
	return &gq, nil
}

// parseNumber reads a numeric string field, tolerating a trailing '%'.
// Absent or blank fields yield nil.
func parseNumber(obj gjson.Result, field string) (*float64, error) {
	v := obj.Get(escape(field))
	s := strings.TrimSpace(v.String())
	if !v.Exists() || s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", field, err)
	}
	return &f, nil
}

// optionalNumber is parseNumber for fields a quote can do without:
// placeholders such as "-" or "N/A" and non-finite values yield nil.
func optionalNumber(obj gjson.Result, field string) *float64 {
	f, err := parseNumber(obj, field)
	if err != nil || f == nil || math.IsNaN(*f) || math.IsInf(*f, 0) {
		return nil
	}
	return f
}

// escape makes a field name usable as a single gjson path component.
func escape(field string) string { return strings.ReplaceAll(field, ".", `\.`) }
