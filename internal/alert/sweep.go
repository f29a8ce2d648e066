package alert

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pricewatch/internal/metrics"
	"pricewatch/internal/provider"
)

const (
	// ClientKey is the rate-limit key the sweep charges its quote
	// requests to.
	ClientKey = "alert-sweep"

	DefaultBatchSize = 10
)

// Result summarises one sweep run.
type Result struct {
	RunID string `json:"runId"`
	// Evaluated counts alerts whose condition was checked against a quote.
	Evaluated int `json:"evaluated"`
	Triggered int `json:"triggered"`
	// Skipped counts alerts with no usable quote or already triggered.
	Skipped        int `json:"skipped"`
	NotifyFailures int `json:"notifyFailures"`
}

var bodyTemplate = template.Must(template.New("alert").Parse(`
<p>Hello {{.Name}},</p>
<p>Your price alert for {{.Symbol}} has been triggered.</p>
<p>Current price: {{.Price}}</p>
<p>Target price: {{.Target}}</p>
<p>Condition: {{.Condition}}</p>
<p>Visit your dashboard to manage your alerts.</p>
`))

// Sweeper runs alert sweeps. Runs within one process are serialised.
type Sweeper struct {
	store   Store
	quotes  QuoteSource
	mailer  Mailer
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	batch   int

	mu sync.Mutex
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) { s.logger = l }
}

// WithBatchSize caps the symbols sent in one quote request.
func WithBatchSize(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.batch = n
		}
	}
}

func NewSweeper(store Store, quotes QuoteSource, mailer Mailer, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:  store,
		quotes: quotes,
		mailer: mailer,
		logger: slog.Default(),
		now:    time.Now,
		batch:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSweep loads active alerts, prices their symbols in batches, marks
// the crossed ones as triggered and notifies their owners. Failing to
// load alerts or quotes aborts the run; per-alert failures do not.
func (s *Sweeper) RunSweep(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Result{RunID: uuid.NewString()}
	logger := s.logger.With("run_id", res.RunID)

	err := s.run(ctx, logger, &res)
	s.metrics.RecordSweep(res.Triggered, res.NotifyFailures, err)
	if err != nil {
		logger.ErrorContext(ctx, "alert sweep failed", "error", err)
		return res, err
	}
	logger.InfoContext(ctx, "alert sweep finished",
		"evaluated", res.Evaluated,
		"triggered", res.Triggered,
		"skipped", res.Skipped,
		"notify_failures", res.NotifyFailures,
	)
	return res, nil
}

func (s *Sweeper) run(ctx context.Context, logger *slog.Logger, res *Result) error {
	alerts, err := s.store.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("loading active alerts: %w", err)
	}

	pending := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Triggered {
			res.Skipped++
			continue
		}
		pending = append(pending, a)
	}
	if len(pending) == 0 {
		return nil
	}

	prices, err := s.loadQuotes(ctx, pending)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	for _, a := range pending {
		class := classOf(a)
		q, ok := prices[priceKey{class, provider.NormalizeSymbol(a.Symbol)}]
		if !ok || !q.OK() {
			res.Skipped++
			continue
		}
		res.Evaluated++

		price := decimal.NewFromFloat(q.Price)
		if !a.Crossed(price) {
			continue
		}

		changed, err := s.store.MarkTriggered(ctx, a.ID, now)
		if err != nil {
			logger.ErrorContext(ctx, "persisting triggered alert", "alert_id", a.ID, "error", err)
			continue
		}
		if !changed {
			logger.InfoContext(ctx, "alert already triggered by another run", "alert_id", a.ID)
			continue
		}
		res.Triggered++

		if a.Email == "" {
			continue
		}
		if err := s.notify(ctx, a, price); err != nil {
			res.NotifyFailures++
			logger.ErrorContext(ctx, "sending alert notification", "alert_id", a.ID, "error", err)
		}
	}
	return nil
}

type priceKey struct {
	class  provider.AssetClass
	symbol string
}

// loadQuotes fetches each asset class's distinct symbols in batches of at
// most s.batch.
func (s *Sweeper) loadQuotes(ctx context.Context, alerts []Alert) (map[priceKey]provider.Quote, error) {
	byClass := make(map[provider.AssetClass][]string)
	seen := make(map[priceKey]struct{})
	for _, a := range alerts {
		k := priceKey{classOf(a), provider.NormalizeSymbol(a.Symbol)}
		if _, dup := seen[k]; dup || k.symbol == "" {
			continue
		}
		seen[k] = struct{}{}
		byClass[k.class] = append(byClass[k.class], k.symbol)
	}

	classes := make([]provider.AssetClass, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.SortFunc(classes, func(a, b provider.AssetClass) int { return cmp.Compare(a, b) })

	out := make(map[priceKey]provider.Quote, len(seen))
	for _, class := range classes {
		symbols := byClass[class]
		slices.Sort(symbols)
		for chunk := range slices.Chunk(symbols, s.batch) {
			quotes, err := s.quotes.GetQuotes(ctx, chunk, class, ClientKey)
			if err != nil {
				return nil, fmt.Errorf("fetching %s quotes: %w", class, err)
			}
			for _, sym := range chunk {
				if q, ok := quotes[sym]; ok {
					out[priceKey{class, sym}] = q
				}
			}
		}
	}
	return out, nil
}

func (s *Sweeper) notify(ctx context.Context, a Alert, price decimal.Decimal) error {
	direction, label := "below", "Below"
	if a.Condition == Above {
		direction, label = "above", "Above"
	}
	name := a.Name
	if name == "" {
		name = "there"
	}

	var body bytes.Buffer
	err := bodyTemplate.Execute(&body, map[string]string{
		"Name":      name,
		"Symbol":    a.Symbol,
		"Price":     price.String(),
		"Target":    a.TargetPrice.String(),
		"Condition": label,
	})
	if err != nil {
		return fmt.Errorf("rendering body: %w", err)
	}

	subject := fmt.Sprintf("Price Alert: %s %s %s", a.Symbol, direction, a.TargetPrice.String())
	return s.mailer.Send(ctx, a.Email, subject, body.String())
}

// classOf treats alerts saved before asset classes existed as equities.
func classOf(a Alert) provider.AssetClass {
	if a.AssetClass == "" {
		return provider.Equity
	}
	return a.AssetClass
}
