// Package alert evaluates user price alerts against current quotes and
// notifies owners of the ones that crossed their target.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricewatch/internal/provider"
)

type Condition string

const (
	Above Condition = "ABOVE"
	Below Condition = "BELOW"
)

func ParseCondition(s string) (Condition, error) {
	switch c := Condition(strings.ToUpper(strings.TrimSpace(s))); c {
	case Above, Below:
		return c, nil
	}
	return "", fmt.Errorf("unknown alert condition %q", s)
}

// Alert is one active price alert joined with its owner's contact data.
type Alert struct {
	ID            int64
	UserID        int64
	Symbol        string
	AssetClass    provider.AssetClass
	TargetPrice   decimal.Decimal
	Condition     Condition
	IsActive      bool
	Triggered     bool
	LastTriggered *time.Time

	Email string
	Name  string
}

// Crossed reports whether price satisfies the condition. Both bounds
// are inclusive.
func (a Alert) Crossed(price decimal.Decimal) bool {
	switch a.Condition {
	case Above:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case Below:
		return price.LessThanOrEqual(a.TargetPrice)
	}
	return false
}

//go:generate mockgen -package=alert_test -destination=mock_alert_test.go -source=alert.go Store,Mailer,QuoteSource

// Store loads alerts and records transitions.
type Store interface {
	// ListActive returns every alert with is_active set, with owner data.
	ListActive(ctx context.Context) ([]Alert, error)
	// MarkTriggered sets triggered and last_triggered for id unless the
	// alert is already triggered. It reports whether this call made the
	// transition.
	MarkTriggered(ctx context.Context, id int64, at time.Time) (bool, error)
	Ping(ctx context.Context) error
}

// Mailer delivers one HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

// QuoteSource is satisfied by *aggregate.Service.
type QuoteSource interface {
	GetQuotes(ctx context.Context, symbols []string, class provider.AssetClass, clientKey string) (map[string]provider.Quote, error)
}
