// Package postgres is the lib/pq backed alert.Store.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"pricewatch/internal/alert"
	"pricewatch/internal/provider"
)

const (
	listActiveQuery = `SELECT a.id, a.user_id, a.symbol, a.asset_class, a.target_price, a.condition, a.is_active, a.triggered, a.last_triggered, COALESCE(u.email, ''), COALESCE(u.name, '') FROM price_alerts a JOIN users u ON u.id = a.user_id WHERE a.is_active = true ORDER BY a.id`
	markTriggeredQuery = `UPDATE price_alerts SET triggered = true, last_triggered = $2 WHERE id = $1 AND triggered = false`
)

//go:embed schema.sql
var schema string

// Store implements alert.Store with prepared statements.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	listActiveStmt    *sql.Stmt
	markTriggeredStmt *sql.Stmt
}

type Option func(*Store)

// WithLogger sets the logger used to report rows ListActive skips.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open connects to dsn and prepares the store's statements.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	s, err := New(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New prepares the statements on an existing pool.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	listActive, err := db.PrepareContext(ctx, listActiveQuery)
	if err != nil {
		return nil, fmt.Errorf("preparing list active: %w", err)
	}
	markTriggered, err := db.PrepareContext(ctx, markTriggeredQuery)
	if err != nil {
		_ = listActive.Close()
		return nil, fmt.Errorf("preparing mark triggered: %w", err)
	}
	s := &Store{
		db:                db,
		logger:            slog.Default(),
		listActiveStmt:    listActive,
		markTriggeredStmt: markTriggered,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ListActive returns every active alert. Rows with an unknown asset
// class or condition are logged and skipped; an empty asset class is
// read as EQUITY.
func (s *Store) ListActive(ctx context.Context) ([]alert.Alert, error) {
	rows, err := s.listActiveStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var (
			a             alert.Alert
			class, cond   string
			target        decimal.Decimal
			lastTriggered sql.NullTime
		)
		err := rows.Scan(&a.ID, &a.UserID, &a.Symbol, &class, &target, &cond,
			&a.IsActive, &a.Triggered, &lastTriggered, &a.Email, &a.Name)
		if err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		if a.AssetClass, err = parseClass(class); err != nil {
			s.logger.WarnContext(ctx, "skipping alert", "alert_id", a.ID, "error", err)
			continue
		}
		if a.Condition, err = alert.ParseCondition(cond); err != nil {
			s.logger.WarnContext(ctx, "skipping alert", "alert_id", a.ID, "error", err)
			continue
		}
		a.TargetPrice = target
		if lastTriggered.Valid {
			t := lastTriggered.Time
			a.LastTriggered = &t
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

func parseClass(s string) (provider.AssetClass, error) {
	if strings.TrimSpace(s) == "" {
		return provider.Equity, nil
	}
	return provider.ParseAssetClass(s)
}

// MarkTriggered is a compare-and-set on the triggered column.
func (s *Store) MarkTriggered(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := s.markTriggeredStmt.ExecContext(ctx, id, at)
	if err != nil {
		return false, fmt.Errorf("updating alert %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating alert %d: %w", id, err)
	}
	return n == 1, nil
}

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error {
	return errors.Join(s.listActiveStmt.Close(), s.markTriggeredStmt.Close(), s.db.Close())
}
