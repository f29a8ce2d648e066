package notify

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, html string) error {
	l := m.Logger
	if l == nil {
		l = slog.Default()
	}
	l.InfoContext(ctx, "mail not delivered, no transport configured",
		"to", to, "subject", subject, "html_bytes", len(html))
	return nil
}
