// Package notify delivers digests by mail and routes high-rating alerts to
// secondary channels.
package notify

import (
	"context"
	"log/slog"
	"time"

	"newsagent/internal/domain"
)

const DefaultMinRating = 4

// AlertSender is a secondary channel for high-rating alerts.
type AlertSender interface {
	Name() string
	SendAlert(ctx context.Context, alert domain.Alert) error
}

// Router fans out alerts for ratings at or above minRating. Delivery failures
// are logged and never returned.
type Router struct {
	senders   []AlertSender
	minRating int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewRouter(minRating int, logger *slog.Logger, senders ...AlertSender) *Router {
	if minRating <= 0 {
		minRating = DefaultMinRating
	}
	live := make([]AlertSender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			live = append(live, s)
		}
	}
	return &Router{
		senders:   live,
		minRating: minRating,
		timeout:   10 * time.Second,
		logger:    logger.With("component", "router"),
	}
}

// Route reports whether the alert qualified for fan-out.
func (r *Router) Route(ctx context.Context, alert domain.Alert) bool {
	if alert.Rating < r.minRating {
		return false
	}

	for _, s := range r.senders {
		sendCtx, cancel := context.WithTimeout(ctx, r.timeout)
		err := s.SendAlert(sendCtx, alert)
		cancel()
		if err != nil {
			r.logger.Warn("alert delivery failed",
				"channel", s.Name(),
				"url", alert.URL,
				"rating", alert.Rating,
				"error", err,
			)
			continue
		}
		r.logger.Info("alert delivered",
			"channel", s.Name(),
			"url", alert.URL,
			"rating", alert.Rating,
		)
	}

	return true
}
