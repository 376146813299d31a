// Package trigger delivers game writes from Postgres LISTEN/NOTIFY to the
// finalizer.
package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/yosoku/stats-engine/internal/logic"
	"github.com/yosoku/stats-engine/internal/models"
)

var notificationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stats_engine_notifications_total",
	Help: "Game write notifications by result",
}, []string{"result"})

const (
	minReconnect   = 10 * time.Second
	maxReconnect   = time.Minute
	pingInterval   = 90 * time.Second
	handlerTimeout = 2 * time.Minute
)

// Listener subscribes to a NOTIFY channel and runs each game write through
// the finalizer, one at a time.
type Listener struct {
	dsn       string
	channel   string
	finalizer logic.FinalizerService
	validate  *validator.Validate
	logger    *zap.SugaredLogger
}

// NewListener creates a listener on channel.
func NewListener(dsn, channel string, finalizer logic.FinalizerService, logger *zap.Logger) *Listener {
	return &Listener{
		dsn:       dsn,
		channel:   channel,
		finalizer: finalizer,
		validate:  validator.New(),
		logger:    logger.Sugar(),
	}
}

// Run listens until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			l.logger.Infow("Notify listener connected", "channel", l.channel)
		case pq.ListenerEventDisconnected:
			l.logger.Warnw("Notify listener disconnected", "channel", l.channel, "error", err)
		case pq.ListenerEventReconnected:
			l.logger.Infow("Notify listener reconnected", "channel", l.channel)
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Errorw("Notify listener connection failed", "channel", l.channel, "error", err)
		}
	})
	defer pl.Close()

	if err := pl.Listen(l.channel); err != nil {
		return fmt.Errorf("listen on %s: %w", l.channel, err)
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			if n == nil {
				// Reconnected; writes sent while disconnected are lost and are
				// picked up by a replay.
				continue
			}
			l.Dispatch(ctx, n.Extra)
		case <-ticker.C:
			if err := pl.Ping(); err != nil {
				l.logger.Warnw("Notify listener ping failed", "error", err)
			}
		}
	}
}

// Dispatch decodes one notification payload and finalizes the game if the
// write qualifies. Failures are logged and counted, never returned.
func (l *Listener) Dispatch(ctx context.Context, payload string) {
	w, err := l.decode(payload)
	if err != nil {
		notificationsReceived.WithLabelValues("invalid").Inc()
		l.logger.Warnw("Dropping malformed game write", "error", err)
		return
	}
	if !logic.ShouldFinalize(w.Before, w.After) {
		notificationsReceived.WithLabelValues("ignored").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()
	report, err := l.finalizer.HandleGameWrite(ctx, *w)
	if err != nil {
		notificationsReceived.WithLabelValues("error").Inc()
		l.logger.Errorw("Finalization failed", "game", w.After.ID, "error", err)
		return
	}
	notificationsReceived.WithLabelValues("finalized").Inc()
	l.logger.Infow("Game write handled",
		"game", report.GameID,
		"settled", report.Settled,
		"dispatched", report.Dispatched,
		"skipped", report.Skipped,
	)
}

func (l *Listener) decode(payload string) (*models.GameWrite, error) {
	var w models.GameWrite
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return nil, fmt.Errorf("decode game write: %w", err)
	}
	if err := l.validate.Struct(w); err != nil {
		return nil, fmt.Errorf("validate game write: %w", err)
	}
	return &w, nil
}
