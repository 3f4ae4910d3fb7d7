package authz

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Chain fans a decision out to every non-nil hook. It returns nil when no hook remains.
func Chain(hooks ...Hook) Hook {
	active := make([]Hook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return func(ctx context.Context, d Decision) {
		for _, h := range active {
			h(ctx, d)
		}
	}
}

// LogHook writes every decision as a structured log record.
func LogHook(logger *slog.Logger) Hook {
	if logger == nil {
		return nil
	}
	return func(ctx context.Context, d Decision) {
		logger.LogAttrs(ctx, slog.LevelInfo, "authorization decision",
			slog.String("subject", d.Subject),
			slog.String("kind", string(d.Kind)),
			slog.Any("names", d.Names),
			slog.Bool("allowed", d.Allowed),
			slog.Any("roles", d.Roles),
		)
	}
}

// MetricsHook counts decisions by kind and outcome on reg.
func MetricsHook(reg prometheus.Registerer) Hook {
	if reg == nil {
		return nil
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rbac_authz_decisions_total",
		Help: "Authorization checks by kind and outcome.",
	}, []string{"kind", "allowed"})
	if err := reg.Register(decisions); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil
		}
		decisions = already.ExistingCollector.(*prometheus.CounterVec)
	}
	return func(_ context.Context, d Decision) {
		decisions.WithLabelValues(string(d.Kind), strconv.FormatBool(d.Allowed)).Inc()
	}
}
