package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// WeeklyReset closes out the tracking period on a cron schedule.
type WeeklyReset struct {
	cron     *cron.Cron
	handlers *Handlers
	log      *slog.Logger
}

// NewWeeklyReset registers a reset at spec, a standard five-field cron
// expression or descriptor such as "@weekly".
func NewWeeklyReset(spec string, h *Handlers, logger *slog.Logger) (*WeeklyReset, error) {
	w := &WeeklyReset{
		cron:     cron.New(),
		handlers: h,
		log:      logger,
	}
	if _, err := w.cron.AddFunc(spec, w.run); err != nil {
		return nil, fmt.Errorf("register weekly reset %q: %w", spec, err)
	}
	return w, nil
}

// Start starts the scheduler in its own goroutine.
func (w *WeeklyReset) Start() {
	w.cron.Start()
	w.log.Info("Weekly reset scheduled", "next", w.cron.Entries()[0].Next)
}

// Stop stops the scheduler and waits for a running reset to finish.
func (w *WeeklyReset) Stop() {
	<-w.cron.Stop().Done()
}

func (w *WeeklyReset) run() {
	ctx, span := tracer.Start(context.Background(), "schedule.weekly_reset")
	defer span.End()

	closing, err := w.handlers.ResetWeek(ctx)
	if err != nil {
		span.RecordError(err)
		w.log.ErrorContext(ctx, "Scheduled reset failed", "error", err)
		return
	}
	w.log.InfoContext(ctx, "Scheduled reset complete", "closing_status", closing.OverallStatus)
}
