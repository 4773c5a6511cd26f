package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/service"
)

// DispatchWorker periodically sends scheduled communications that are due.
type DispatchWorker struct {
	dispatch *service.DispatchService
	logger   *zap.Logger
	interval time.Duration
	done     chan struct{}
}

// NewDispatchWorker builds the worker.
func NewDispatchWorker(dispatch *service.DispatchService, logger *zap.Logger, interval time.Duration) *DispatchWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DispatchWorker{
		dispatch: dispatch,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It returns immediately; the loop stops
// when ctx is cancelled or Stop is called.
func (w *DispatchWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop signals the loop to exit.
func (w *DispatchWorker) Stop() {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
}

func (w *DispatchWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("dispatch worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("dispatch worker stopped")
			return
		case <-w.done:
			w.logger.Info("dispatch worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *DispatchWorker) sweep(ctx context.Context) {
	processed, err := w.dispatch.ProcessDue(ctx)
	if err != nil {
		w.logger.Error("dispatch sweep failed", zap.Error(err))
		return
	}
	if processed > 0 {
		w.logger.Info("dispatch sweep completed", zap.Int("processed", processed))
	}
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
