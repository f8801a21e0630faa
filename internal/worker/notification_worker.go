package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/grant-service/internal/events"
	"github.com/spec-kit/grant-service/internal/service"
)

// NotificationWorker moves notification delivery off the request path. Events are
// queued by the dispatcher and handled one at a time by a single goroutine.
type NotificationWorker struct {
	queue   chan events.Event
	handle  events.EventHandler
	logger  *zap.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// NewNotificationWorker creates a worker with a queue of the given size.
func NewNotificationWorker(handle events.EventHandler, buffer int, logger *zap.Logger) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{queue: make(chan events.Event, buffer), handle: handle, logger: logger}
}

// StartNotificationWorker subscribes the notification service through a worker
// and starts it. Call Stop on shutdown to drain the queue.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, notifications *service.NotificationService, buffer int, logger *zap.Logger) *NotificationWorker {
	if dispatcher == nil || notifications == nil {
		return nil
	}
	w := NewNotificationWorker(notifications.Handle, buffer, logger)
	for _, eventType := range notifications.EventTypes() {
		dispatcher.Subscribe(eventType, w.Enqueue)
	}
	w.Start(ctx)
	return w
}

// Enqueue queues an event without blocking. A full queue drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return nil
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID))
	}
	return nil
}

// Start launches the delivery goroutine.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for event := range w.queue {
			if err := w.handle(context.WithoutCancel(ctx), event); err != nil {
				w.logger.Warn("notification failed", zap.String("event_type", string(event.Type)), zap.Error(err))
			}
		}
	}()
}

// Stop closes the queue and waits for queued events to be handled.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}
