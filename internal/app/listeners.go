package app

import (
	"context"

	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/event/events"
)

// hostListeners are the host's own event handlers.
type hostListeners struct {
	app *Application
}

func (h *hostListeners) EventHandlers() []event.HandlerSpec {
	return []event.HandlerSpec{
		{
			Name:     "motd",
			Key:      events.KeyPlayerJoin,
			Priority: event.PriorityLowest,
			Handle:   event.Typed(h.motd),
		},
		{
			Name:     "job-log",
			Key:      events.KeyScheduled,
			Priority: event.PriorityMonitor,
			Handle:   event.Typed(h.jobDue),
		},
		{
			Name:             "trace",
			Key:              event.KeyAll,
			Priority:         event.PriorityMonitor,
			ReceiveCancelled: true,
			Handle:           h.trace,
		},
	}
}

func (h *hostListeners) motd(_ context.Context, e *events.PlayerJoin) error {
	if motd := h.app.cfg.Server.MOTD; motd != "" {
		e.Player().SendMessage(motd)
	}
	return nil
}

func (h *hostListeners) jobDue(_ context.Context, e *events.Scheduled) error {
	h.app.log.Info("job %s due at %s", e.Job, e.Due.Format("15:04"))
	return nil
}

func (h *hostListeners) trace(_ context.Context, e event.Event) error {
	h.app.log.Debug("event %s cancelled=%t", event.Name(e), event.IsCancelled(e))
	return nil
}
