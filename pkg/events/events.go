// Package events holds in-process domain events and a synchronous dispatcher.
package events

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

// VisitLocated is emitted once a recorded visit has gone through geolocation.
type VisitLocated struct {
	VisitID int64
	// OriginalIPAddress is the address before anonymization. Empty when unknown.
	OriginalIPAddress string
}

type VisitLocatedListener func(ctx context.Context, event VisitLocated)

// Dispatcher calls listeners in registration order on the caller's goroutine.
// A panicking listener is logged and does not prevent the next one from running.
type Dispatcher struct {
	logger       logger.Logger
	visitLocated []VisitLocatedListener
}

func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{logger: log}
}

func (d *Dispatcher) OnVisitLocated(listener VisitLocatedListener) {
	d.visitLocated = append(d.visitLocated, listener)
}

func (d *Dispatcher) DispatchVisitLocated(ctx context.Context, event VisitLocated) {
	for _, listener := range d.visitLocated {
		d.call(ctx, listener, event)
	}
}

func (d *Dispatcher) call(ctx context.Context, listener VisitLocatedListener, event VisitLocated) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Visit located listener panicked",
				logger.Int64("visit_id", event.VisitID),
				logger.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	listener(ctx, event)
}
