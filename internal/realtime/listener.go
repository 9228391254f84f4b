package realtime

import (
	"context"
	"errors"

	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler reacts to one change event.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) error { return f(ctx, ev) }

// Dispatcher fans an event out to every registered handler in order.
type Dispatcher struct {
	handlers []Handler
	logger   logger.ZapLogger
}

func NewDispatcher(log logger.ZapLogger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: log}
}

func (d *Dispatcher) Register(h Handler) {
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	metrics.RecordEvent(ev.Table, string(ev.Type))
	for _, h := range d.handlers {
		if err := h.HandleEvent(ctx, ev); err != nil {
			d.logger.Error("change handler failed",
				zap.String("table", ev.Table),
				zap.String("business_id", ev.BusinessID),
				zap.Error(err))
		}
	}
}

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type Listener struct {
	reader     MessageReader
	dispatcher *Dispatcher
	logger     logger.ZapLogger
}

func NewListener(r MessageReader, d *Dispatcher, log logger.ZapLogger) *Listener {
	return &Listener{reader: r, dispatcher: d, logger: log}
}

// Run consumes the change topic until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	l.logger.Info("realtime listener started")
	for {
		msg, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				l.logger.Info("realtime listener stopped")
				return
			}
			l.logger.Error("failed to read change message", zap.Error(err))
			continue
		}

		ev, err := Unmarshal(msg.Value)
		if err != nil {
			l.logger.Warn("dropping undecodable change message",
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}
		l.dispatcher.Dispatch(ctx, ev)
	}
}
