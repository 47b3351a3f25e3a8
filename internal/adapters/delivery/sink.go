// Package delivery defines the outbound sink the dispatcher hands
// matched insights to. The real transport (sockets, push, HTTP) lives
// outside the engine; this package carries the port and two reference
// sinks used for logging, tests, and the simulator.
package delivery

import (
	"context"

	model "github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/pkg/logger"
)

// Sink delivers one insight to one subscribed client in the client's
// language. Failures are non-fatal to the engine: the dispatcher logs
// and counts them, never retries, and never lets one subscriber's
// failure affect another's delivery.
type Sink interface {
	Deliver(ctx context.Context, clientID string, ins model.CoachingInsight, language string) error
}

// LogSink writes every delivery to the structured log. It stands in for
// a real transport in local runs.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a sink that logs deliveries.
func NewLogSink() *LogSink {
	return &LogSink{logger: logger.Get().Named("delivery")}
}

// Deliver logs the insight. It never fails.
func (s *LogSink) Deliver(ctx context.Context, clientID string, ins model.CoachingInsight, language string) error {
	s.logger.Info(ctx, "insight delivered",
		logger.String("clientID", clientID),
		logger.String("insightID", ins.ID),
		logger.String("type", string(ins.Type)),
		logger.String("urgency", ins.Urgency.String()),
		logger.String("language", language),
	)
	return nil
}

// Delivery is one record captured by a ChanSink.
type Delivery struct {
	ClientID string
	Insight  model.CoachingInsight
	Language string
}

// ChanSink buffers deliveries on a channel for tests and the simulator
// to consume. When the buffer is full a delivery is dropped rather than
// blocking the dispatcher.
type ChanSink struct {
	ch chan Delivery
}

// NewChanSink creates a sink with the given buffer size.
func NewChanSink(size int) *ChanSink {
	if size < 1 {
		size = 1
	}
	return &ChanSink{ch: make(chan Delivery, size)}
}

// Deliver places the record on the buffer, dropping it when full.
func (s *ChanSink) Deliver(_ context.Context, clientID string, ins model.CoachingInsight, language string) error {
	select {
	case s.ch <- Delivery{ClientID: clientID, Insight: ins, Language: language}:
		return nil
	default:
		return ErrSinkFull
	}
}

// Deliveries exposes the captured records.
func (s *ChanSink) Deliveries() <-chan Delivery {
	return s.ch
}
