package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/metrics"
)

// InquiryReader loads stored inquiries.
type InquiryReader interface {
	Get(ctx context.Context, id string) (*inquiry.Inquiry, error)
}

// Service routes notifications to the dispatcher of a channel.
type Service struct {
	dispatchers map[Channel]Dispatcher
	inquiries   InquiryReader
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewService creates a Service over the given dispatchers. inquiries and m
// may be nil.
func NewService(inquiries InquiryReader, m *metrics.Metrics, log zerolog.Logger, dispatchers ...Dispatcher) *Service {
	s := &Service{
		dispatchers: make(map[Channel]Dispatcher, len(dispatchers)),
		inquiries:   inquiries,
		metrics:     m,
		log:         log.With().Str("component", "notify").Logger(),
	}
	for _, d := range dispatchers {
		s.dispatchers[d.Channel()] = d
	}
	return s
}

// Dispatcher returns the dispatcher for channel, if registered.
func (s *Service) Dispatcher(channel Channel) (Dispatcher, bool) {
	d, ok := s.dispatchers[channel]
	return d, ok
}

// Send dispatches data over channel. inquiryID may be empty for a
// pre-submission recap.
func (s *Service) Send(ctx context.Context, channel Channel, inquiryID string, data InquiryData) Result {
	d, ok := s.dispatchers[channel]
	if !ok {
		return Result{Success: false, Error: fmt.Sprintf("channel %q not available", channel)}
	}
	res := d.Send(ctx, inquiryID, data)
	s.metrics.RecordDispatch(string(channel), res.Success)
	return res
}

// SendInquiry loads a stored inquiry and re-triggers one channel for it.
// A missing inquiry is an error; dispatch failures are reported in Result.
func (s *Service) SendInquiry(ctx context.Context, inquiryID string, channel Channel) (Result, error) {
	if s.inquiries == nil {
		return Result{}, fmt.Errorf("notify: send inquiry: no inquiry store")
	}
	inq, err := s.inquiries.Get(ctx, inquiryID)
	if err != nil {
		return Result{}, fmt.Errorf("notify: send inquiry: %w", err)
	}
	res := s.Send(ctx, channel, inq.ID, FromInquiry(inq))
	s.log.Info().Str("inquiryId", inq.ID).Str("channel", string(channel)).Bool("success", res.Success).
		Msg("inquiry notification re-triggered")
	return res, nil
}
