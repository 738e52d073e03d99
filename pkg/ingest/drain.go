package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/NotCoffee418/slimmemeter/pkg/metrics"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
	"github.com/sirupsen/logrus"
)

// Drain hands every pending sample to the sink, oldest first.
//
// A sample leaves the ring only after all of its records were accepted. A failed
// delivery stays pending and is retried on the next drain; once MaxSinkFailures
// deliveries in a row have failed, ErrSinkFailureBudget is returned.
func (s *Session) Drain(ctx context.Context) error {
	for {
		sample, ok := s.ring.Peek()
		if !ok {
			return nil
		}

		if err := s.deliver(ctx, sample); err != nil {
			s.sinkFailures++
			metrics.ObserveDelivery(metrics.ResultError, s.sinkFailures)
			s.log.WithError(err).WithFields(logrus.Fields{
				"window_start": sample.WindowStart,
				"consecutive":  s.sinkFailures,
			}).Error("Failed to deliver sample")

			if s.sinkFailures >= s.maxSinkFailures {
				return fmt.Errorf("%w (%d): %w", ErrSinkFailureBudget, s.sinkFailures, err)
			}
			return nil
		}

		s.sinkFailures = 0
		s.ring.PopIfReady()
		metrics.ObserveDelivery(metrics.ResultSuccess, 0)
		metrics.ObserveRing(s.ring.Len(), false)

		if s.verbose.Load() {
			if _, err := io.WriteString(s.report, sample.Report()); err != nil {
				s.log.WithError(err).Warn("Failed to write sample report")
			}
		}
		if s.onDelivered != nil {
			s.onDelivered(sample)
		}
	}
}

func (s *Session) deliver(ctx context.Context, sample types.Sample) error {
	for _, record := range sample.Records() {
		if err := s.sink.Update(ctx, record); err != nil {
			return fmt.Errorf("update %s: %w", record.Series.Name, err)
		}
	}
	return nil
}
