package ingest

import (
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/metrics"
	"github.com/NotCoffee418/slimmemeter/pkg/telegram"
	"github.com/NotCoffee418/slimmemeter/pkg/window"
	"github.com/sirupsen/logrus"
)

// Parse merges one validated telegram, received at now, into the active window.
// A telegram in a new bucket first closes the active window.
// On error the telegram contributes nothing.
func (s *Session) Parse(tg []byte, now time.Time) error {
	bucket := window.Bucket(now.Unix())
	if s.active != nil && s.active.Bucket() != bucket {
		s.closeWindow()
	}
	if s.active == nil {
		s.active = window.NewAccumulator(bucket)
	}

	fields, err := telegram.ParseFields(tg)
	if err != nil {
		return err
	}
	for _, f := range fields {
		s.active.Apply(f)
	}
	s.active.Commit()
	return nil
}

// Flush closes the active window regardless of the clock.
func (s *Session) Flush() {
	if s.active != nil {
		s.closeWindow()
	}
}

func (s *Session) closeWindow() {
	sample, ok := s.active.Finalize()
	s.active = nil
	if !ok {
		metrics.ObserveWindow(metrics.WindowEmpty)
		return
	}
	metrics.ObserveWindow(metrics.WindowFinalized)

	evicted := s.ring.Push(sample)
	metrics.ObserveRing(s.ring.Len(), evicted)
	if evicted {
		s.log.WithField("pending", s.ring.Len()).Warn("Ring buffer full, dropped oldest undelivered sample")
	}
	s.log.WithFields(logrus.Fields{
		"window_start": sample.WindowStart,
		"count":        sample.Count,
	}).Debug("Window closed")
}
