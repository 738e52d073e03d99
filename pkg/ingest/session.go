// Package ingest turns the raw P1 byte stream into delivered window samples.
// Everything in here runs on the caller's goroutine; the verbose flag is the
// only state that may be touched from elsewhere.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/NotCoffee418/slimmemeter/pkg/logging"
	"github.com/NotCoffee418/slimmemeter/pkg/metrics"
	"github.com/NotCoffee418/slimmemeter/pkg/telegram"
	"github.com/NotCoffee418/slimmemeter/pkg/types"
	"github.com/NotCoffee418/slimmemeter/pkg/window"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxSinkFailures = 9
	DefaultMaxParseErrors  = 3

	readBufferSize = 8192
)

var (
	ErrSinkFailureBudget  = errors.New("too many consecutive sink failures")
	ErrParseFailureBudget = errors.New("too many consecutive telegram parse failures")
)

// Sink persists the three series records of a sample.
type Sink interface {
	Update(ctx context.Context, record types.Record) error
}

type Options struct {
	// Consecutive failed deliveries that end the run.
	MaxSinkFailures int
	// Consecutive structurally broken telegrams that end the run.
	MaxParseErrors int
	Verbose        bool
	// Clock, defaults to time.Now
	Now func() time.Time
	// Called after a sample was handed to the sink.
	OnDelivered func(types.Sample)
	// Verbose reports go here regardless of log level, defaults to os.Stdout
	ReportOutput io.Writer
	Logger       *logrus.Entry
}

type Session struct {
	sink    Sink
	decoder *telegram.Decoder
	active  *window.Accumulator
	ring    window.Ring

	maxSinkFailures int
	maxParseErrors  int
	sinkFailures    int
	parseErrors     int

	verbose     atomic.Bool
	now         func() time.Time
	onDelivered func(types.Sample)
	report      io.Writer
	log         *logrus.Entry
}

func NewSession(sink Sink, opts Options) *Session {
	s := &Session{
		sink:            sink,
		decoder:         telegram.NewDecoder(),
		maxSinkFailures: opts.MaxSinkFailures,
		maxParseErrors:  opts.MaxParseErrors,
		now:             opts.Now,
		onDelivered:     opts.OnDelivered,
		report:          opts.ReportOutput,
		log:             opts.Logger,
	}
	if s.maxSinkFailures <= 0 {
		s.maxSinkFailures = DefaultMaxSinkFailures
	}
	if s.maxParseErrors <= 0 {
		s.maxParseErrors = DefaultMaxParseErrors
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.report == nil {
		s.report = os.Stdout
	}
	if s.log == nil {
		s.log = logging.WithComponent("ingest")
	}
	s.verbose.Store(opts.Verbose)
	return s
}

// ToggleVerbose flips verbose mode and returns the new value. Safe from any goroutine.
func (s *Session) ToggleVerbose() bool {
	for {
		old := s.verbose.Load()
		if s.verbose.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *Session) Verbose() bool {
	return s.verbose.Load()
}

// Pending is the number of samples waiting for the sink.
func (s *Session) Pending() int {
	return s.ring.Len()
}

// Run reads r until end of stream and pushes every byte through the pipeline.
// It returns nil on io.EOF, the read error otherwise, or one of the budget errors.
// Canceling ctx does not interrupt a blocked read; close the reader for that.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			if ferr := s.Feed(ctx, buf[i]); ferr != nil {
				return ferr
			}
		}

		if errors.Is(err, io.EOF) {
			s.log.Info("End of byte stream")
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read byte stream: %w", err)
		}
	}
}

// Feed advances the frame decoder by one byte and, when a telegram completes,
// runs parse, window rollover and drain synchronously.
// Only the fatal budget errors are returned.
func (s *Session) Feed(ctx context.Context, b byte) error {
	frame, err := s.decoder.Feed(b)
	if err != nil {
		reason := metrics.FrameChecksumMismatch
		if errors.Is(err, telegram.ErrFrameTooLong) {
			reason = metrics.FrameTooLong
		}
		metrics.ObserveFrame(reason)
		s.log.WithError(err).WithField("reason", reason).Warn("Dropped telegram")
		return nil
	}
	if frame == nil {
		return nil
	}
	metrics.ObserveFrame(metrics.FrameOK)

	if err := s.Parse(frame, s.now()); err != nil {
		metrics.ObserveTelegram(metrics.ResultError)
		s.parseErrors++
		s.log.WithError(err).WithFields(logrus.Fields{
			"reason":      "parse",
			"consecutive": s.parseErrors,
		}).Warn("Dropped telegram")
		if s.parseErrors >= s.maxParseErrors {
			return fmt.Errorf("%w (%d): %w", ErrParseFailureBudget, s.parseErrors, err)
		}
		return nil
	}
	s.parseErrors = 0
	metrics.ObserveTelegram(metrics.ResultSuccess)

	return s.Drain(ctx)
}
