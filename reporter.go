package tally

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hyp3rd/ewrap"
	"golang.org/x/sync/errgroup"

	"github.com/hyp3rd/tally/internal/constants"
	"github.com/hyp3rd/tally/internal/sentinel"
)

// Sink receives every report a Reporter produces.
type Sink interface {
	Publish(ctx context.Context, report Report) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, report Report) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, report Report) error {
	return f(ctx, report)
}

// LogSink writes reports through a Logger.
type LogSink struct {
	logger Logger
}

// NewLogSink returns a sink logging through logger. A nil logger discards reports.
func NewLogSink(logger Logger) *LogSink {
	if logger == nil {
		logger = NopLogger()
	}

	return &LogSink{logger: logger}
}

// Publish logs a one-line header followed by one line per series.
func (s *LogSink) Publish(_ context.Context, report Report) error {
	s.logger.Infof("statistics at %s: %d counters, %d samples, %d durations",
		report.TakenAt.Format(time.RFC3339Nano), len(report.Counters), len(report.Samples), len(report.Durations))

	for _, c := range report.Counters {
		s.logger.Infof("counter %s=%d", c.Name, c.Count)
	}

	for _, e := range report.Samples {
		s.logger.Infof("sample %s: %s", e.Name, e.Summary)
	}

	for _, e := range report.Durations {
		s.logger.Infof("duration %s (ms): %s", e.Name, e.Summary)
	}

	return nil
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReset selects SnapshotAndReset (true, the default) or Snapshot (false) on every tick.
func WithReset(reset bool) ReporterOption {
	return func(r *Reporter) { r.reset = reset }
}

// WithSinks appends sinks to the reporter.
func WithSinks(sinks ...Sink) ReporterOption {
	return func(r *Reporter) {
		for _, s := range sinks {
			if s != nil {
				r.sinks = append(r.sinks, s)
			}
		}
	}
}

// WithReporterLogger sets the logger used for sink failures.
func WithReporterLogger(logger Logger) ReporterOption {
	return func(r *Reporter) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReporterClock sets the clock driving the reporting ticker.
func WithReporterClock(clk clock.Clock) ReporterOption {
	return func(r *Reporter) {
		if clk != nil {
			r.clock = clk
		}
	}
}

// WithReportWorkers sets how many sinks may publish at the same time.
func WithReportWorkers(workers int) ReporterOption {
	return func(r *Reporter) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithSinkTimeout bounds a single Publish call.
func WithSinkTimeout(timeout time.Duration) ReporterOption {
	return func(r *Reporter) {
		if timeout > 0 {
			r.sinkTimeout = timeout
		}
	}
}

// Reporter periodically snapshots a Statistics and hands the report to its sinks.
// Sink errors are logged and never retried.
type Reporter struct {
	stats       Statistics
	interval    time.Duration
	reset       bool
	sinks       []Sink
	logger      Logger
	clock       clock.Clock
	workers     int
	sinkTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	pool   *WorkerPool
}

// NewReporter returns a stopped reporter for stats ticking every interval.
func NewReporter(stats Statistics, interval time.Duration, opts ...ReporterOption) (*Reporter, error) {
	if stats == nil {
		return nil, sentinel.ErrNilStatistics
	}

	if interval <= 0 {
		return nil, ewrap.Wrapf(sentinel.ErrInvalidInterval, "interval %s", interval)
	}

	r := &Reporter{
		stats:       stats,
		interval:    interval,
		reset:       true,
		logger:      NopLogger(),
		clock:       clock.New(),
		workers:     constants.DefaultReportWorkers,
		sinkTimeout: constants.DefaultSinkTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Start begins ticking. It returns ErrReporterRunning if the reporter is already started.
// The reporter stops when ctx is done or Stop is called.
func (r *Reporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done != nil {
		return sentinel.ErrReporterRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := r.clock.Ticker(r.interval)

	r.cancel = cancel
	r.done = make(chan struct{})
	r.pool = NewWorkerPool(r.workers, func(err error) {
		r.logger.Errorf("publish report: %v", err)
	})

	go r.loop(ctx, ticker, r.pool, r.done)

	return nil
}

// Stop halts the ticker, publishes a final report and waits for in-flight sinks.
// Stopping a reporter that is not running is a no-op.
func (r *Reporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done == nil {
		return
	}

	r.cancel()
	<-r.done

	err := r.Flush(context.Background())
	if err != nil {
		r.logger.Errorf("final report: %v", err)
	}

	r.pool.Shutdown()

	r.cancel, r.done, r.pool = nil, nil, nil
}

// Flush takes a report now and publishes it to every sink, waiting for all of them.
// The first sink error is returned; the others are logged.
func (r *Reporter) Flush(ctx context.Context) error {
	report := r.take()

	var group errgroup.Group

	for _, sink := range r.sinks {
		group.Go(func() error {
			err := r.publish(ctx, sink, report)
			if err != nil {
				r.logger.Errorf("publish report: %v", err)
			}

			return err
		})
	}

	return group.Wait()
}

func (r *Reporter) loop(ctx context.Context, ticker *clock.Ticker, pool *WorkerPool, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := r.take()

			for _, sink := range r.sinks {
				err := pool.Enqueue(ctx, func(jobCtx context.Context) error {
					return r.publish(jobCtx, sink, report)
				})
				if err != nil {
					return
				}
			}
		}
	}
}

func (r *Reporter) take() Report {
	if r.reset {
		return r.stats.SnapshotAndReset().Report()
	}

	return r.stats.Snapshot().Report()
}

func (r *Reporter) publish(ctx context.Context, sink Sink, report Report) error {
	ctx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()

	return sink.Publish(ctx, report)
}
