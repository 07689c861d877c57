package tally

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/longbridgeapp/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingSink keeps every report it receives and signals each arrival.
type recordingSink struct {
	mu       sync.Mutex
	reports  []Report
	received chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{received: make(chan struct{}, 16)}
}

func (s *recordingSink) Publish(_ context.Context, report Report) error {
	s.mu.Lock()
	s.reports = append(s.reports, report)
	s.mu.Unlock()

	s.received <- struct{}{}

	return nil
}

func (s *recordingSink) all() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Report(nil), s.reports...)
}

func waitReceived(t *testing.T, s *recordingSink) {
	t.Helper()

	select {
	case <-s.received:
	case <-time.After(time.Second):
		t.Fatal("sink did not receive a report")
	}
}

func TestNewReporter_Validation(t *testing.T) {
	_, err := NewReporter(nil, time.Second)
	assert.Error(t, err)

	_, err = NewReporter(New(), 0)
	assert.True(t, errors.Is(err, ErrInvalidInterval), "got %v", err)
}

func TestReporter_TickPublishesAndResets(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mock := clock.NewMock()
	stats := New(WithClock(mock))
	sink := newRecordingSink()

	reporter, err := NewReporter(stats, time.Minute, WithSinks(sink), WithReporterClock(mock))
	mustNoError(t, err)
	mustNoError(t, reporter.Start(context.Background()))

	mustNoError(t, stats.AddOccurrences("requests", 3))
	mustNoError(t, stats.AddSample("latency", 10))

	mock.Add(time.Minute)
	waitReceived(t, sink)

	reports := sink.all()
	mustLen(t, reports, 1)
	assert.Equal(t, []CounterEntry{{Name: "requests", Count: 3}}, reports[0].Counters)
	mustLen(t, reports[0].Samples, 1)
	assert.Equal(t, "latency", reports[0].Samples[0].Name)

	// reset by the tick
	assert.Equal(t, int64(0), stats.FindOccurrence("requests"))

	reporter.Stop()
	waitReceived(t, sink)

	reports = sink.all()
	mustLen(t, reports, 2)
	assert.Empty(t, reports[1].Counters)
}

func TestReporter_WithoutReset(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	stats := New()
	mustNoError(t, stats.AddOccurrence("a"))

	sink := newRecordingSink()
	reporter, err := NewReporter(stats, time.Hour, WithSinks(sink), WithReset(false))
	mustNoError(t, err)

	mustNoError(t, reporter.Flush(context.Background()))
	waitReceived(t, sink)
	assert.Equal(t, int64(1), stats.FindOccurrence("a"))
}

func TestReporter_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	reporter, err := NewReporter(New(), time.Hour)
	mustNoError(t, err)

	mustNoError(t, reporter.Start(context.Background()))
	err = reporter.Start(context.Background())
	assert.True(t, errors.Is(err, ErrReporterRunning), "got %v", err)

	reporter.Stop()
	reporter.Stop()

	// restartable after Stop
	mustNoError(t, reporter.Start(context.Background()))
	reporter.Stop()
}

func TestReporter_FlushReturnsSinkError(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	boom := errors.New("boom")

	reporter, err := NewReporter(New(), time.Hour,
		WithReporterLogger(zap.New(core).Sugar()),
		WithSinks(SinkFunc(func(context.Context, Report) error { return boom })))
	mustNoError(t, err)

	err = reporter.Flush(context.Background())
	assert.True(t, errors.Is(err, boom), "got %v", err)
	assert.Equal(t, 1, logs.Len())
}

func TestReporter_SinkTimeout(t *testing.T) {
	reporter, err := NewReporter(New(), time.Hour,
		WithSinkTimeout(10*time.Millisecond),
		WithSinks(SinkFunc(func(ctx context.Context, _ Report) error {
			<-ctx.Done()

			return ctx.Err()
		})))
	mustNoError(t, err)

	err = reporter.Flush(context.Background())
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestLogSink_Publish(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewLogSink(zap.New(core).Sugar())

	stats := New()
	mustNoError(t, stats.AddOccurrence("requests"))
	mustNoError(t, stats.AddSample("latency", 4))

	mustNoError(t, sink.Publish(context.Background(), stats.Snapshot().Report()))

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("counter requests=1").Len())
	assert.Equal(t, 1, logs.FilterMessage("sample latency: count=1 min=4 max=4 mean=4 stddev=-").Len())
}
