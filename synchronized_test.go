package tally

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/longbridgeapp/assert"
)

func TestSynchronized_ConcurrentOccurrences(t *testing.T) {
	const (
		workers = 16
		perWork = 1000
	)

	stats := New()

	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for range perWork {
				_ = stats.AddOccurrence("shared")
			}
		})
	}

	wg.Wait()

	assert.Equal(t, int64(workers*perWork), stats.FindOccurrence("shared"))
}

func TestSynchronized_ConcurrentSamplesAndReaders(t *testing.T) {
	const (
		writers = 8
		samples = 500
	)

	stats := New()

	var (
		wg   sync.WaitGroup
		done atomic.Bool
	)

	// readers run alongside the writers
	for range 4 {
		wg.Go(func() {
			for !done.Load() {
				snap := stats.Snapshot()
				if d, ok := snap.Sample("latency"); ok {
					assert.True(t, d.Min() <= d.Max())
				}

				_ = stats.FindStatistic("latency")
			}
		})
	}

	var writersWG sync.WaitGroup

	for w := range writers {
		writersWG.Go(func() {
			for i := range samples {
				_ = stats.AddSample("latency", float64(w*samples+i))
				_ = stats.RecordElapsedTime("op", stats.StartStopwatch())
			}
		})
	}

	writersWG.Wait()
	done.Store(true)
	wg.Wait()

	d := stats.FindStatistic("latency")
	assert.Equal(t, int64(writers*samples), d.Count())
	assert.Equal(t, 0.0, d.Min())
	assert.Equal(t, float64(writers*samples-1), d.Max())
	assertInDelta(t, float64(writers*samples-1)/2, d.Mean(), 1e-6)
	assert.Equal(t, int64(writers*samples), stats.FindDuration("op").Count())
}

func TestSynchronized_SnapshotAndResetLosesNothing(t *testing.T) {
	const (
		writers = 8
		perWork = 2000
	)

	stats := New()

	var (
		writersWG sync.WaitGroup
		collected atomic.Int64
		sampled   atomic.Int64
		done      = make(chan struct{})
		resetDone = make(chan struct{})
	)

	go func() {
		defer close(resetDone)

		for {
			snap := stats.SnapshotAndReset()
			count, _ := snap.Counter("events")
			collected.Add(count)

			if d, ok := snap.Sample("events"); ok {
				sampled.Add(d.Count())
			}

			select {
			case <-done:
				return
			default:
			}
		}
	}()

	for range writers {
		writersWG.Go(func() {
			for range perWork {
				_ = stats.AddOccurrence("events")
				_ = stats.AddSample("events", 1)
			}
		})
	}

	writersWG.Wait()
	close(done)
	<-resetDone

	final := stats.SnapshotAndReset()
	count, _ := final.Counter("events")
	collected.Add(count)

	if d, ok := final.Sample("events"); ok {
		sampled.Add(d.Count())
	}

	assert.Equal(t, int64(writers*perWork), collected.Load())
	assert.Equal(t, int64(writers*perWork), sampled.Load())
}

func TestSynchronized_StartStopwatchDuringWrite(t *testing.T) {
	stats := New()

	stats.mu.Lock()

	// the stopwatch does not need the lock
	sw := stats.StartStopwatch()

	stats.mu.Unlock()

	mustNoError(t, stats.RecordElapsedTime("sw", sw))
	assert.Equal(t, int64(1), stats.FindDuration("sw").Count())
}
