package stopwatch

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestStart_MockClock(t *testing.T) {
	mock := clock.NewMock()
	sw := Start(mock)

	assert.Equal(t, mock.Now(), sw.StartedAt())
	assert.Zero(t, sw.Elapsed())

	mock.Add(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, sw.Elapsed())
	assert.InDelta(t, 250.0, sw.ElapsedMillis(), 1e-9)

	// querying does not stop the watch
	mock.Add(time.Second)
	assert.Equal(t, 1250*time.Millisecond, sw.Elapsed())
}

func TestStart_Independent(t *testing.T) {
	mock := clock.NewMock()
	first := Start(mock)

	mock.Add(time.Second)

	second := Start(mock)

	mock.Add(time.Second)

	assert.Equal(t, 2*time.Second, first.Elapsed())
	assert.Equal(t, time.Second, second.Elapsed())
}

func TestStartNow(t *testing.T) {
	sw := StartNow()

	time.Sleep(5 * time.Millisecond)

	assert.GreaterOrEqual(t, sw.Elapsed(), 5*time.Millisecond)
	assert.Less(t, sw.ElapsedMillis(), 1000.0)
}

func TestZeroStopwatch(t *testing.T) {
	var sw Stopwatch

	assert.Zero(t, sw.Elapsed())
	assert.Zero(t, sw.ElapsedMillis())
}
