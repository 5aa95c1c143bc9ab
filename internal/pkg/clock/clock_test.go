package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/clock"
)

func TestTimeClocker(t *testing.T) {
	t.Parallel()

	before := time.Now()
	got := clock.New(time.UTC).Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before.Truncate(time.Second)))
	assert.WithinDuration(t, time.Now(), clock.New(nil).Now(), time.Second)
}

func TestFixed(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := clock.Fixed(at)

	assert.Equal(t, at, c.Now())
	assert.Equal(t, c.Now(), c.Now())
}
