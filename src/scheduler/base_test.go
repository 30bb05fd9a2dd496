package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"tradeledger/src/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduledTask(t *testing.T) {
	t.Run("should run until cancelled", func(t *testing.T) {
		var runs atomic.Int32
		task, err := scheduler.NewScheduledTask("@every 1s", func() { runs.Add(1) })
		require.NoError(t, err)

		next := task.Next()
		assert.True(t, next.After(time.Now()))
		assert.True(t, next.Before(time.Now().Add(2*time.Second)))

		assert.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

		task.Cancel()
		stopped := runs.Load()
		time.Sleep(1500 * time.Millisecond)
		assert.Equal(t, stopped, runs.Load())
	})

	t.Run("should accept standard cron fields", func(t *testing.T) {
		task, err := scheduler.NewScheduledTask("0 3 * * *", func() {})
		require.NoError(t, err)
		defer task.Cancel()

		next := task.Next()
		assert.Equal(t, 3, next.Hour())
		assert.Equal(t, 0, next.Minute())
	})

	t.Run("should reject invalid specs", func(t *testing.T) {
		for _, spec := range []string{"", "every hour", "61 * * * *"} {
			_, err := scheduler.NewScheduledTask(spec, func() {})
			assert.Error(t, err, spec)
		}
	})
}
