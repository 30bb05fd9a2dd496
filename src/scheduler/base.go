package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// ScheduledTask runs a function on a cron spec until cancelled.
type ScheduledTask struct {
	Spec     string
	schedule cron.Schedule
	cronID   cron.EntryID
	cron     *cron.Cron
	cancel   chan struct{}
}

// NewScheduledTask parses cronSpec (standard five fields or descriptors such
// as "@every 1h") and starts running taskFunc on it.
func NewScheduledTask(cronSpec string, taskFunc func()) (*ScheduledTask, error) {
	schedule, err := cron.ParseStandard(cronSpec)
	if err != nil {
		return nil, err
	}

	c := cron.New()
	cancel := make(chan struct{})
	task := &ScheduledTask{
		Spec:     cronSpec,
		schedule: schedule,
		cron:     c,
		cancel:   cancel,
	}

	job := cron.FuncJob(func() {
		select {
		case <-cancel:
			return
		default:
			taskFunc()
		}
	})
	task.cronID = c.Schedule(schedule, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job))
	c.Start()
	return task, nil
}

// Next is the next activation time after now.
func (s *ScheduledTask) Next() time.Time {
	return s.schedule.Next(time.Now())
}

// Cancel stops the schedule and waits for a running activation to finish.
func (s *ScheduledTask) Cancel() {
	s.cron.Remove(s.cronID)
	close(s.cancel)
	<-s.cron.Stop().Done()
}
