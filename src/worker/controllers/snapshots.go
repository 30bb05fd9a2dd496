package controllers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tradeledger/src/models"
	"tradeledger/src/scheduler"
	"tradeledger/src/schemas"
	"tradeledger/src/utils"
)

// SnapshotsSchedule is the name of the recurring all-accounts snapshot job.
const SnapshotsSchedule = "snapshots"

var ErrInvalidSchedule = errors.New("invalid cron schedule")

// RunSnapshots values every account once.
func (c *Controller) RunSnapshots(ctx context.Context) (*schemas.SnapshotRunResponse, error) {
	accounts, failed, err := c.Snapshots.SnapshotAll(utils.WithLogger(ctx, c.Logger))
	if err != nil {
		return nil, err
	}
	return &schemas.SnapshotRunResponse{Accounts: accounts, Failed: failed}, nil
}

func (c *Controller) SnapshotAccount(ctx context.Context, accountID string) (*models.Snapshot, error) {
	return c.Snapshots.SnapshotAccount(utils.WithLogger(ctx, c.Logger), accountID)
}

// ScheduleSnapshots (re)schedules the all-accounts snapshot job on spec.
func (c *Controller) ScheduleSnapshots(_ context.Context, spec string, timeout time.Duration) (*schemas.ScheduleResponse, error) {
	return c.Schedule(SnapshotsSchedule, spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := c.RunSnapshots(ctx); err != nil {
			c.Logger.WithError(err).Error("Scheduled snapshots failed")
		}
	})
}

// Schedule replaces the task registered under name with a new one running
// taskFunc on spec. An invalid spec leaves the existing task untouched.
func (c *Controller) Schedule(name, spec string, taskFunc func()) (*schemas.ScheduleResponse, error) {
	newTask, err := scheduler.NewScheduledTask(spec, taskFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	c.SchedulerMutex.Lock()
	existingTask, exists := c.Schedulers[name]
	c.Schedulers[name] = newTask
	c.SchedulerMutex.Unlock()

	// a running activation of the old task may take a while to finish
	if exists {
		existingTask.Cancel()
	}

	c.Logger.WithField("schedule", name).WithField("cron", spec).Info("Task scheduled")
	return &schemas.ScheduleResponse{Name: name, Cron: spec, Next: newTask.Next()}, nil
}

// Schedules lists the active schedules by name.
func (c *Controller) Schedules() []schemas.ScheduleResponse {
	c.SchedulerMutex.Lock()
	defer c.SchedulerMutex.Unlock()

	schedules := make([]schemas.ScheduleResponse, 0, len(c.Schedulers))
	for name, task := range c.Schedulers {
		schedules = append(schedules, schemas.ScheduleResponse{Name: name, Cron: task.Spec, Next: task.Next()})
	}
	sort.Slice(schedules, func(i, j int) bool { return schedules[i].Name < schedules[j].Name })
	return schedules
}
