package controllers

import (
	"sync"

	"tradeledger/src/scheduler"
	"tradeledger/src/services"

	"github.com/sirupsen/logrus"
)

type Controller struct {
	Snapshots      services.SnapshotServiceI
	Logger         *logrus.Logger
	SchedulerMutex sync.Mutex
	Schedulers     map[string]*scheduler.ScheduledTask
}

func NewController(snapshots services.SnapshotServiceI, logger *logrus.Logger) *Controller {
	return &Controller{
		Snapshots:  snapshots,
		Logger:     logger,
		Schedulers: map[string]*scheduler.ScheduledTask{},
	}
}

// Close cancels every schedule.
func (c *Controller) Close() {
	c.SchedulerMutex.Lock()
	tasks := make([]*scheduler.ScheduledTask, 0, len(c.Schedulers))
	for name, task := range c.Schedulers {
		tasks = append(tasks, task)
		delete(c.Schedulers, name)
	}
	c.SchedulerMutex.Unlock()

	for _, task := range tasks {
		task.Cancel()
	}
}
