package schemas

import "time"

type ScheduleRequest struct {
	Cron string `json:"cron" validate:"required"`
}

type ScheduleResponse struct {
	Name string    `json:"name"`
	Cron string    `json:"cron"`
	Next time.Time `json:"next"`
}

type SnapshotRunResponse struct {
	Accounts int      `json:"accounts"`
	Failed   []string `json:"failed"`
}
