package schema

import (
	"strconv"
	"time"
)

// Job states as stored by the service.
const (
	JobWaiting = 0
	JobRunning = 1
	JobStopped = 2
)

type (
	// Job is a job as returned by the service REST API.
	Job struct {
		ID          uint      `json:"id"`
		Name        string    `json:"name"`
		Desc        string    `json:"desc"`
		CronExpr    string    `json:"cron_expr"`
		Mode        string    `json:"mode"`
		Command     string    `json:"command"`
		State       int       `json:"state"`
		AllowMode   int       `json:"allow_mode"`
		MaxRunCount uint      `json:"max_run_count"`
		RunCount    uint      `json:"run_count"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// BridgeJob is a job as rendered by the bridge tools.
	BridgeJob struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Desc     string `json:"desc,omitempty"`
		Command  string `json:"command,omitempty"`
		CronExpr string `json:"cron_expr,omitempty"`
		Mode     string `json:"mode,omitempty"`
		Status   string `json:"status,omitempty"`
		State    int    `json:"state"`
	}

	// JobPage is the list_jobs tool payload.
	JobPage struct {
		Jobs    []BridgeJob `json:"jobs"`
		Total   int64       `json:"total"`
		Page    int         `json:"page"`
		Size    int         `json:"size"`
		Pages   int64       `json:"pages"`
		HasMore bool        `json:"has_more"`
	}

	// JobsOverview is the jobs overview resource payload.
	JobsOverview struct {
		TotalJobs   int    `json:"total_jobs"`
		RunningJobs int    `json:"running_jobs"`
		StoppedJobs int    `json:"stopped_jobs"`
		WaitingJobs int    `json:"waiting_jobs"`
		LastUpdated string `json:"last_updated,omitempty"`
	}

	// ListJobsArgs are list_jobs and get_system_logs arguments.
	ListJobsArgs struct {
		Page int `json:"page"`
		Size int `json:"size"`
	}

	// JobIDArgs identify a single job.
	JobIDArgs struct {
		JobID string `json:"job_id"`
	}

	// CreateJobArgs are create_job arguments.
	CreateJobArgs struct {
		Name     string `json:"name"`
		Command  string `json:"command"`
		CronExpr string `json:"cron_expr"`
		Mode     string `json:"mode"`
		Desc     string `json:"desc,omitempty"`
	}
)

// IDString returns the job id in the form the bridge uses.
func (j *Job) IDString() string {
	return strconv.FormatUint(uint64(j.ID), 10)
}

// Status maps a job state to the bridge status label.
func Status(state int) string {
	switch state {
	case JobWaiting:
		return "waiting"
	case JobRunning:
		return "running"
	case JobStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
