// Package scheduler is the boundary to the external batch system. Callers
// hand over a job description plus one variable set per job and get back the
// cluster id the scheduler assigned; admission, matching, holds and retries
// all stay on the scheduler side.
package scheduler

import (
	"context"
	"os"
)

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler type (e.g., "HTCondor")
	Binary    string // Path to the submit binary
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether the scheduler accepts submissions from here
}

// Item is one queued job's variable substitutions, e.g. {"run_number": "42"}.
type Item map[string]string

// Action is a bulk operation applied to the jobs matching a constraint.
type Action string

const (
	ActionRemove  Action = "remove"
	ActionRelease Action = "release"
	ActionHold    Action = "hold"
)

// Scheduler defines the operations the CLI needs from a batch system.
type Scheduler interface {
	// Submit queues one job per item under a single cluster and returns the cluster id.
	Submit(ctx context.Context, desc *Description, items []Item) (int, error)

	// SubmitFile hands an already written submit file to the scheduler.
	SubmitFile(ctx context.Context, path string) (int, error)

	// Query returns the ads of jobs matching constraint, limited to attrs when given.
	Query(ctx context.Context, constraint string, attrs ...string) ([]JobAd, error)

	// Act applies action to every job matching constraint.
	Act(ctx context.Context, action Action, constraint string, reason string) error

	// Edit sets one attribute of a single job ("cluster.proc").
	Edit(ctx context.Context, jobID string, attr string, value string) error

	// GetInfo returns information about the scheduler
	GetInfo(ctx context.Context) *SchedulerInfo
}

// IsInsideJob checks if we're currently running inside an HTCondor job.
func IsInsideJob() bool {
	_, ok := os.LookupEnv("_CONDOR_JOB_AD")
	return ok
}
