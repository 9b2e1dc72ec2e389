package scheduler

import (
	"context"
	"fmt"
	"sync"
)

// Submission is one call recorded by DryRunScheduler.
type Submission struct {
	Description string
	Items       []Item
	File        string
}

// DryRunScheduler records submissions instead of handing them to a batch
// system. Queries return Jobs; actions and edits are logged and succeed.
type DryRunScheduler struct {
	mu          sync.Mutex
	nextCluster int

	Submissions []Submission
	Actions     []string
	Edits       []string
	Jobs        []JobAd
}

// NewDryRunScheduler returns a dry-run scheduler whose first cluster id is first.
func NewDryRunScheduler(first int) *DryRunScheduler {
	return &DryRunScheduler{nextCluster: first}
}

func (d *DryRunScheduler) Submit(ctx context.Context, desc *Description, items []Item) (int, error) {
	if len(items) == 0 {
		return 0, ErrNoJobs
	}
	if _, err := itemVars(items); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Submissions = append(d.Submissions, Submission{Description: desc.String(), Items: items})
	return d.bump(), nil
}

func (d *DryRunScheduler) SubmitFile(ctx context.Context, path string) (int, error) {
	lines, err := readFileLines(path)
	if err != nil {
		return 0, err
	}
	if extractHTCondorExecutable(lines) == "" {
		return 0, fmt.Errorf("%w: %s has no executable", ErrInvalidSubmitFile, path)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Submissions = append(d.Submissions, Submission{File: path})
	return d.bump(), nil
}

func (d *DryRunScheduler) bump() int {
	id := d.nextCluster
	d.nextCluster++
	return id
}

func (d *DryRunScheduler) Query(ctx context.Context, constraint string, attrs ...string) ([]JobAd, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]JobAd(nil), d.Jobs...), nil
}

func (d *DryRunScheduler) Act(ctx context.Context, action Action, constraint string, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Actions = append(d.Actions, fmt.Sprintf("%s %s", action, constraint))
	return nil
}

func (d *DryRunScheduler) Edit(ctx context.Context, jobID string, attr string, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Edits = append(d.Edits, fmt.Sprintf("%s %s %s", jobID, attr, value))
	return nil
}

func (d *DryRunScheduler) GetInfo(ctx context.Context) *SchedulerInfo {
	return &SchedulerInfo{Type: "dry-run", Available: true, InJob: IsInsideJob()}
}
