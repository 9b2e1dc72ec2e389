// Package manage holds the queue utilities: listing a user's jobs, counting
// the hosts they landed on and bulk removing, releasing or re-targeting them.
package manage

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// QueueAttrs are the job attributes the queue utilities read.
var QueueAttrs = []string{
	"ClusterId", "ProcId", "JobStatus", "Args", "Owner",
	"ServerTime", "LastMatchTime", "RemoteHost", "LastRemoteHost", "Requirements",
}

// Manager runs queue operations on one user's jobs.
type Manager struct {
	Sched  scheduler.Scheduler
	User   string
	Domain string // Stripped from host names
}

// New returns a Manager for user.
func New(sched scheduler.Scheduler, user, domain string) *Manager {
	return &Manager{Sched: sched, User: user, Domain: domain}
}

// MyQueue returns the user's jobs matching extra (empty for all).
func (m *Manager) MyQueue(ctx context.Context, extra string) ([]scheduler.JobAd, error) {
	return m.Sched.Query(ctx, scheduler.And(scheduler.OwnerIs(m.User), extra), QueueAttrs...)
}

var statusColors = map[scheduler.JobStatus]*color.Color{
	scheduler.StatusIdle:      color.New(color.FgYellow),
	scheduler.StatusRunning:   color.New(color.FgGreen),
	scheduler.StatusHeld:      color.New(color.FgRed, color.Bold),
	scheduler.StatusCompleted: color.New(color.FgCyan),
}

// StatusLetter returns the colored condor_q letter of status.
func StatusLetter(status scheduler.JobStatus) string {
	letter := status.Letter()
	if c, ok := statusColors[status]; ok {
		return c.Sprint(letter)
	}
	return letter
}

// RunTime is how long a job has been running according to the schedd clock.
func RunTime(job scheduler.JobAd) time.Duration {
	start := job.Int("LastMatchTime")
	now := job.Int("ServerTime")
	if start == 0 || now < start {
		return 0
	}
	return time.Duration(now-start) * time.Second
}

// LastArg returns the final word of the job's arguments: its input files or run number.
func LastArg(job scheduler.JobAd) string {
	fields := strings.Fields(job.String("Args"))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// PrintQueue writes one line per job under a "Cluster.Proc : St : HH:MM:SS : Input" header.
func PrintQueue(w io.Writer, jobs []scheduler.JobAd) {
	fmt.Fprintln(w, "Cluster.Proc : St : HH:MM:SS : Input")
	for _, j := range jobs {
		fmt.Fprintf(w, "%7d.%-4d : %s  : %s : %s\n",
			j.Int("ClusterId"), j.Int("ProcId"),
			StatusLetter(j.Status()),
			utils.FormatClock(RunTime(j)),
			LastArg(j))
	}
}

// HostFilter selects which jobs Hosts counts. The zero value counts held and running jobs.
type HostFilter struct {
	HeldOnly    bool
	RunningOnly bool
}

func (f HostFilter) constraint() string {
	held := scheduler.StatusIs(scheduler.StatusHeld)
	running := scheduler.StatusIs(scheduler.StatusRunning)
	switch {
	case f.HeldOnly && !f.RunningOnly:
		return held
	case f.RunningOnly && !f.HeldOnly:
		return running
	default:
		return scheduler.Or(held, running)
	}
}

// Hosts counts the user's jobs per host. Running jobs count against
// RemoteHost, held jobs against LastRemoteHost.
func (m *Manager) Hosts(ctx context.Context, filter HostFilter, extra string) (map[string]int, error) {
	jobs, err := m.MyQueue(ctx, scheduler.And(filter.constraint(), extra))
	if err != nil {
		return nil, err
	}

	hosts := make(map[string]int)
	for _, j := range jobs {
		attr := "LastRemoteHost"
		if j.Status() == scheduler.StatusRunning {
			attr = "RemoteHost"
		}
		host := ShortHostName(j.String(attr), m.Domain)
		if host == "" {
			continue
		}
		hosts[host]++
	}
	return hosts, nil
}

// ShortHostName turns "slot1_2@scorpion3.spa.umn.edu" into "scorpion3".
func ShortHostName(host, domain string) string {
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if domain != "" {
		host = strings.TrimSuffix(host, "."+domain)
	}
	return host
}

// PrintHosts writes "host : count" lines sorted by host.
func PrintHosts(w io.Writer, hosts map[string]int) {
	for _, h := range slices.Sorted(maps.Keys(hosts)) {
		fmt.Fprintf(w, "%-20s : %d\n", h, hosts[h])
	}
}

// BanMachine adds a requirement excluding machine to every one of the user's
// jobs. Jobs are edited one at a time since their requirements may differ.
func (m *Manager) BanMachine(ctx context.Context, machine string) (int, error) {
	jobs, err := m.MyQueue(ctx, "")
	if err != nil {
		return 0, err
	}
	ban := scheduler.DontUseMachine(machine, m.Domain)
	edited := 0
	for _, j := range jobs {
		req := ban
		if old := j.Expr("Requirements"); old != "" {
			req = "(" + old + ") && " + ban
		}
		if err := m.Sched.Edit(ctx, j.ID(), "Requirements", req); err != nil {
			return edited, err
		}
		edited++
	}
	return edited, nil
}

func (m *Manager) act(ctx context.Context, action scheduler.Action, constraint string) error {
	return m.Sched.Act(ctx, action,
		scheduler.And(scheduler.OwnerIs(m.User), constraint),
		m.User+" asked me to.")
}

// RemoveAll removes all of the user's jobs.
func (m *Manager) RemoveAll(ctx context.Context) error {
	return m.act(ctx, scheduler.ActionRemove, "")
}

// RemoveHeld removes the user's held jobs.
func (m *Manager) RemoveHeld(ctx context.Context) error {
	return m.act(ctx, scheduler.ActionRemove, scheduler.StatusIs(scheduler.StatusHeld))
}

// ReleaseAll releases all of the user's held jobs.
func (m *Manager) ReleaseAll(ctx context.Context) error {
	return m.act(ctx, scheduler.ActionRelease, "")
}

// Watch prints the queue every interval until ctx ends.
func (m *Manager) Watch(ctx context.Context, w io.Writer, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		jobs, err := m.MyQueue(ctx, "")
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprintf(w, "-- %s -- %d jobs\n", time.Now().Format(time.TimeOnly), len(jobs))
		PrintQueue(w, jobs)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
