package manage

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
)

// fakeSched returns fixed jobs and records constraints and actions.
type fakeSched struct {
	*scheduler.DryRunScheduler
	constraints []string
	reasons     []string
}

func (f *fakeSched) Query(ctx context.Context, constraint string, attrs ...string) ([]scheduler.JobAd, error) {
	f.constraints = append(f.constraints, constraint)
	return f.DryRunScheduler.Query(ctx, constraint, attrs...)
}

func (f *fakeSched) Act(ctx context.Context, action scheduler.Action, constraint string, reason string) error {
	f.reasons = append(f.reasons, reason)
	return f.DryRunScheduler.Act(ctx, action, constraint, reason)
}

func newFake(jobs ...scheduler.JobAd) *fakeSched {
	d := scheduler.NewDryRunScheduler(1)
	d.Jobs = jobs
	return &fakeSched{DryRunScheduler: d}
}

func job(cluster, proc int, status scheduler.JobStatus, extra scheduler.JobAd) scheduler.JobAd {
	ad := scheduler.JobAd{
		"ClusterId": float64(cluster),
		"ProcId":    float64(proc),
		"JobStatus": float64(status),
	}
	for k, v := range extra {
		ad[k] = v
	}
	return ad
}

func init() {
	color.NoColor = true
}

func TestPrintQueue(t *testing.T) {
	jobs := []scheduler.JobAd{
		job(1234, 0, scheduler.StatusRunning, scheduler.JobAd{
			"Args":          "/scratch/1234-0 env.sh config.py /out --run 42",
			"LastMatchTime": float64(1000),
			"ServerTime":    float64(1000 + 3*3600 + 25*60 + 7),
		}),
		job(1234, 1, scheduler.StatusIdle, scheduler.JobAd{"Args": "a b"}),
		job(99, 12, scheduler.JobStatus(9), nil),
	}

	var buf bytes.Buffer
	PrintQueue(&buf, jobs)

	want := strings.Join([]string{
		"Cluster.Proc : St : HH:MM:SS : Input",
		"   1234.0    : R  : 03:25:07 : 42",
		"   1234.1    : I  : 00:00:00 : b",
		"     99.12   : 9  : 00:00:00 : ",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("PrintQueue() mismatch (-want +got):\n%s", diff)
	}
}

func TestMyQueueConstraint(t *testing.T) {
	f := newFake()
	m := New(f, "me", "spa.umn.edu")

	if _, err := m.MyQueue(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.MyQueue(context.Background(), "(JobStatus == 5)"); err != nil {
		t.Fatal(err)
	}
	want := []string{`(Owner == "me")`, `((Owner == "me") && (JobStatus == 5))`}
	if diff := cmp.Diff(want, f.constraints); diff != "" {
		t.Errorf("constraints mismatch (-want +got):\n%s", diff)
	}
}

func TestHosts(t *testing.T) {
	f := newFake(
		job(1, 0, scheduler.StatusRunning, scheduler.JobAd{"RemoteHost": "slot1@scorpion3.spa.umn.edu"}),
		job(1, 1, scheduler.StatusRunning, scheduler.JobAd{"RemoteHost": "slot1_4@scorpion3.spa.umn.edu"}),
		job(1, 2, scheduler.StatusHeld, scheduler.JobAd{"LastRemoteHost": "slot2@scorpion7.spa.umn.edu", "RemoteHost": "ignored"}),
		job(1, 3, scheduler.StatusHeld, nil),
	)
	m := New(f, "me", "spa.umn.edu")

	got, err := m.Hosts(context.Background(), HostFilter{}, "")
	if err != nil {
		t.Fatalf("Hosts() error = %v", err)
	}
	want := map[string]int{"scorpion3": 2, "scorpion7": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Hosts() mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	PrintHosts(&buf, got)
	if buf.String() != "scorpion3            : 2\nscorpion7            : 1\n" {
		t.Errorf("PrintHosts() = %q", buf.String())
	}
}

func TestHostFilterConstraint(t *testing.T) {
	tests := []struct {
		filter HostFilter
		want   string
	}{
		{HostFilter{}, "((JobStatus == 5) || (JobStatus == 2))"},
		{HostFilter{HeldOnly: true, RunningOnly: true}, "((JobStatus == 5) || (JobStatus == 2))"},
		{HostFilter{HeldOnly: true}, "(JobStatus == 5)"},
		{HostFilter{RunningOnly: true}, "(JobStatus == 2)"},
	}
	for _, tt := range tests {
		if got := tt.filter.constraint(); got != tt.want {
			t.Errorf("%+v.constraint() = %q; want %q", tt.filter, got, tt.want)
		}
	}
}

func TestShortHostName(t *testing.T) {
	tests := map[string]string{
		"slot1@scorpion3.spa.umn.edu":   "scorpion3",
		"slot1_2@scorpion3.spa.umn.edu": "scorpion3",
		"scorpion3.spa.umn.edu":         "scorpion3",
		"node.other.org":                "node.other.org",
		"":                              "",
	}
	for in, want := range tests {
		if got := ShortHostName(in, "spa.umn.edu"); got != want {
			t.Errorf("ShortHostName(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestBanMachine(t *testing.T) {
	f := newFake(
		job(5, 0, scheduler.StatusIdle, scheduler.JobAd{"Requirements": `/Expr((Machine != "caffeine.spa.umn.edu"))/`}),
		job(5, 1, scheduler.StatusHeld, nil),
	)
	m := New(f, "me", "spa.umn.edu")

	n, err := m.BanMachine(context.Background(), "scorpion43")
	if err != nil {
		t.Fatalf("BanMachine() error = %v", err)
	}
	if n != 2 {
		t.Errorf("BanMachine() edited %d jobs; want 2", n)
	}
	want := []string{
		`5.0 Requirements ((Machine != "caffeine.spa.umn.edu")) && (Machine != "scorpion43.spa.umn.edu")`,
		`5.1 Requirements (Machine != "scorpion43.spa.umn.edu")`,
	}
	if diff := cmp.Diff(want, f.Edits); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestBulkActions(t *testing.T) {
	f := newFake()
	m := New(f, "me", "")
	ctx := context.Background()

	if err := m.RemoveAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.RemoveHeld(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.ReleaseAll(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{
		`remove (Owner == "me")`,
		`remove ((Owner == "me") && (JobStatus == 5))`,
		`release (Owner == "me")`,
	}
	if diff := cmp.Diff(want, f.Actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	for _, r := range f.reasons {
		if r != "me asked me to." {
			t.Errorf("reason = %q; want %q", r, "me asked me to.")
		}
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	f := newFake(job(1, 0, scheduler.StatusIdle, nil))
	m := New(f, "me", "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	if err := m.Watch(ctx, &buf, 10*time.Millisecond); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if n := strings.Count(buf.String(), "Cluster.Proc"); n < 2 {
		t.Errorf("queue printed %d times; want at least 2", n)
	}
}
