package scheduler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDescriptionOrder(t *testing.T) {
	d := NewDescription("universe", "vanilla", "executable", "/bin/run.sh")
	d.Set("arguments", "a")
	d.Set("universe", "local")
	d.Append("arguments", " $(run_number)")

	want := "universe = local\nexecutable = /bin/run.sh\narguments = a $(run_number)\n"
	if diff := cmp.Diff(want, d.String()); diff != "" {
		t.Errorf("String() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"universe", "executable", "arguments"}, d.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	d.Delete("executable")
	d.Delete("never_set")
	if d.Len() != 2 {
		t.Errorf("Len() after Delete = %d; want 2", d.Len())
	}
	if _, ok := d.Get("executable"); ok {
		t.Error("Get(executable) found a deleted attribute")
	}
}

func TestDescriptionOddAttrs(t *testing.T) {
	d := NewDescription("universe", "vanilla", "dangling")
	if d.Len() != 1 {
		t.Errorf("Len() = %d; want 1 (dangling key ignored)", d.Len())
	}
}

func TestDescriptionExpand(t *testing.T) {
	d := NewDescription(
		"output_dir", "/hdfs/out",
		"scratch_root", "/scratch/me",
		"config_script", "$(output_dir)/detail/config.py",
		"loop", "$(loop)x",
		"Mixed_Case", "yes",
	)

	tests := []struct {
		name  string
		value string
		vars  map[string]string
		want  string
	}{
		{"plain", "no macros", nil, "no macros"},
		{"nested", "$(config_script)", nil, "/hdfs/out/detail/config.py"},
		{"vars win", "$(output_dir)", map[string]string{"output_dir": "/other"}, "/other"},
		{"job ids", "$(scratch_root)/$(Cluster)-$(Process)", map[string]string{"Cluster": "12", "Process": "3"}, "/scratch/me/12-3"},
		{"unknown kept", "$(nope) $(run_number)", map[string]string{"run_number": "7"}, "$(nope) 7"},
		{"self reference", "$(loop)", nil, "$(loop)x"},
		{"case insensitive", "$(mixed_case)", nil, "yes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Expand(tt.value, tt.vars); got != tt.want {
				t.Errorf("Expand(%q) = %q; want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestClassAdHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"quote", Quote(`a "b" \c`), `"a \"b\" \\c"`},
		{"dont use", DontUseMachine("zebra01", "spa.umn.edu"), `(Machine != "zebra01.spa.umn.edu")`},
		{"use fqdn", UseMachine("node.other.org", "spa.umn.edu"), `(Machine == "node.other.org")`},
		{"no domain", MachineName("caffeine", ""), "caffeine"},
		{"and", And("a", "", "b"), "(a && b)"},
		{"and single", And("", "a"), "a"},
		{"or empty", Or(), ""},
		{"or", Or("x", "y", "z"), "(x || y || z)"},
		{"owner", OwnerIs("me"), `(Owner == "me")`},
		{"status", StatusIs(StatusHeld), "(JobStatus == 5)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q; want %q", tt.got, tt.want)
			}
		})
	}
}

func TestJobStatusLetter(t *testing.T) {
	want := map[JobStatus]string{
		StatusIdle:         "I",
		StatusRunning:      "R",
		StatusRemoving:     "E",
		StatusCompleted:    "C",
		StatusHeld:         "H",
		StatusTransferring: "T",
		StatusSuspended:    "S",
		JobStatus(9):       "9",
	}
	for status, letter := range want {
		if got := status.Letter(); got != letter {
			t.Errorf("JobStatus(%d).Letter() = %q; want %q", status, got, letter)
		}
	}
}

func TestJobAdAccessors(t *testing.T) {
	ads, err := parseJobAds([]byte(`[{"ClusterId": 7, "ProcId": 2, "JobStatus": 1, "Args": "x y", "RemoteWallClockTime": 61.0}]`))
	if err != nil {
		t.Fatalf("parseJobAds() error = %v", err)
	}
	ad := ads[0]
	if ad.ID() != "7.2" {
		t.Errorf("ID() = %q; want 7.2", ad.ID())
	}
	if ad.Status() != StatusIdle {
		t.Errorf("Status() = %d; want idle", ad.Status())
	}
	if ad.Int("RemoteWallClockTime") != 61 {
		t.Errorf("Int(RemoteWallClockTime) = %d; want 61", ad.Int("RemoteWallClockTime"))
	}
	if ad.String("Args") != "x y" || ad.String("Missing") != "" {
		t.Errorf("String() accessors wrong: %q %q", ad.String("Args"), ad.String("Missing"))
	}
}

func TestDryRunScheduler(t *testing.T) {
	d := NewDryRunScheduler(100)
	desc := NewDescription("executable", "/bin/true")

	first, err := d.Submit(t.Context(), desc, []Item{{"run_number": "1"}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	second, _ := d.Submit(t.Context(), desc, []Item{{"run_number": "2"}})
	if first != 100 || second != 101 {
		t.Errorf("cluster ids = %d, %d; want 100, 101", first, second)
	}
	if len(d.Submissions) != 2 || d.Submissions[0].Description != desc.String() {
		t.Errorf("Submissions not recorded: %+v", d.Submissions)
	}

	if _, err := d.Submit(t.Context(), desc, nil); err != ErrNoJobs {
		t.Errorf("Submit(nil) error = %v; want ErrNoJobs", err)
	}
	if err := d.Act(t.Context(), ActionRemove, "true", "r"); err != nil || len(d.Actions) != 1 {
		t.Errorf("Act() = %v, actions %v", err, d.Actions)
	}
}

func TestJobAdExpr(t *testing.T) {
	ad := JobAd{
		"Requirements": `/Expr((Machine != "a.b"))/`,
		"Plain":        "x == 1",
	}
	if got := ad.Expr("Requirements"); got != `(Machine != "a.b")` {
		t.Errorf("Expr(Requirements) = %q", got)
	}
	if got := ad.Expr("Plain"); got != "x == 1" {
		t.Errorf("Expr(Plain) = %q", got)
	}
}
