package simjob

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		JobName:        "ecal_pn",
		NumEvents:      1000,
		OutputRoot:     t.TempDir(),
		ScratchRoot:    "/export/scratch/users/me",
		SetupScript:    "/home/me/bin/ldmx-sw_setup.sh",
		CondorGroup:    "cmsfarm",
		MachineDomain:  "spa.umn.edu",
		BannedMachines: []string{"zebra02"},
		Nice:           true,
		Seed:           42,
	}
}

func TestNumJobsFor(t *testing.T) {
	tests := []struct {
		explicit, lhe, want int
	}{
		{5, 0, 5},
		{5, 3, 5},
		{0, 3, 3},
		{0, 0, 1},
		{-1, 0, 1},
	}
	for _, tt := range tests {
		if got := NumJobsFor(tt.explicit, tt.lhe); got != tt.want {
			t.Errorf("NumJobsFor(%d, %d) = %d; want %d", tt.explicit, tt.lhe, got, tt.want)
		}
	}
}

func TestWrite(t *testing.T) {
	o := testOptions(t)
	o.NumJobs = 3
	o.Pileup = 2
	o.Poisson = true

	b, err := Write(o)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	for _, sub := range []string{"condor", "logs", "mac"} {
		if info, err := os.Stat(filepath.Join(b.Dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("%s directory missing", sub)
		}
	}

	info, err := os.Stat(b.Script)
	if err != nil {
		t.Fatalf("runJob.sh missing: %v", err)
	}
	if info.Mode().Perm()&0100 == 0 {
		t.Errorf("runJob.sh mode = %v; want user executable", info.Mode())
	}
	script, _ := os.ReadFile(b.Script)
	if !strings.Contains(string(script), "ldmx-det-full-v3-fieldmap") {
		t.Errorf("runJob.sh lacks default geometry:\n%s", script)
	}

	summary, err := scheduler.ReadSubmitFile(b.SubmitFile)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Executable != b.Script || summary.Queued != 3 {
		t.Errorf("submit file = %+v; want 3 jobs of %s", summary, b.Script)
	}
	if summary.Arguments[2] != "ecal_pn_0002 "+b.Dir {
		t.Errorf("third Arguments = %q", summary.Arguments[2])
	}
	sub, _ := os.ReadFile(b.SubmitFile)
	for _, want := range []string{"nice_user = True\n", `(Machine != "zebra02.spa.umn.edu")`, "Request_Memory = 1 Gb\n"} {
		if !strings.Contains(string(sub), want) {
			t.Errorf("submit file lacks %q:\n%s", want, sub)
		}
	}

	if len(b.Macros) != 3 {
		t.Fatalf("wrote %d macros; want 3", len(b.Macros))
	}
	mac, _ := os.ReadFile(b.Macros[0])
	for _, want := range []string{
		"/ldmx/generators/mpgun/enable\n",
		"/ldmx/generators/mpgun/enablePoisson\n",
		"/ldmx/generators/mpgun/nInteractions 3\n",
		"/run/beamOn 1000\n",
	} {
		if !strings.Contains(string(mac), want) {
			t.Errorf("macro lacks %q:\n%s", want, mac)
		}
	}
	if strings.Contains(string(mac), "lhe/open") || strings.Contains(string(mac), "DisablePhotoNuclear") {
		t.Errorf("macro has unexpected generator lines:\n%s", mac)
	}
}

func TestWriteSeeds(t *testing.T) {
	seedRe := regexp.MustCompile(`/random/setSeeds (\d+) (\d+)`)

	read := func(o Options) []string {
		o.NumJobs = 2
		b, err := Write(o)
		if err != nil {
			t.Fatal(err)
		}
		var seeds []string
		for _, m := range b.Macros {
			text, _ := os.ReadFile(m)
			match := seedRe.FindStringSubmatch(string(text))
			if match == nil {
				t.Fatalf("no seeds in %s", m)
			}
			seeds = append(seeds, match[1]+" "+match[2])
		}
		return seeds
	}

	a := read(testOptions(t))
	b := read(testOptions(t))
	if a[0] != b[0] || a[1] != b[1] {
		t.Errorf("same seed gave different macros: %v vs %v", a, b)
	}
	if a[0] == a[1] {
		t.Errorf("jobs share seeds %q", a[0])
	}
}

func TestWriteLHE(t *testing.T) {
	o := testOptions(t)
	o.LHEDir = t.TempDir() + "/"
	o.NoPN = true
	o.SmearBeam = true
	for _, name := range []string{"a.lhe", "b.lhe"} {
		os.WriteFile(filepath.Join(o.LHEDir, name), nil, 0644)
	}

	b, err := Write(o)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(b.Macros) != 2 {
		t.Fatalf("wrote %d macros; want one per LHE file", len(b.Macros))
	}
	mac, _ := os.ReadFile(b.Macros[1])
	lheDir := strings.TrimRight(o.LHEDir, "/")
	for _, want := range []string{
		"/ldmx/plugins/load DisablePhotoNuclear libSimPlugins.so\n",
		"/ldmx/generators/lhe/open " + lheDir + "/b.lhe\n",
		"/ldmx/generators/beamspot/enable\n",
	} {
		if !strings.Contains(string(mac), want) {
			t.Errorf("macro lacks %q:\n%s", want, mac)
		}
	}
	if strings.Contains(string(mac), "mpgun") {
		t.Errorf("LHE macro without pileup enables the particle gun:\n%s", mac)
	}
}

func TestWriteErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *Options)
		wantErr error
	}{
		{"negative events", func(o *Options) { o.NumEvents = -1 }, ErrNegative},
		{"negative jobs", func(o *Options) { o.NumJobs = -2 }, ErrNegative},
		{"negative pileup", func(o *Options) { o.Pileup = -1 }, ErrNegative},
		{"no job name", func(o *Options) { o.JobName = "" }, nil},
		{"missing lhe dir", func(o *Options) { o.LHEDir = "/nonexistent/lhe" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := testOptions(t)
			tt.modify(&o)
			_, err := Write(o)
			if err == nil {
				t.Fatal("Write() succeeded; want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Write() error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteExistingJob(t *testing.T) {
	o := testOptions(t)
	if _, err := Write(o); err != nil {
		t.Fatal(err)
	}
	if _, err := Write(o); !errors.Is(err, ErrJobExists) {
		t.Errorf("second Write() error = %v; want ErrJobExists", err)
	}
}
