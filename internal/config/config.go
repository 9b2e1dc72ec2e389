package config

import (
	"os"
	"os/user"
	"path/filepath"
)

const VERSION = "0.3.0"

// SubmitDefaults are the fallback values for the submit command flags.
type SubmitDefaults struct {
	FilesPerJob int
	MaxNumJobs  int
	MaxMemory   string
	MaxDisk     string
	Sleep       int
}

// PickConfig controls the --check-n-pick machine probe.
type PickConfig struct {
	HostPrefix string
	Count      int
	CheckCmd   string
}

// Config holds global application settings
type Config struct {
	Debug   bool
	Version string
	User    string

	HdfsDir     string // Relative output/input dirs are resolved under this
	LocalDir    string // Holds stable-installs/<version>/setup.sh and legacy simulation output
	ScratchRoot string // Worker-side scratch area for job working directories

	MachineDomain  string   // Appended to short machine names in requirements
	CondorGroup    string   // Accounting group for +CondorGroup
	BannedMachines []string // Always excluded from requirements
	RunScript      string   // Executable run on the worker nodes
	SchedulerBin   string   // Explicit condor_submit path (empty = PATH lookup)

	Submit SubmitDefaults
	Pick   PickConfig
}

// Global holds the singleton configuration instance
var Global Config

// CurrentUser returns the login name of the invoking user.
func CurrentUser() string {
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "nobody"
}

// LoadDefaults fills Global with the site defaults for the given user.
// The run script defaults to run_fire.sh next to the executable.
func LoadDefaults(executablePath string) {
	name := CurrentUser()

	Global = Config{
		Version: VERSION,
		User:    name,

		HdfsDir:     filepath.Join("/hdfs/cms/user", name, "ldmx"),
		LocalDir:    filepath.Join("/local/cms/user", name, "ldmx"),
		ScratchRoot: filepath.Join("/export/scratch/users", name),

		MachineDomain:  "spa.umn.edu",
		CondorGroup:    "cmsfarm",
		BannedMachines: []string{"caffeine", "zebra01", "zebra02", "zebra03", "zebra04"},
		RunScript:      filepath.Join(filepath.Dir(executablePath), "run_fire.sh"),

		Submit: SubmitDefaults{
			FilesPerJob: 10,
			MaxNumJobs:  1000,
			MaxMemory:   "4G",
			MaxDisk:     "4G",
			Sleep:       5,
		},
		Pick: PickConfig{
			HostPrefix: "scorpion",
			Count:      48,
			CheckCmd:   "if [[ -d /cvmfs/cms.cern.ch && -d /hdfs/cms/user ]]; then exit 0; else exit 1; fi",
		},
	}
}

// EnvScriptForVersion returns the pre-made environment script of an
// installed ldmx-sw version.
func EnvScriptForVersion(version string) string {
	return filepath.Join(Global.LocalDir, "stable-installs", version, "setup.sh")
}
