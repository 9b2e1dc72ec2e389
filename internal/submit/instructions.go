// Package submit builds the HTCondor job description for a batch of ldmx-sw
// jobs, decides what each job runs over and hands the result to a scheduler.
package submit

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/umn-ldmx/ldmx-batch/internal/batch"
	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var (
	// ErrAlreadyDefined is returned when a second Run* call tries to replace the job items.
	ErrAlreadyDefined = errors.New("already defined how these jobs should run")

	// ErrNoMachines is returned by UseMachines with an empty list.
	ErrNoMachines = errors.New("no machines given")
)

// Options configure NewJobInstructions.
type Options struct {
	RunScript    string // Executable run on the worker node
	OutputDir    string // Relative paths are taken under HdfsDir
	EnvScript    string // Environment script sourced by the run script
	Config       string // ldmx-sw python config, copied to <out>/detail/config.py
	InputArgName string // Passed to the config right before the per-job input
	ExtraArgs    string // Extra config arguments, passed before InputArgName

	HdfsDir        string
	ScratchRoot    string
	MachineDomain  string
	CondorGroup    string
	BannedMachines []string
}

// OptionsFromConfig fills the site part of Options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		RunScript:      cfg.RunScript,
		HdfsDir:        cfg.HdfsDir,
		ScratchRoot:    cfg.ScratchRoot,
		MachineDomain:  cfg.MachineDomain,
		CondorGroup:    cfg.CondorGroup,
		BannedMachines: cfg.BannedMachines,
	}
}

// JobInstructions is a job description plus the list of items HTCondor loops over.
type JobInstructions struct {
	desc      *scheduler.Description
	opts      Options
	outDir    string
	detailDir string
	items     []scheduler.Item
	defined   bool
	clusterID int
}

// NewJobInstructions prepares the output directory and the base description.
func NewJobInstructions(opts Options) (*JobInstructions, error) {
	outDir, err := utils.FullDir(opts.OutputDir, opts.HdfsDir, true)
	if err != nil {
		return nil, err
	}
	if !isUnder(outDir, opts.HdfsDir) {
		utils.PrintWarning("You are writing output files to a directory that is *not* in %s.", utils.StylePath(opts.HdfsDir))
	}

	detailDir, err := utils.FullDir(filepath.Join(outDir, "detail"), "", true)
	if err != nil {
		return nil, err
	}

	if err := utils.CheckExists(opts.EnvScript); err != nil {
		return nil, fmt.Errorf("environment script: %w", err)
	}

	configPath, err := utils.FullFile(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("config script: %w", err)
	}
	if err := utils.CopyFile(configPath, filepath.Join(detailDir, "config.py")); err != nil {
		return nil, err
	}

	executable, err := utils.FullFile(opts.RunScript)
	if err != nil {
		return nil, fmt.Errorf("run script: %w", err)
	}

	args := fmt.Sprintf("$(scratch_root)/$(Cluster)-$(Process) $(env_script) $(config_script) $(output_dir) %s %s",
		opts.ExtraArgs, opts.InputArgName)

	j := &JobInstructions{
		opts:      opts,
		outDir:    outDir,
		detailDir: detailDir,
		desc: scheduler.NewDescription(
			"universe", "vanilla",
			"+CondorGroup", scheduler.Quote(opts.CondorGroup),
			"on_exit_hold", "(ExitCode != 0)",
			"on_exit_hold_subcode", "ExitCode",
			"on_exit_hold_reason", scheduler.Quote(filepath.Base(executable)+" returned non-zero exit code (stored in HoldReasonSubCode)"),
			"nice_user", "True",
			"output_dir", outDir,
			"env_script", opts.EnvScript,
			"scratch_root", opts.ScratchRoot,
			"config_script", "$(output_dir)/detail/config.py",
			"executable", executable,
			"arguments", args,
		),
	}
	for _, m := range opts.BannedMachines {
		j.BanMachine(m)
	}
	return j, nil
}

// isUnder reports whether path lies inside root.
func isUnder(path, root string) bool {
	if root == "" {
		return false
	}
	if full, err := filepath.EvalSymlinks(root); err == nil {
		root = full
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Description returns the underlying job description.
func (j *JobInstructions) Description() *scheduler.Description { return j.desc }

// Items returns one variable set per job, nil until a Run* method is called.
func (j *JobInstructions) Items() []scheduler.Item { return j.items }

// OutputDir returns the resolved output directory.
func (j *JobInstructions) OutputDir() string { return j.outDir }

// DetailDir returns <output dir>/detail.
func (j *JobInstructions) DetailDir() string { return j.detailDir }

// ClusterID returns the cluster the jobs were submitted as, 0 before Submit.
func (j *JobInstructions) ClusterID() int { return j.clusterID }

// Memory sets request_memory. "4G" means 4096 MB, a bare number is MB.
func (j *JobInstructions) Memory(size string) error {
	mb, err := utils.ParseSizeToMB(size)
	if err != nil {
		return err
	}
	j.desc.Set("request_memory", strconv.FormatInt(mb, 10))
	return nil
}

// Disk sets request_disk in KiB.
func (j *JobInstructions) Disk(size string) error {
	kb, err := utils.ParseSizeToKB(size)
	if err != nil {
		return err
	}
	j.desc.Set("request_disk", strconv.FormatInt(kb, 10))
	return nil
}

// Nice sets nice_user. Jobs should almost always be nice.
func (j *JobInstructions) Nice(beNice bool) {
	if beNice {
		j.desc.Set("nice_user", "True")
	} else {
		j.desc.Set("nice_user", "False")
	}
}

// BanMachine keeps the jobs off machine.
func (j *JobInstructions) BanMachine(machine string) {
	expr := scheduler.DontUseMachine(machine, j.opts.MachineDomain)
	if req, ok := j.desc.Get("requirements"); ok && req != "" {
		j.desc.Set("requirements", req+" && "+expr)
		return
	}
	j.desc.Set("requirements", expr)
}

// UseMachines restricts the jobs to the listed machines only.
func (j *JobInstructions) UseMachines(machines []string) error {
	if len(machines) == 0 {
		return ErrNoMachines
	}
	exprs := make([]string, len(machines))
	for i, m := range machines {
		exprs[i] = scheduler.UseMachine(m, j.opts.MachineDomain)
	}
	j.desc.Set("requirements", strings.Join(exprs, " || "))
	return nil
}

// Sleep delays the start of each job by seconds after the previous one.
func (j *JobInstructions) Sleep(seconds int) {
	j.desc.Set("next_job_start_delay", strconv.Itoa(seconds))
}

// PeriodicRelease releases jobs held because the run script exited with 99,
// which it does when the worker is missing hdfs or cvmfs.
func (j *JobInstructions) PeriodicRelease() {
	j.desc.Set("periodic_release", scheduler.And("(HoldReasonSubCode == 99)", "(HoldReasonCode == 3)"))
}

// SaveOutput writes each job's terminal output to <dir>/<cluster>-<process>.out.
// Only for debugging: hundreds of jobs writing to one directory hurts the filesystem.
func (j *JobInstructions) SaveOutput(dir string) error {
	full, err := utils.FullDir(dir, j.opts.HdfsDir, true)
	if err != nil {
		return err
	}
	out := filepath.Join(full, "$(Cluster)-$(Process).out")
	j.desc.Set("output", out)
	j.desc.Set("error", out)
	return nil
}

func (j *JobInstructions) define(arg string, items []scheduler.Item) {
	j.desc.Append("arguments", " $("+arg+")")
	j.items = items
	j.defined = true
}

// RunOverInputDirs makes one job per group of filesPerJob .root files found
// in dirs. maxJobs > 0 caps the number of jobs.
func (j *JobInstructions) RunOverInputDirs(dirs []string, filesPerJob, maxJobs int) error {
	if j.defined {
		return ErrAlreadyDefined
	}

	full := make([]string, 0, len(dirs))
	for _, d := range dirs {
		fd, err := utils.FullDir(d, j.opts.HdfsDir, false)
		if err != nil {
			return err
		}
		if !isUnder(fd, j.opts.HdfsDir) {
			utils.PrintWarning("You are running jobs over files in a directory *not* in %s.", utils.StylePath(j.opts.HdfsDir))
		}
		full = append(full, fd)
	}

	files, err := batch.ListRootFiles(full)
	if err != nil {
		return err
	}
	groups, err := batch.PartitionFiles(files, filesPerJob)
	if err != nil {
		return err
	}
	if maxJobs > 0 && len(groups) > maxJobs {
		utils.PrintWarning("%d jobs over the input files exceeds the maximum of %d, only the first %d are kept.",
			len(groups), maxJobs, maxJobs)
		groups = groups[:maxJobs]
	}

	items := make([]scheduler.Item, len(groups))
	for i, g := range groups {
		items[i] = scheduler.Item{"input_files": g}
	}
	j.define("input_files", items)
	return nil
}

// RunRefill makes one job per run number missing from the output directory.
func (j *JobInstructions) RunRefill() error {
	if j.defined {
		return ErrAlreadyDefined
	}
	missing, err := batch.MissingInDir(j.outDir)
	if err != nil {
		if errors.Is(err, batch.ErrNoRuns) {
			return fmt.Errorf("cannot refill %s: %w", j.outDir, err)
		}
		return err
	}
	j.define("run_number", runItems(missing))
	return nil
}

// RunNumbers makes count jobs with run numbers start, start+1, ...
func (j *JobInstructions) RunNumbers(start, count int) error {
	if j.defined {
		return ErrAlreadyDefined
	}
	if count < 0 {
		return fmt.Errorf("number of jobs must not be negative, got %d", count)
	}
	runs := make([]int, count)
	for i := range runs {
		runs[i] = start + i
	}
	j.define("run_number", runItems(runs))
	return nil
}

func runItems(runs []int) []scheduler.Item {
	items := make([]scheduler.Item, len(runs))
	for i, r := range runs {
		items[i] = scheduler.Item{"run_number": strconv.Itoa(r)}
	}
	return items
}

// Submit hands the jobs to sched and writes detail/submit.<cluster>.log.
func (j *JobInstructions) Submit(ctx context.Context, sched scheduler.Scheduler) (int, error) {
	if len(j.items) == 0 {
		return 0, scheduler.ErrNoJobs
	}
	id, err := sched.Submit(ctx, j.desc, j.items)
	if err != nil {
		return 0, err
	}
	j.clusterID = id
	utils.PrintSuccess("Submitted to Cluster %s", utils.StyleNumber(id))

	logPath := filepath.Join(j.detailDir, fmt.Sprintf("submit.%d.log", id))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, utils.PermFile)
	if err != nil {
		return id, fmt.Errorf("failed to write submission log: %w", err)
	}
	if err := j.writeLog(f); err != nil {
		f.Close()
		return id, fmt.Errorf("failed to write submission log: %w", err)
	}
	if err := f.Close(); err != nil {
		return id, err
	}
	utils.PrintDebug("Submission logged to %s", utils.StylePath(logPath))
	return id, nil
}

// PrintItems writes the job items, one per line.
func (j *JobInstructions) PrintItems() {
	for i, it := range j.items {
		pairs := make([]string, 0, len(it))
		for _, k := range slices.Sorted(maps.Keys(it)) {
			pairs = append(pairs, k+"="+it[k])
		}
		fmt.Fprintf(utils.Stdout, "%4d: %s\n", i, strings.Join(pairs, " "))
	}
}

// SubmitInteractive shows the description and the items, asking before each
// step, submits, then offers to run watch. Quitting at a prompt returns utils.ErrQuit.
func (j *JobInstructions) SubmitInteractive(ctx context.Context, sched scheduler.Scheduler, watch func(context.Context) error) (int, error) {
	fmt.Fprint(utils.Stdout, j.desc.String())
	if err := utils.PauseBefore(ctx, "see Queue-ing list"); err != nil {
		return 0, err
	}
	j.PrintItems()
	if err := utils.PauseBefore(ctx, "submit"); err != nil {
		return 0, err
	}

	id, err := j.Submit(ctx, sched)
	if err != nil {
		return id, err
	}

	if watch == nil || utils.ShouldAnswerYes() {
		return id, nil
	}
	if err := utils.PauseBefore(ctx, "watch jobs"); err != nil {
		if errors.Is(err, utils.ErrQuit) {
			return id, nil
		}
		return id, err
	}
	return id, watch(ctx)
}
