package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/manage"
	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/submit"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// submitOptions holds the flags of the submit command.
type submitOptions struct {
	config      string
	outDir      string
	envScript   string
	ldmxVersion string

	inputDirs []string
	numJobs   int
	refill    bool

	inputArgName string
	startJob     int
	filesPerJob  int
	maxNumJobs   int

	runScript       string
	configArgs      string
	nocheck         bool
	test            bool
	saveOutput      string
	nonice          bool
	sleep           int
	maxMemory       sizeValue
	maxDisk         sizeValue
	periodicRelease bool

	brokenMachines  []string
	useableMachines []string
	checkNPick      bool
}

var submitFlags submitOptions

var submitCmd = &cobra.Command{
	Use:   "submit -c CONFIG -o OUT_DIR (-e ENV_SCRIPT | -l LDMX_VERSION) (-i INPUT_DIR... | -n NUM_JOBS | -r)",
	Short: "Submit a batch of jobs running the ldmx-sw application",
	Long: `Submit a batch of jobs running the ldmx-sw application through the run script.

Each job runs the config script once. The jobs differ by their last argument:
  -i  a group of --files-per-job .root files from the input directories
  -n  a run number counting up from --start-job
  -r  a run number missing between the smallest and largest run in OUT_DIR

Relative OUT_DIR and INPUT_DIR paths are taken under the configured hdfs directory.
The config script is copied to OUT_DIR/detail/config.py and every submission
is logged to OUT_DIR/detail/submit.<cluster>.log.`,
	Example: `  ldmx-batch submit -c ecal_pn.py -o ecal_pn/v12 -l v2.3.0 -n 100
  ldmx-batch submit -c recon.py -o recon/v12 -e ~/setup.sh -i ecal_pn/v12 --files-per-job 5
  ldmx-batch submit -c ecal_pn.py -o ecal_pn/v12 -l v2.3.0 --refill --nocheck`,
	Args: cobra.ArbitraryArgs,
	RunE: runSubmit,
}

func init() {
	f := submitCmd.Flags()
	f.StringVarP(&submitFlags.config, "config", "c", "", "Python configuration script to run")
	f.StringVarP(&submitFlags.outDir, "out-dir", "o", "", "Directory to copy output to (relative paths are under the hdfs directory)")
	f.StringVarP(&submitFlags.envScript, "env-script", "e", "", "Environment script to run before running fire")
	f.StringVarP(&submitFlags.ldmxVersion, "ldmx-version", "l", "", "LDMX version to pick a pre-made environment script")

	f.StringSliceVarP(&submitFlags.inputDirs, "input-dir", "i", nil, "Directories containing input files to run over")
	f.IntVarP(&submitFlags.numJobs, "num-jobs", "n", 0, "Number of jobs to run (if no input directory given)")
	f.BoolVarP(&submitFlags.refill, "refill", "r", false, "Re-run any run numbers missing from the output directory")

	f.StringVar(&submitFlags.inputArgName, "input-arg-name", "", "Argument the config script expects before the input files or run number")
	f.IntVar(&submitFlags.startJob, "start-job", 0, "First run number when counting jobs")
	f.IntVar(&submitFlags.filesPerJob, "files-per-job", 0, "Input files grouped into each job (default from config)")
	f.IntVar(&submitFlags.maxNumJobs, "max-num-jobs", 0, "Maximum number of input-directory jobs to submit at once (default from config)")

	f.StringVar(&submitFlags.runScript, "run-script", "", "Script to run jobs on worker nodes with (default from config)")
	f.StringVar(&submitFlags.configArgs, "config-args", "", "Extra arguments passed to the configuration script")
	f.BoolVar(&submitFlags.nocheck, "nocheck", false, "Don't pause to look at job details before submitting")
	f.BoolVar(&submitFlags.test, "test", false, "Print job details, don't submit")
	f.StringVar(&submitFlags.saveOutput, "save-output", "", "Save terminal output of every job to this directory (debugging only)")
	f.BoolVar(&submitFlags.nonice, "nonice", false, "Do not run at nice priority")
	f.IntVar(&submitFlags.sleep, "sleep", 0, "Seconds to wait before starting the next job (default from config)")
	f.Var(&submitFlags.maxMemory, "max-memory", "Maximum memory per job, e.g. 4G or 500M (default from config)")
	f.Var(&submitFlags.maxDisk, "max-disk", "Maximum disk per job, e.g. 4G (default from config)")
	f.BoolVar(&submitFlags.periodicRelease, "periodic-release", false, "Release jobs held because the worker lacked cvmfs or hdfs")

	f.StringSliceVar(&submitFlags.brokenMachines, "broken-machines", nil, "Extra machines to avoid, e.g. scorpion34,scorpion17")
	f.StringSliceVar(&submitFlags.useableMachines, "useable-machines", nil, "Only run on these machines")
	f.BoolVar(&submitFlags.checkNPick, "check-n-pick", false, "Ban every machine that fails the cvmfs/hdfs check over ssh")

	submitCmd.MarkFlagRequired("config")
	submitCmd.MarkFlagRequired("out-dir")
	submitCmd.MarkFlagsMutuallyExclusive("env-script", "ldmx-version")
	submitCmd.MarkFlagsOneRequired("env-script", "ldmx-version")
	submitCmd.MarkFlagsMutuallyExclusive("input-dir", "num-jobs", "refill")
	submitCmd.MarkFlagsOneRequired("input-dir", "num-jobs", "refill")
	submitCmd.MarkFlagsMutuallyExclusive("broken-machines", "useable-machines", "check-n-pick")

	submitCmd.MarkFlagFilename("config", "py")
	submitCmd.MarkFlagDirname("out-dir")
	submitCmd.MarkFlagDirname("input-dir")
	submitCmd.RegisterFlagCompletionFunc("ldmx-version", ldmxVersionCompletion)
	submitCmd.RegisterFlagCompletionFunc("max-memory", sizeCompletion)
	submitCmd.RegisterFlagCompletionFunc("max-disk", sizeCompletion)

	rootCmd.AddCommand(submitCmd)
}

// applySubmitDefaults fills flags the user left unset from the configuration.
func applySubmitDefaults(cmd *cobra.Command, o *submitOptions) {
	d := config.Global.Submit
	if !cmd.Flags().Changed("files-per-job") {
		o.filesPerJob = d.FilesPerJob
	}
	if !cmd.Flags().Changed("max-num-jobs") {
		o.maxNumJobs = d.MaxNumJobs
	}
	if !cmd.Flags().Changed("sleep") {
		o.sleep = d.Sleep
	}
	if !cmd.Flags().Changed("max-memory") {
		o.maxMemory = sizeValue(d.MaxMemory)
	}
	if !cmd.Flags().Changed("max-disk") {
		o.maxDisk = sizeValue(d.MaxDisk)
	}
	if o.runScript == "" {
		o.runScript = config.Global.RunScript
	}
}

func runSubmit(cmd *cobra.Command, args []string) error {
	o := submitFlags
	applySubmitDefaults(cmd, &o)

	// Extra positional arguments continue the -i list, like "-i dir1 dir2".
	if len(args) > 0 {
		if len(o.inputDirs) == 0 {
			return fmt.Errorf("unexpected arguments %v", args)
		}
		o.inputDirs = append(o.inputDirs, args...)
	}
	if o.numJobs < 0 {
		return fmt.Errorf("number of jobs must not be negative, got %d", o.numJobs)
	}

	j, err := buildJobInstructions(cmd.Context(), &o)
	if err != nil {
		return err
	}

	if o.test {
		fmt.Fprint(utils.Stdout, j.Description().String())
		j.PrintItems()
		utils.PrintNote("Test mode: %d jobs not submitted", len(j.Items()))
		return nil
	}

	sched, err := activeScheduler()
	if err != nil {
		return err
	}

	if o.nocheck {
		_, err = j.Submit(cmd.Context(), sched)
	} else {
		m := manage.New(sched, config.Global.User, config.Global.MachineDomain)
		_, err = j.SubmitInteractive(cmd.Context(), sched, func(ctx context.Context) error {
			return m.Watch(ctx, utils.Stdout, 30*time.Second)
		})
	}
	switch {
	case errors.Is(err, scheduler.ErrNoJobs):
		utils.PrintWarning("Nothing to submit")
		return nil
	case errors.Is(err, utils.ErrQuit):
		utils.PrintMessage("Stopped before submitting")
		return nil
	}
	return err
}

// buildJobInstructions turns the flags into job instructions with items defined.
func buildJobInstructions(ctx context.Context, o *submitOptions) (*submit.JobInstructions, error) {
	envScript, err := resolveEnvScript(o.envScript, o.ldmxVersion)
	if err != nil {
		return nil, err
	}

	opts := submit.OptionsFromConfig(&config.Global)
	opts.RunScript = o.runScript
	opts.OutputDir = o.outDir
	opts.EnvScript = envScript
	opts.Config = o.config
	opts.InputArgName = o.inputArgName
	opts.ExtraArgs = o.configArgs

	j, err := submit.NewJobInstructions(opts)
	if err != nil {
		return nil, err
	}
	if err := j.Memory(o.maxMemory.String()); err != nil {
		return nil, err
	}
	if err := j.Disk(o.maxDisk.String()); err != nil {
		return nil, err
	}
	j.Nice(!o.nonice)
	j.Sleep(o.sleep)

	switch {
	case o.checkNPick:
		utils.PrintMessage("Checking %s1-%d for cvmfs and hdfs...", config.Global.Pick.HostPrefix, config.Global.Pick.Count)
		broken, err := submit.BrokenMachines(ctx, config.Global.Pick, submit.SSHProbe)
		if err != nil {
			return nil, err
		}
		for _, m := range broken {
			utils.PrintWarning("Banning %s", utils.StyleName(m))
			j.BanMachine(m)
		}
	case len(o.brokenMachines) > 0:
		for _, m := range o.brokenMachines {
			j.BanMachine(m)
		}
	case len(o.useableMachines) > 0:
		if err := j.UseMachines(o.useableMachines); err != nil {
			return nil, err
		}
	}

	if o.periodicRelease {
		j.PeriodicRelease()
	}
	if o.saveOutput != "" {
		if err := j.SaveOutput(o.saveOutput); err != nil {
			return nil, err
		}
	}

	switch {
	case len(o.inputDirs) > 0:
		err = j.RunOverInputDirs(o.inputDirs, o.filesPerJob, o.maxNumJobs)
	case o.refill:
		err = j.RunRefill()
	default:
		err = j.RunNumbers(o.startJob, o.numJobs)
	}
	if err != nil {
		return nil, err
	}
	return j, nil
}
