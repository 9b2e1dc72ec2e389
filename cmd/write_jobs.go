package cmd

import (
	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/submit"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var writeJobsFlags struct {
	config      string
	outDir      string
	envScript   string
	ldmxVersion string
	inputDir    string
	numJobs     int
	configArgs  string
	startJob    int
	test        bool
	nonice      bool
	runScript   string
	tmpRoot     string
	sleep       int
	submit      bool
}

var writeJobsCmd = &cobra.Command{
	Use:   "write-jobs JOB_LIST",
	Short: "Write a plain condor submit file with one queue statement per job",
	Long: `Write JOB_LIST, a condor submit file listing every job explicitly.

Each job gets "--run_number <n>" counting up from --start-job. With --input-dir
each job also gets one file from the directory; --num-jobs then caps the count.
Unlike submit, relative paths are taken from the current directory.`,
	Example: `  ldmx-batch write-jobs jobs.sub -c sim.py -o out --ldmx-version v2.3.0 --num-jobs 10
  ldmx-batch write-jobs jobs.sub -c recon.py -o out --env-script setup.sh --input-dir in --submit`,
	Args: cobra.ExactArgs(1),
	RunE: runWriteJobs,
}

func init() {
	f := writeJobsCmd.Flags()
	f.StringVarP(&writeJobsFlags.config, "config", "c", "", "Config script to run")
	f.StringVarP(&writeJobsFlags.outDir, "out-dir", "o", "", "Directory to copy output to")
	f.StringVar(&writeJobsFlags.envScript, "env-script", "", "Environment script to run before running fire")
	f.StringVar(&writeJobsFlags.ldmxVersion, "ldmx-version", "", "LDMX version to pick a pre-made environment script")
	f.StringVar(&writeJobsFlags.inputDir, "input-dir", "", "Directory containing input files to run over")
	f.IntVar(&writeJobsFlags.numJobs, "num-jobs", 0, "Number of jobs to run")
	f.StringVar(&writeJobsFlags.configArgs, "config-args", "", "Extra arguments passed to the configuration script")
	f.IntVar(&writeJobsFlags.startJob, "start-job", 0, "Starting number when counting jobs and run numbers")
	f.BoolVarP(&writeJobsFlags.test, "test", "t", false, "Save the terminal output of every job to the current directory")
	f.BoolVar(&writeJobsFlags.nonice, "nonice", false, "Do not run at nice priority")
	f.StringVar(&writeJobsFlags.runScript, "run-script", "", "Script to run jobs on worker nodes with (default from config)")
	f.StringVar(&writeJobsFlags.tmpRoot, "tmp-root", "", "Directory to create working directories inside of (default from config)")
	f.IntVar(&writeJobsFlags.sleep, "sleep", 60, "Seconds to wait before starting the next job")
	f.BoolVar(&writeJobsFlags.submit, "submit", false, "Hand the written file to condor_submit")

	writeJobsCmd.MarkFlagRequired("config")
	writeJobsCmd.MarkFlagRequired("out-dir")
	writeJobsCmd.MarkFlagsMutuallyExclusive("env-script", "ldmx-version")
	writeJobsCmd.MarkFlagsOneRequired("env-script", "ldmx-version")
	writeJobsCmd.MarkFlagsOneRequired("input-dir", "num-jobs")
	writeJobsCmd.RegisterFlagCompletionFunc("ldmx-version", ldmxVersionCompletion)

	rootCmd.AddCommand(writeJobsCmd)
}

func runWriteJobs(cmd *cobra.Command, args []string) error {
	o := writeJobsFlags
	envScript, err := resolveEnvScript(o.envScript, o.ldmxVersion)
	if err != nil {
		return err
	}
	runScript := o.runScript
	if runScript == "" {
		runScript = config.Global.RunScript
	}
	if runScript, err = utils.FullFile(runScript); err != nil {
		return err
	}
	tmpRoot := o.tmpRoot
	if tmpRoot == "" {
		tmpRoot = config.Global.ScratchRoot
	}

	n, err := submit.WriteJobList(args[0], submit.ListJobs{
		Header: submit.ListHeader{
			Executable:     runScript,
			Nice:           !o.nonice,
			CondorGroup:    config.Global.CondorGroup,
			MachineDomain:  config.Global.MachineDomain,
			BannedMachines: config.Global.BannedMachines,
		},
		ScratchRoot: tmpRoot,
		EnvScript:   envScript,
		Config:      o.config,
		OutputDir:   o.outDir,
		InputDir:    o.inputDir,
		NumJobs:     o.numJobs,
		StartJob:    o.startJob,
		ConfigArgs:  o.configArgs,
		Sleep:       o.sleep,
		SaveOutput:  o.test,
	})
	if err != nil {
		return err
	}
	utils.PrintSuccess("Wrote %s jobs to %s", utils.StyleNumber(n), utils.StylePath(args[0]))

	if !o.submit {
		return nil
	}
	sched, err := activeScheduler()
	if err != nil {
		return err
	}
	id, err := sched.SubmitFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	utils.PrintSuccess("Submitted to Cluster %s", utils.StyleNumber(id))
	return nil
}
