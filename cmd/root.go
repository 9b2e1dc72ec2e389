package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var (
	debugMode bool
	quietMode bool
	yesMode   bool
)

var rootCmd = &cobra.Command{
	Use:           "ldmx-batch",
	Short:         "Submit and manage batches of LDMX jobs on the HTCondor pool",
	Version:       config.VERSION,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		exe, err := os.Executable()
		if err != nil {
			utils.PrintError("Failed to determine executable path: %v", err)
			os.Exit(1)
		}

		// Step 1: Site defaults for the invoking user
		config.LoadDefaults(exe)

		// Step 2: Config file and LDMX_BATCH_* environment
		if err := config.InitViper(); err != nil {
			utils.PrintWarning("%v", err)
		}
		config.LoadFromViper()

		// Step 3: Command-line flags (highest priority)
		utils.QuietMode = quietMode
		utils.AnswerYes = yesMode
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("ldmx-batch Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Executable: %s", exe)
			utils.PrintDebug("User: %s", config.Global.User)
			utils.PrintDebug("HDFS Directory: %s", config.Global.HdfsDir)
			utils.PrintDebug("Local Directory: %s", config.Global.LocalDir)
			utils.PrintDebug("Run Script: %s", config.Global.RunScript)
			if config.Global.SchedulerBin != "" {
				utils.PrintDebug("Scheduler Binary: %s", config.Global.SchedulerBin)
			}
		}

		// Step 4: HTCondor, unless one was installed already
		if _, err := scheduler.ActiveScheduler(); err == nil {
			return
		}
		sched, err := scheduler.NewHTCondorSchedulerWithBinary(config.Global.SchedulerBin)
		if err != nil {
			utils.PrintDebug("Scheduler not available: %v", err)
			return
		}
		scheduler.SetActiveScheduler(sched)
		utils.PrintDebug("HTCondor found at %s", utils.StylePath(sched.GetInfo(cmd.Context()).Binary))
	},
}

// Execute runs the root command; SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.PrintWarning("Interrupted")
		} else {
			utils.PrintError("%v", err)
		}
		stop()
		os.Exit(1)
	}
}

// underscoreToDash keeps the underscore flag spellings of the old scripts
// (--files_per_job) working alongside --files-per-job.
func underscoreToDash(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Only print warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&yesMode, "yes", "y", false, "Answer every prompt with yes")
	rootCmd.SetGlobalNormalizationFunc(underscoreToDash)
}

// activeScheduler returns the scheduler set up by the root command.
func activeScheduler() (scheduler.Scheduler, error) {
	sched, err := scheduler.ActiveScheduler()
	if err != nil {
		if scheduler.IsInsideJob() {
			return nil, scheduler.ErrAlreadyInJob
		}
		return nil, err
	}
	return sched, nil
}
