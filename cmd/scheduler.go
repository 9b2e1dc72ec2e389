package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var schedulerCmd = &cobra.Command{
	Use:     "scheduler",
	Aliases: []string{"sched"},
	Short:   "Display HTCondor information",
	Long: `Display information about the HTCondor installation used for submission.

Shows the condor_submit binary, its version and whether submission is possible
from here. Submissions need HTCondor 8.4 or newer.`,
	Example: `  ldmx-batch scheduler           # Show scheduler information
  ldmx-batch sched               # Short alias`,
	Args: cobra.NoArgs,
	Run:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.ActiveScheduler()
	if err != nil {
		// If we're inside a job, show a concise message and exit
		if scheduler.IsInsideJob() {
			utils.PrintMessage("Scheduler Status: %s", utils.StyleWarning("Unavailable (inside job)"))
			utils.PrintMessage("")
			utils.PrintMessage("You are currently inside an HTCondor job; submission is disabled to prevent nested submissions.")
			return
		}

		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		if config.Global.SchedulerBin != "" {
			utils.PrintMessage("Configured scheduler_bin %s is not usable.", utils.StylePath(config.Global.SchedulerBin))
		} else {
			utils.PrintMessage("condor_submit was not found in PATH.")
		}
		return
	}

	info := sched.GetInfo(cmd.Context())
	out := cmd.OutOrStdout()

	// Structured output, no [LDMX] prefix
	fmt.Fprintln(out, "Scheduler Information:")
	fmt.Fprintf(out, "  Type:      %s\n", utils.StyleInfo(info.Type))
	if info.Binary != "" {
		fmt.Fprintf(out, "  Binary:    %s\n", utils.StylePath(info.Binary))
	}
	if info.Version != "" {
		fmt.Fprintf(out, "  Version:   %s\n", utils.StyleNumber(info.Version))
	}

	switch {
	case info.InJob:
		fmt.Fprintf(out, "  Status:    %s (inside job)\n", utils.StyleError("Unavailable"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "You are currently inside an HTCondor job (detected via $_CONDOR_JOB_AD).")
		fmt.Fprintln(out, "Submission is disabled to prevent nested submissions.")
	case info.Available && info.Version != "" && !scheduler.SupportsItemdata(info.Version):
		fmt.Fprintf(out, "  Status:    %s (need %s or newer)\n", utils.StyleWarning("Too old"), scheduler.MinItemdataVersion)
	case info.Available:
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleSuccess("Available"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, "HTCondor is available and ready for job submission.")
	default:
		fmt.Fprintf(out, "  Status:    %s\n", utils.StyleError("Unavailable"))
	}
}
