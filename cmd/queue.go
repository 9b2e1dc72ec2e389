package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/manage"
	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
)

var (
	queueWatch       time.Duration
	queueHeldOnly    bool
	queueRunningOnly bool

	hostsHeldOnly    bool
	hostsRunningOnly bool
)

var queueCmd = &cobra.Command{
	Use:     "queue",
	Aliases: []string{"q"},
	Short:   "Print your jobs in the queue",
	Long: `Print your jobs as "Cluster.Proc : St : HH:MM:SS : Input", where Input is
the last argument of the job (its input files or run number).

Status letters: I idle, R running, E removing, C completed, H held,
T transferring output, S suspended.`,
	Example: `  ldmx-batch q
  ldmx-batch queue --held
  ldmx-batch queue --watch 1m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if queueWatch > 0 {
			return m.Watch(cmd.Context(), cmd.OutOrStdout(), queueWatch)
		}

		extra := ""
		switch {
		case queueHeldOnly:
			extra = scheduler.StatusIs(scheduler.StatusHeld)
		case queueRunningOnly:
			extra = scheduler.StatusIs(scheduler.StatusRunning)
		}
		jobs, err := m.MyQueue(cmd.Context(), extra)
		if err != nil {
			return err
		}
		manage.PrintQueue(cmd.OutOrStdout(), jobs)
		return nil
	},
}

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Count your held and running jobs per machine",
	Long: `Count your jobs per machine. Running jobs are counted against the machine
they run on, held jobs against the machine they last ran on. Slot numbers and
the site domain are dropped from the machine names.`,
	Example: `  ldmx-batch hosts
  ldmx-batch hosts --held`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		hosts, err := m.Hosts(cmd.Context(), manage.HostFilter{
			HeldOnly:    hostsHeldOnly,
			RunningOnly: hostsRunningOnly,
		}, "")
		if err != nil {
			return err
		}
		manage.PrintHosts(cmd.OutOrStdout(), hosts)
		return nil
	},
}

func init() {
	queueCmd.Flags().DurationVarP(&queueWatch, "watch", "w", 0, "Reprint the queue at this interval until interrupted")
	queueCmd.Flags().BoolVar(&queueHeldOnly, "held", false, "Only show held jobs")
	queueCmd.Flags().BoolVar(&queueRunningOnly, "running", false, "Only show running jobs")
	queueCmd.MarkFlagsMutuallyExclusive("held", "running")
	queueCmd.MarkFlagsMutuallyExclusive("watch", "held")
	queueCmd.MarkFlagsMutuallyExclusive("watch", "running")

	hostsCmd.Flags().BoolVar(&hostsHeldOnly, "held", false, "Only count held jobs")
	hostsCmd.Flags().BoolVar(&hostsRunningOnly, "running", false, "Only count running jobs")
	hostsCmd.MarkFlagsMutuallyExclusive("held", "running")

	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(hostsCmd)
}

// newManager returns a queue manager for the invoking user.
func newManager() (*manage.Manager, error) {
	sched, err := activeScheduler()
	if err != nil {
		return nil, err
	}
	return manage.New(sched, config.Global.User, config.Global.MachineDomain), nil
}
