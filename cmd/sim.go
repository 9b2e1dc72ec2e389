package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/umn-ldmx/ldmx-batch/internal/config"
	"github.com/umn-ldmx/ldmx-batch/internal/simjob"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var simFlags struct {
	opts        simjob.Options
	nonice      bool
	noSubmit    bool
	bannedExtra []string
}

var simCmd = &cobra.Command{
	Use:   "sim --job-name NAME --num-events N",
	Short: "Write and submit a self-contained Geant4 simulation batch",
	Long: `Create <output-root>/<job-name>/{condor,logs,mac} holding a worker script,
one Geant4 macro per job with fresh random seeds and a condor submit file,
then submit it.

Number of jobs: --num-jobs when positive, otherwise one per file in --lhe-dir,
otherwise one. Without --lhe-dir the jobs fire beam electrons from the
multi-particle gun, adding --pileup extra electrons per event.`,
	Example: `  ldmx-batch sim --job-name inclusive --num-events 10000 --num-jobs 50
  ldmx-batch sim --job-name signal --num-events 1000 --lhe-dir /hdfs/.../lhe --no-pn --no-submit`,
	Args: cobra.NoArgs,
	RunE: runSim,
}

func init() {
	o := &simFlags.opts
	f := simCmd.Flags()
	f.StringVar(&o.JobName, "job-name", "", "Name used for the job directory and output files")
	f.IntVar(&o.NumEvents, "num-events", 0, "Number of events per job")
	f.IntVar(&o.NumJobs, "num-jobs", 0, "Number of jobs to run")
	f.StringVar(&o.LHEDir, "lhe-dir", "", "Directory containing .lhe files")
	f.StringVar(&o.Geometry, "geometry", "v3", "Detector geometry version")
	f.IntVar(&o.Pileup, "pileup", 0, "Inject this many additional electrons into each event")
	f.BoolVar(&o.Poisson, "poisson", false, "Poisson distribute the number of electrons per event")
	f.BoolVar(&o.SmearBeam, "smear-beam", false, "Smear the beamspot")
	f.BoolVar(&o.NoPN, "no-pn", false, "Disable the photo-nuclear and electro-nuclear processes")
	f.StringVar(&o.OutputRoot, "output-root", "", "Directory holding the job directories (default <local dir>/simulation)")
	f.StringVar(&o.SetupScript, "setup-script", "", "Script the worker sources before running (default ~/bin/ldmx-sw_setup.sh)")
	f.Uint64Var(&o.Seed, "seed", 0, "Seed for the macro random seeds (0 picks one)")
	f.StringSliceVar(&simFlags.bannedExtra, "broken-machines", nil, "Extra machines to avoid")
	f.BoolVar(&simFlags.nonice, "nonice", false, "Do not run at nice priority")
	f.BoolVar(&simFlags.noSubmit, "no-submit", false, "Write the batch without submitting it")

	simCmd.MarkFlagRequired("job-name")
	simCmd.MarkFlagRequired("num-events")
	simCmd.MarkFlagDirname("lhe-dir")

	rootCmd.AddCommand(simCmd)
}

func runSim(cmd *cobra.Command, args []string) error {
	o := simFlags.opts
	o.Nice = !simFlags.nonice
	if o.OutputRoot == "" {
		o.OutputRoot = filepath.Join(config.Global.LocalDir, "simulation")
	}
	if o.SetupScript == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		o.SetupScript = filepath.Join(home, "bin", "ldmx-sw_setup.sh")
	}
	o.ScratchRoot = config.Global.ScratchRoot
	o.CondorGroup = config.Global.CondorGroup
	o.MachineDomain = config.Global.MachineDomain
	o.BannedMachines = append(append([]string(nil), config.Global.BannedMachines...), simFlags.bannedExtra...)

	utils.PrintMessage("Using %s geometry", utils.StyleName(o.Geometry))
	b, err := simjob.Write(o)
	if err != nil {
		return err
	}
	utils.PrintSuccess("Wrote %s jobs to %s", utils.StyleNumber(len(b.Macros)), utils.StylePath(b.Dir))

	if simFlags.noSubmit {
		utils.PrintHint("Submit later with: condor_submit %s", b.SubmitFile)
		return nil
	}
	sched, err := activeScheduler()
	if err != nil {
		return err
	}
	id, err := sched.SubmitFile(cmd.Context(), b.SubmitFile)
	if err != nil {
		return err
	}
	utils.PrintSuccess("Submitted to Cluster %s", utils.StyleNumber(id))
	return nil
}
