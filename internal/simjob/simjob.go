// Package simjob writes the self-contained simulation batches: a worker
// script, one Geant4 macro per job and a textual condor submit file.
package simjob

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

var (
	// ErrNegative is returned for negative event, job or pileup counts.
	ErrNegative = errors.New("must not be negative")

	// ErrJobExists is returned when the job directory already exists.
	ErrJobExists = errors.New("job directory already exists")
)

const maxSeed = 100000000

// Options describe a simulation batch.
type Options struct {
	JobName   string
	NumEvents int
	NumJobs   int    // Used when > 0
	LHEDir    string // Optional directory of .lhe files
	Geometry  string
	Pileup    int // Additional electrons per event
	Poisson   bool
	SmearBeam bool
	NoPN      bool
	Nice      bool

	OutputRoot     string // Job directories are created under this
	ScratchRoot    string
	SetupScript    string // Sourced by the worker before running the simulation
	CondorGroup    string
	MachineDomain  string
	BannedMachines []string

	Seed uint64 // Seeds the macro random seeds; 0 picks one at random
}

// Batch is the result of Write.
type Batch struct {
	Dir        string
	Script     string
	SubmitFile string
	Macros     []string
}

func (o *Options) validate() error {
	switch {
	case o.JobName == "":
		return errors.New("job name is required")
	case strings.ContainsRune(o.JobName, '/'):
		return fmt.Errorf("job name %q must not contain '/'", o.JobName)
	case o.NumEvents < 0:
		return fmt.Errorf("number of events per job %w", ErrNegative)
	case o.NumJobs < 0:
		return fmt.Errorf("number of jobs %w", ErrNegative)
	case o.Pileup < 0:
		return fmt.Errorf("number of pileup particles %w", ErrNegative)
	}
	if o.Geometry == "" {
		o.Geometry = "v3"
	}
	return nil
}

// lheFiles lists the entries of the LHE directory, nil without one.
func (o *Options) lheFiles() ([]string, error) {
	if o.LHEDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(o.LHEDir)
	if err != nil {
		return nil, fmt.Errorf("input .lhe directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// NumJobsFor returns the explicit job count when positive, otherwise one
// job per LHE file, otherwise one.
func NumJobsFor(explicit, lheFiles int) int {
	switch {
	case explicit > 0:
		return explicit
	case lheFiles > 0:
		return lheFiles
	default:
		return 1
	}
}

// Write creates <OutputRoot>/<JobName>/{condor,logs,mac} and fills them.
func Write(o Options) (*Batch, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	lhe, err := o.lheFiles()
	if err != nil {
		return nil, err
	}
	lheDir := strings.TrimRight(o.LHEDir, "/")

	dir := filepath.Join(o.OutputRoot, o.JobName)
	if utils.PathExists(dir) {
		return nil, fmt.Errorf("%w: %s", ErrJobExists, dir)
	}
	for _, sub := range []string{"condor", "logs", "mac"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), utils.PermDir); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	b := &Batch{
		Dir:        dir,
		Script:     filepath.Join(dir, "condor", "runJob.sh"),
		SubmitFile: filepath.Join(dir, "condor", "condorSubmit"),
	}
	if err := os.WriteFile(b.Script, []byte(o.runScript()), utils.PermExec); err != nil {
		return nil, err
	}

	seed := o.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	var sub strings.Builder
	sub.WriteString(o.submitHeader(b.Script).String())

	n := NumJobsFor(o.NumJobs, len(lhe))
	for job := range n {
		stub := fmt.Sprintf("%s_%04d", o.JobName, job)
		fmt.Fprintf(&sub, "Arguments = %s %s\nQueue\n", stub, dir)

		lheFile := ""
		if len(lhe) > 0 {
			lheFile = lheDir + "/" + lhe[job%len(lhe)]
		}
		mac := filepath.Join(dir, "mac", stub+".mac")
		text := o.macro(lheFile, rng.IntN(maxSeed), rng.IntN(maxSeed))
		if err := os.WriteFile(mac, []byte(text), utils.PermFile); err != nil {
			return nil, err
		}
		b.Macros = append(b.Macros, mac)
	}

	if err := os.WriteFile(b.SubmitFile, []byte(sub.String()), utils.PermFile); err != nil {
		return nil, err
	}
	return b, nil
}

func (o *Options) runScript() string {
	var s strings.Builder
	s.WriteString("#!/bin/bash\n\n")
	s.WriteString("STUBNAME=$1\n")
	s.WriteString("OUTPATH=$2\n")
	fmt.Fprintf(&s, "mkdir -p %[1]s;cd %[1]s\nmkdir ${STUBNAME}\ncd ${STUBNAME}\n", o.ScratchRoot)
	s.WriteString("hostname > ${STUBNAME}.log\n")
	fmt.Fprintf(&s, "source %s >> ${STUBNAME}.log 2>>${STUBNAME}.err\n", o.SetupScript)
	s.WriteString("ln -s ${LDMXBASE}/ldmx-sw/BmapCorrected3D_13k_unfolded_scaled_1.15384615385.dat .\n")
	fmt.Fprintf(&s, "ln -s ${LDMXBASE}/ldmx-sw/Detectors/data/ldmx-det-full-%s-fieldmap/* .\n", o.Geometry)
	s.WriteString("date >> ${STUBNAME}.log\n")
	s.WriteString("ldmx-sim ${OUTPATH}/mac/${STUBNAME}.mac >> ${STUBNAME}.log 2>>${STUBNAME}.err\n")
	s.WriteString("date >> ${STUBNAME}.log\n")
	s.WriteString("cp ldmx_sim_events.root ${OUTPATH}/${STUBNAME}.root >> ${STUBNAME}.log 2>>${STUBNAME}.err\n")
	s.WriteString("xz *.log *.err\n")
	s.WriteString("cp *.xz ${OUTPATH}/logs\n")
	s.WriteString("cd .. && rm -r ${STUBNAME}\n")
	return s.String()
}

func (o *Options) submitHeader(executable string) *scheduler.Description {
	req := []string{`Arch=="X86_64"`}
	for _, m := range o.BannedMachines {
		req = append(req, scheduler.DontUseMachine(m, o.MachineDomain))
	}
	d := scheduler.NewDescription(
		"Executable", executable,
		"Universe", "vanilla",
		"Requirements", strings.Join(req, " && "),
		"+CondorGroup", scheduler.Quote(o.CondorGroup),
		"getenv", "True",
	)
	if o.Nice {
		d.Set("nice_user", "True")
	}
	d.Set("Request_Memory", "1 Gb")
	return d
}

// macro renders the Geant4 macro of one job. Without an LHE file the
// multi-particle gun fires the beam electrons.
func (o *Options) macro(lheFile string, seed1, seed2 int) string {
	var m strings.Builder
	m.WriteString("/persistency/gdml/read detector.gdml\n\n")
	if o.NoPN {
		m.WriteString("/ldmx/plugins/load DisablePhotoNuclear libSimPlugins.so\n\n")
	}
	m.WriteString("/run/initialize\n\n")
	if lheFile != "" {
		fmt.Fprintf(&m, "/ldmx/generators/lhe/open %s\n\n", lheFile)
	}
	if o.SmearBeam {
		m.WriteString("/ldmx/generators/beamspot/enable\n")
		m.WriteString("/ldmx/generators/beamspot/sizeX 15.0\n")
		m.WriteString("/ldmx/generators/beamspot/sizeY 35.0\n\n")
	}
	if o.Pileup > 0 || lheFile == "" {
		m.WriteString("/ldmx/generators/mpgun/enable\n")
		if o.Poisson {
			m.WriteString("/ldmx/generators/mpgun/enablePoisson\n")
		}
		fmt.Fprintf(&m, "/ldmx/generators/mpgun/nInteractions %d\n", o.Pileup+1)
		m.WriteString("/ldmx/generators/mpgun/pdgID 11\n")
		m.WriteString("/ldmx/generators/mpgun/vertex 0 0 1 mm\n")
		m.WriteString("/ldmx/generators/mpgun/momentum 0 0 3.9999999673 GeV\n")
	}
	fmt.Fprintf(&m, "\n/random/setSeeds %d %d\n", seed1, seed2)
	fmt.Fprintf(&m, "/run/beamOn %d\n", o.NumEvents)
	return m.String()
}
