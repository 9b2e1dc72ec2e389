package submit

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/umn-ldmx/ldmx-batch/internal/scheduler"
	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// ListFile writes a textual submit file with one arguments/queue pair per job.
type ListFile struct {
	w   *bufio.Writer
	err error
}

// ListHeader is the part of a list file shared by all jobs.
type ListHeader struct {
	Executable     string
	Nice           bool
	CondorGroup    string
	MachineDomain  string
	BannedMachines []string
	Memory         string // request_memory value, e.g. "4 Gb"
}

// NewListFile writes the header to w.
func NewListFile(w io.Writer, h ListHeader) *ListFile {
	l := &ListFile{w: bufio.NewWriter(w)}

	req := []string{`Arch=="X86_64"`}
	for _, m := range h.BannedMachines {
		req = append(req, scheduler.DontUseMachine(m, h.MachineDomain))
	}
	nice := "False"
	if h.Nice {
		nice = "True"
	}
	memory := h.Memory
	if memory == "" {
		memory = "4 Gb"
	}

	l.printf("\n")
	l.printf("%-20s=  %s\n", "executable", h.Executable)
	l.printf("%-20s=  %s\n", "universe", "vanilla")
	l.printf("%-20s=  %s\n", "requirements", strings.Join(req, " && "))
	l.printf("%-20s=  %s\n", "+CondorGroup", scheduler.Quote(h.CondorGroup))
	l.printf("%-20s= %s\n", "nice_user", nice)
	l.printf("%-20s=  %s\n", "request_memory", memory)
	l.printf("%-20s= %s\n", "on_exit_hold", "(ExitCode != 0)")
	return l
}

func (l *ListFile) printf(format string, a ...any) {
	if l.err != nil {
		return
	}
	_, l.err = fmt.Fprintf(l.w, format, a...)
}

// Add queues one job. A non-empty outputDir connects the job's stdout and
// stderr to <outputDir>/<cluster>-<process>.out.
func (l *ListFile) Add(arguments string, pause int, outputDir string) {
	if outputDir != "" {
		out := filepath.Join(outputDir, "$(Cluster)-$(Process).out")
		l.printf("output = %s\n", out)
		l.printf("error  = %s\n", out)
	}
	l.printf("arguments = %s\n", arguments)
	l.printf("next_job_start_delay = %d\n", pause)
	l.printf("queue\n")
}

// Flush writes any buffered text and returns the first error seen.
func (l *ListFile) Flush() error {
	if l.err != nil {
		return l.err
	}
	return l.w.Flush()
}

// ListJobs describes the jobs of WriteJobList.
type ListJobs struct {
	Header      ListHeader
	ScratchRoot string
	EnvScript   string
	Config      string
	OutputDir   string
	InputDir    string // One job per entry when set
	NumJobs     int    // Caps the input entries, or the job count without InputDir
	StartJob    int
	ConfigArgs  string
	Sleep       int
	SaveOutput  bool // Save terminal output to the current directory
}

// WriteJobList writes the list file at path and returns the number of jobs.
// Each job gets "--run_number <n>" counting up from StartJob.
func WriteJobList(path string, o ListJobs) (int, error) {
	var inputs []string
	jobs := o.NumJobs
	fullInput := ""
	if o.InputDir != "" {
		var err error
		if fullInput, err = utils.FullFile(o.InputDir); err != nil {
			return 0, err
		}
		entries, err := os.ReadDir(fullInput)
		if err != nil {
			return 0, err
		}
		for _, e := range entries {
			inputs = append(inputs, e.Name())
		}
		if jobs <= 0 || jobs > len(inputs) {
			jobs = len(inputs)
		}
	} else if jobs <= 0 {
		return 0, fmt.Errorf("either an input directory or a positive number of jobs is required")
	}

	outDir, err := utils.FullDir(o.OutputDir, "", true)
	if err != nil {
		return 0, err
	}
	configPath, err := utils.FullFile(o.Config)
	if err != nil {
		return 0, fmt.Errorf("config script: %w", err)
	}
	if err := utils.CheckExists(o.EnvScript); err != nil {
		return 0, fmt.Errorf("environment script: %w", err)
	}

	saveDir := ""
	if o.SaveOutput {
		if saveDir, err = os.Getwd(); err != nil {
			return 0, err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, utils.PermFile)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	l := NewListFile(f, o.Header)
	base := fmt.Sprintf("%s/$(Cluster)-$(Process) %s %s %s", o.ScratchRoot, o.EnvScript, configPath, outDir)
	for i := range jobs {
		args := base
		if fullInput != "" {
			args += " " + filepath.Join(fullInput, inputs[i])
		}
		args += fmt.Sprintf(" --run_number %d %s", o.StartJob+i, o.ConfigArgs)
		l.Add(strings.TrimRight(args, " "), o.Sleep, saveDir)
	}
	if err := l.Flush(); err != nil {
		return 0, err
	}
	return jobs, f.Close()
}
