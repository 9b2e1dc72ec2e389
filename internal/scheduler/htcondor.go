package scheduler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/umn-ldmx/ldmx-batch/internal/utils"
)

// MinItemdataVersion is the first HTCondor release accepting "queue ... from <file>".
const MinItemdataVersion = "v8.4.0"

// HTCondorScheduler implements the Scheduler interface by shelling out to
// the condor_* command line tools.
type HTCondorScheduler struct {
	condorSubmitBin  string
	condorQBin       string
	condorRmBin      string
	condorReleaseBin string
	condorHoldBin    string
	condorQeditBin   string
	jobIDRe          *regexp.Regexp

	// version is filled lazily by GetInfo/Submit; "" means unknown.
	version string
	// KeepFiles leaves the generated submit and item files in place.
	KeepFiles bool
}

// NewHTCondorScheduler creates a new HTCondor scheduler instance using condor_submit from PATH
func NewHTCondorScheduler() (*HTCondorScheduler, error) {
	return NewHTCondorSchedulerWithBinary("")
}

// NewHTCondorSchedulerWithBinary creates an HTCondor scheduler using an explicit
// condor_submit path. The other condor tools are looked up next to it first.
func NewHTCondorSchedulerWithBinary(condorSubmitBin string) (*HTCondorScheduler, error) {
	binPath := condorSubmitBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("condor_submit")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}

	binDir := filepath.Dir(binPath)
	return &HTCondorScheduler{
		condorSubmitBin:  binPath,
		condorQBin:       findTool(binDir, "condor_q"),
		condorRmBin:      findTool(binDir, "condor_rm"),
		condorReleaseBin: findTool(binDir, "condor_release"),
		condorHoldBin:    findTool(binDir, "condor_hold"),
		condorQeditBin:   findTool(binDir, "condor_qedit"),
		jobIDRe:          regexp.MustCompile(`submitted to cluster (\d+)`),
	}, nil
}

// findTool prefers a sibling of condor_submit and falls back to PATH.
func findTool(dir, name string) string {
	sibling := filepath.Join(dir, name)
	if utils.FileExists(sibling) {
		return sibling
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	return ""
}

// IsAvailable checks if HTCondor is available and we're not inside an HTCondor job
func (h *HTCondorScheduler) IsAvailable() bool {
	return h.condorSubmitBin != "" && !IsInsideJob()
}

// GetInfo returns information about the HTCondor scheduler
func (h *HTCondorScheduler) GetInfo(ctx context.Context) *SchedulerInfo {
	info := &SchedulerInfo{
		Type:      "HTCondor",
		Binary:    h.condorSubmitBin,
		InJob:     IsInsideJob(),
		Available: h.IsAvailable(),
	}
	if version, err := h.getHTCondorVersion(ctx); err == nil {
		info.Version = version
	}
	return info
}

// getHTCondorVersion parses "$CondorVersion: 10.0.0 ..." from condor_submit -version.
func (h *HTCondorScheduler) getHTCondorVersion(ctx context.Context) (string, error) {
	if h.version != "" {
		return h.version, nil
	}
	output, err := exec.CommandContext(ctx, h.condorSubmitBin, "-version").Output()
	if err != nil {
		return "", err
	}
	h.version = parseCondorVersion(string(output))
	return h.version, nil
}

func parseCondorVersion(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	parts := strings.Fields(lines[0])
	for i, p := range parts {
		if p == "$CondorVersion:" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return strings.TrimSpace(lines[0])
}

// SupportsItemdata reports whether version can take "queue ... from".
// Unparseable versions are given the benefit of the doubt.
func SupportsItemdata(version string) bool {
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return true
	}
	return semver.Compare(v, MinItemdataVersion) >= 0
}

// Submit writes desc to a temporary submit file followed by a
// "queue <vars> from <items file>" statement and runs condor_submit on it.
func (h *HTCondorScheduler) Submit(ctx context.Context, desc *Description, items []Item) (int, error) {
	if IsInsideJob() {
		return 0, ErrAlreadyInJob
	}
	if len(items) == 0 {
		return 0, ErrNoJobs
	}
	vars, err := itemVars(items)
	if err != nil {
		return 0, err
	}
	if version, err := h.getHTCondorVersion(ctx); err == nil && !SupportsItemdata(version) {
		return 0, fmt.Errorf("%w: have %s, need %s", ErrUnsupportedVersion, version, MinItemdataVersion)
	}

	dir, err := os.MkdirTemp("", "ldmx-batch-")
	if err != nil {
		return 0, err
	}
	if h.KeepFiles || utils.DebugMode {
		utils.PrintDebug("Submit files kept in %s", utils.StylePath(dir))
	} else {
		defer os.RemoveAll(dir)
	}

	itemsPath := filepath.Join(dir, "items.txt")
	if err := writeItemFile(itemsPath, vars, items); err != nil {
		return 0, err
	}

	subPath := filepath.Join(dir, "job.sub")
	var sub bytes.Buffer
	sub.WriteString(desc.String())
	fmt.Fprintf(&sub, "\nqueue %s from %s\n", strings.Join(vars, ","), itemsPath)
	if err := os.WriteFile(subPath, sub.Bytes(), utils.PermFile); err != nil {
		return 0, err
	}

	return h.SubmitFile(ctx, subPath)
}

// itemVars returns the variable names shared by every item, sorted.
func itemVars(items []Item) ([]string, error) {
	vars := make([]string, 0, len(items[0]))
	for k := range items[0] {
		vars = append(vars, k)
	}
	slices.Sort(vars)
	if len(vars) == 0 {
		return nil, fmt.Errorf("%w: first item is empty", ErrInconsistentItems)
	}
	for i, it := range items {
		if len(it) != len(vars) {
			return nil, fmt.Errorf("%w: item %d", ErrInconsistentItems, i)
		}
		for _, v := range vars {
			if _, ok := it[v]; !ok {
				return nil, fmt.Errorf("%w: item %d lacks %s", ErrInconsistentItems, i, v)
			}
		}
	}
	return vars, nil
}

// writeItemFile writes one line per item. Values are comma separated in vars
// order; HTCondor hands the remainder of the line to the last variable, so
// only that one may contain spaces.
func writeItemFile(path string, vars []string, items []Item) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, it := range items {
		values := make([]string, len(vars))
		for i, v := range vars {
			values[i] = strings.TrimSpace(it[v])
		}
		fmt.Fprintln(w, strings.Join(values, ","))
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SubmitFile submits an existing submit file and returns its cluster id.
func (h *HTCondorScheduler) SubmitFile(ctx context.Context, path string) (int, error) {
	lines, err := readFileLines(path)
	if err != nil {
		return 0, err
	}
	if extractHTCondorExecutable(lines) == "" {
		return 0, fmt.Errorf("%w: %s has no executable", ErrInvalidSubmitFile, path)
	}

	utils.PrintDebug("Running %s", utils.StyleCommand(h.condorSubmitBin+" "+path))
	output, err := exec.CommandContext(ctx, h.condorSubmitBin, path).CombinedOutput()
	if err != nil {
		return 0, NewSubmissionError("HTCondor", filepath.Base(path), string(output), err)
	}
	return h.parseClusterID(string(output))
}

// parseClusterID reads "N job(s) submitted to cluster 12345."
func (h *HTCondorScheduler) parseClusterID(output string) (int, error) {
	matches := h.jobIDRe.FindStringSubmatch(output)
	if len(matches) < 2 {
		return 0, fmt.Errorf("%w: %s", ErrJobIDParseFailed, output)
	}
	return strconv.Atoi(matches[1])
}

// Query runs condor_q -json with the given constraint.
func (h *HTCondorScheduler) Query(ctx context.Context, constraint string, attrs ...string) ([]JobAd, error) {
	if h.condorQBin == "" {
		return nil, fmt.Errorf("%w: condor_q", ErrSchedulerNotFound)
	}
	args := []string{"-json"}
	if constraint != "" {
		args = append(args, "-constraint", constraint)
	}
	if len(attrs) > 0 {
		args = append(args, "-attributes", strings.Join(attrs, ","))
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, h.condorQBin, args...)
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, NewCommandError("HTCondor", "query queue", stderr.String(), err)
	}
	return parseJobAds(output)
}

// parseJobAds decodes condor_q -json output. An empty queue prints nothing.
func parseJobAds(output []byte) ([]JobAd, error) {
	if len(bytes.TrimSpace(output)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(output))
	dec.UseNumber()
	var ads []JobAd
	if err := dec.Decode(&ads); err != nil {
		return nil, NewCommandError("HTCondor", "decode queue", "", err)
	}
	return ads, nil
}

// Act runs condor_rm, condor_release or condor_hold on the matching jobs.
func (h *HTCondorScheduler) Act(ctx context.Context, action Action, constraint string, reason string) error {
	var bin string
	withReason := true
	switch action {
	case ActionRemove:
		bin = h.condorRmBin
	case ActionRelease:
		bin = h.condorReleaseBin
		withReason = false
	case ActionHold:
		bin = h.condorHoldBin
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	if bin == "" {
		return fmt.Errorf("%w: no tool for %s", ErrSchedulerNotFound, action)
	}

	args := []string{"-constraint", constraint}
	if withReason && reason != "" {
		args = append(args, "-reason", reason)
	}
	output, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		return NewCommandError("HTCondor", string(action), string(output), err)
	}
	utils.PrintDebug("%s: %s", action, strings.TrimSpace(string(output)))
	return nil
}

// Edit runs condor_qedit on one job.
func (h *HTCondorScheduler) Edit(ctx context.Context, jobID string, attr string, value string) error {
	if h.condorQeditBin == "" {
		return fmt.Errorf("%w: condor_qedit", ErrSchedulerNotFound)
	}
	output, err := exec.CommandContext(ctx, h.condorQeditBin, jobID, attr, value).CombinedOutput()
	if err != nil {
		return NewCommandError("HTCondor", "edit "+jobID, string(output), err)
	}
	return nil
}
