package batch

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// RunToken is the filename component that precedes the run number.
const RunToken = "run"

// ExtractRunNumber reads the run number out of a name shaped like
// <anything>_run_<number>.<ext>.
//
// ok is false when the name has no "run" component; that is not an error.
// A "run" component with nothing usable after it yields a *MalformedNameError.
func ExtractRunNumber(name string) (run int, ok bool, err error) {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(base, "_")
	idx := slices.Index(parts, RunToken)
	if idx < 0 {
		return 0, false, nil
	}
	if idx+1 >= len(parts) {
		return 0, false, &MalformedNameError{Name: name, Reason: "nothing follows the run token"}
	}

	n, err := strconv.Atoi(parts[idx+1])
	if err != nil {
		return 0, false, &MalformedNameError{Name: name, Reason: "run number is not an integer", Err: err}
	}
	if n < 0 {
		return 0, false, &MalformedNameError{Name: name, Reason: "run number is negative"}
	}
	return n, true, nil
}

// ListRuns extracts run numbers from names and returns them sorted without duplicates.
// Names without a run token are skipped; the first malformed name aborts.
func ListRuns(names []string) ([]int, error) {
	var runs []int
	for _, name := range names {
		run, ok, err := ExtractRunNumber(name)
		if err != nil {
			return nil, err
		}
		if ok {
			runs = append(runs, run)
		}
	}
	slices.Sort(runs)
	return slices.Compact(runs), nil
}

// Missing returns every integer between the smallest and largest run that is
// not in runs, ascending. runs does not need to be sorted.
func Missing(runs []int) []int {
	if len(runs) == 0 {
		return nil
	}

	present := make(map[int]bool, len(runs))
	lo, hi := runs[0], runs[0]
	for _, r := range runs {
		present[r] = true
		lo = min(lo, r)
		hi = max(hi, r)
	}

	missing := []int{}
	// Break on hi before incrementing; hi may be math.MaxInt.
	for r := lo; ; r++ {
		if !present[r] {
			missing = append(missing, r)
		}
		if r == hi {
			break
		}
	}
	return missing
}

// MissingRuns reports the gaps in the run numbers carried by names.
// Returns ErrNoRuns when no name carries a run number.
func MissingRuns(names []string) ([]int, error) {
	runs, err := ListRuns(names)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return Missing(runs), nil
}

// MissingInDir runs MissingRuns over the entry names of dir.
func MissingInDir(dir string) ([]int, error) {
	names, err := dirNames(dir)
	if err != nil {
		return nil, err
	}
	return MissingRuns(names)
}

func dirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}
