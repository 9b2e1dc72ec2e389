package scheduler

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// readFileLines opens a file and returns all its lines.
func readFileLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSubmitFileNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading submit file: %w", err)
	}
	return lines, nil
}

// extractHTCondorExecutable finds the executable path from submit file lines.
func extractHTCondorExecutable(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || trimmed == "" {
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) == 2 && strings.TrimSpace(strings.ToLower(parts[0])) == "executable" {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}

// SubmitFileSummary is what ReadSubmitFile extracts from a textual submit file.
type SubmitFileSummary struct {
	Executable string   // Value of the executable line
	Arguments  []string // Value of every arguments line, in order
	Queued     int      // Number of jobs queued by bare or counted queue statements
}

// ReadSubmitFile summarizes a submit file written one queue statement per job.
// "queue N" counts N jobs; "queue ... from/in/matching" forms are not counted.
func ReadSubmitFile(path string) (*SubmitFileSummary, error) {
	lines, err := readFileLines(path)
	if err != nil {
		return nil, err
	}

	s := &SubmitFileSummary{Executable: extractHTCondorExecutable(lines)}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if strings.EqualFold(fields[0], "queue") {
			switch len(fields) {
			case 1:
				s.Queued++
			case 2:
				var n int
				if _, err := fmt.Sscanf(fields[1], "%d", &n); err == nil {
					s.Queued += n
				}
			}
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[0]), "arguments") {
			s.Arguments = append(s.Arguments, strings.TrimSpace(parts[1]))
		}
	}
	return s, nil
}
