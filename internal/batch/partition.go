// Package batch holds the bookkeeping shared by the submit commands:
// splitting input files into per-job groups and finding gaps in run numbers.
package batch

import "strings"

// Partition splits items into consecutive groups of at most n elements.
// Order is preserved and only the last group may be short.
func Partition[T any](items []T, n int) ([][]T, error) {
	if n <= 0 {
		return nil, ErrInvalidGroupSize
	}

	groups := make([][]T, 0, (len(items)+n-1)/n)
	for start := 0; start < len(items); start += n {
		end := min(start+n, len(items))
		groups = append(groups, items[start:end:end])
	}
	return groups, nil
}

// PartitionFiles groups file paths and joins every group with single spaces,
// giving one scheduler item value per job.
func PartitionFiles(files []string, n int) ([]string, error) {
	groups, err := Partition(files, n)
	if err != nil {
		return nil, err
	}

	joined := make([]string, len(groups))
	for i, g := range groups {
		joined[i] = strings.Join(g, " ")
	}
	return joined, nil
}
