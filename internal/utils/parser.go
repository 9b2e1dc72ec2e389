package utils

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var sizeRe = regexp.MustCompile(`^(\d+)(K|KB|M|MB|G|GB|T|TB)?$`)

// ParseSizeToKB converts strings like "4G", "500M", "2048K" into kilobytes.
// A bare number is taken as megabytes, the HTCondor default for memory.
func ParseSizeToKB(sizeStr string) (int64, error) {
	s := strings.TrimSpace(strings.ToUpper(sizeStr))

	matches := sizeRe.FindStringSubmatch(s)
	if len(matches) < 2 {
		return 0, fmt.Errorf("invalid size format: %s (expected '4G', '500M', '2048K', etc.)", sizeStr)
	}

	val, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", matches[1])
	}

	var unit int64
	switch matches[2] {
	case "K", "KB":
		unit = 1
	case "M", "MB", "":
		unit = 1024
	case "G", "GB":
		unit = 1024 * 1024
	case "T", "TB":
		unit = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported unit: %s", matches[2])
	}
	if val > math.MaxInt64/unit {
		return 0, fmt.Errorf("size too large: %s", sizeStr)
	}
	return val * unit, nil
}

// ParseSizeToMB converts a size string into megabytes, rounding kilobytes up.
func ParseSizeToMB(sizeStr string) (int64, error) {
	kb, err := ParseSizeToKB(sizeStr)
	if err != nil {
		return 0, err
	}
	return (kb + 1023) / 1024, nil
}

// FormatClock renders a duration as HH:MM:SS; hours may exceed 24.
// Negative durations render as zero.
func FormatClock(d time.Duration) string {
	total := int64(d.Seconds())
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// SplitList splits comma or whitespace separated values, dropping empties.
// Used for machine lists coming from the config file or environment.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
