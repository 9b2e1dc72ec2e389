package scheduler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JobAd is one job's ClassAd as reported by condor_q -json.
type JobAd map[string]any

// String returns a string attribute, or "" when absent.
func (a JobAd) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns a numeric attribute, or 0 when absent or not numeric.
func (a JobAd) Int(key string) int64 {
	switch v := a[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Status returns the JobStatus attribute.
func (a JobAd) Status() JobStatus {
	return JobStatus(a.Int("JobStatus"))
}

// ID returns "cluster.proc".
func (a JobAd) ID() string {
	return fmt.Sprintf("%d.%d", a.Int("ClusterId"), a.Int("ProcId"))
}

// Expr returns an expression attribute as text. condor_q -json writes
// expressions as "/Expr(<expr>)/"; plain strings are returned as is.
func (a JobAd) Expr(key string) string {
	s := a.String(key)
	if strings.HasPrefix(s, "/Expr(") && strings.HasSuffix(s, ")/") {
		return s[len("/Expr(") : len(s)-len(")/")]
	}
	return s
}
