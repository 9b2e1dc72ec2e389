package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// JobStatus is HTCondor's JobStatus enum.
type JobStatus int

const (
	StatusIdle         JobStatus = 1
	StatusRunning      JobStatus = 2
	StatusRemoving     JobStatus = 3
	StatusCompleted    JobStatus = 4
	StatusHeld         JobStatus = 5
	StatusTransferring JobStatus = 6
	StatusSuspended    JobStatus = 7
)

// Letter is the one-character code condor_q uses for the status.
// Unknown values are rendered as their number.
func (s JobStatus) Letter() string {
	switch s {
	case StatusIdle:
		return "I"
	case StatusRunning:
		return "R"
	case StatusRemoving:
		return "E"
	case StatusCompleted:
		return "C"
	case StatusHeld:
		return "H"
	case StatusTransferring:
		return "T"
	case StatusSuspended:
		return "S"
	default:
		return strconv.Itoa(int(s))
	}
}

// Quote returns s as a ClassAd string literal.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// MachineName qualifies a short host name with domain.
func MachineName(machine, domain string) string {
	if domain == "" || strings.Contains(machine, ".") {
		return machine
	}
	return machine + "." + domain
}

// DontUseMachine returns an expression excluding machine.
func DontUseMachine(machine, domain string) string {
	return fmt.Sprintf("(Machine != %s)", Quote(MachineName(machine, domain)))
}

// UseMachine returns an expression matching machine.
func UseMachine(machine, domain string) string {
	return fmt.Sprintf("(Machine == %s)", Quote(MachineName(machine, domain)))
}

// And joins expressions with &&. Empty expressions are skipped.
func And(exprs ...string) string {
	return join(" && ", exprs)
}

// Or joins expressions with ||. Empty expressions are skipped.
func Or(exprs ...string) string {
	return join(" || ", exprs)
}

func join(op string, exprs []string) string {
	var parts []string
	for _, e := range exprs {
		if e = strings.TrimSpace(e); e != "" {
			parts = append(parts, e)
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, op) + ")"
}

// OwnerIs matches jobs submitted by user.
func OwnerIs(user string) string {
	return fmt.Sprintf("(Owner == %s)", Quote(user))
}

// StatusIs matches jobs in status s.
func StatusIs(s JobStatus) string {
	return fmt.Sprintf("(JobStatus == %d)", int(s))
}
