package scheduler

import "sync"

var (
	activeScheduler Scheduler
	schedulerMu     sync.RWMutex
)

// SetActiveScheduler configures the scheduler instance the commands should use.
// Passing nil clears any previously configured scheduler.
func SetActiveScheduler(s Scheduler) {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	activeScheduler = s
}

// ActiveScheduler returns the configured scheduler, or ErrSchedulerNotAvailable.
func ActiveScheduler() (Scheduler, error) {
	schedulerMu.RLock()
	defer schedulerMu.RUnlock()
	if activeScheduler == nil {
		return nil, ErrSchedulerNotAvailable
	}
	return activeScheduler, nil
}

// ClearActiveScheduler resets the active scheduler reference.
func ClearActiveScheduler() {
	SetActiveScheduler(nil)
}
