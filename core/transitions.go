// ABOUTME: Legal state-transition graphs for Swarm and Task, enforced identically by Store and SwarmManager.
// ABOUTME: Single source of truth so both layers never disagree on what counts as a valid transition.
package core

// ValidSwarmTransition reports whether moving a swarm from `from` to `to` is
// legal. idle -> running happens when the first task enters in-progress;
// running -> {completed, error, paused}; paused -> running (resume).
func ValidSwarmTransition(from, to SwarmStatus) bool {
	if from == to {
		return true // idempotent re-application
	}
	switch from {
	case SwarmIdle:
		return to == SwarmRunning || to == SwarmError
	case SwarmRunning:
		return to == SwarmPaused || to == SwarmCompleted || to == SwarmError
	case SwarmPaused:
		return to == SwarmRunning || to == SwarmError
	case SwarmCompleted, SwarmError:
		return false // terminal
	default:
		return false
	}
}

// ValidTaskTransition reports whether moving a task from `from` to `to` is
// legal. need-help is treated as equivalent to failed for retry/transition
// purposes (per the kernel's resolution of the source's under-specified
// need-help semantics) but is surfaced distinctly in the planner view.
func ValidTaskTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case TaskPending:
		return to == TaskInProgress
	case TaskInProgress:
		return to == TaskCompleted || to == TaskFailed || to == TaskNeedHelp
	case TaskFailed:
		return to == TaskPending // RetryMonitor re-queue only
	case TaskNeedHelp:
		return to == TaskPending || to == TaskFailed
	case TaskCompleted:
		return false // terminal
	default:
		return false
	}
}

// IsTaskTerminal reports whether a task status admits no further transitions
// under the current retry budget. completed is always terminal; failed is
// terminal only once retry budget is exhausted (callers check RetryCount
// themselves since this function has no budget context).
func IsTaskTerminal(status TaskStatus) bool {
	return status == TaskCompleted
}

// AllTerminalWithOneCompleted reports whether every task in tasks is in a
// terminal status (completed, or failed/need-help with exhausted retry
// budget) and at least one is completed — the invariant required for a swarm
// to transition to SwarmCompleted.
func AllTerminalWithOneCompleted(tasks []Task, maxRetries int) bool {
	anyCompleted := false
	for _, t := range tasks {
		switch t.Status {
		case TaskCompleted:
			anyCompleted = true
		case TaskFailed, TaskNeedHelp:
			if t.RetryCount < maxRetries {
				return false // still retriable, not terminal yet
			}
		default:
			return false // pending or in-progress
		}
	}
	return anyCompleted
}
