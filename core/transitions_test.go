package core

import "testing"

func TestValidSwarmTransition(t *testing.T) {
	cases := []struct {
		from, to SwarmStatus
		want     bool
	}{
		{SwarmIdle, SwarmRunning, true},
		{SwarmIdle, SwarmCompleted, false},
		{SwarmRunning, SwarmPaused, true},
		{SwarmRunning, SwarmCompleted, true},
		{SwarmPaused, SwarmRunning, true},
		{SwarmCompleted, SwarmRunning, false},
		{SwarmError, SwarmRunning, false},
		{SwarmRunning, SwarmRunning, true},
	}
	for _, c := range cases {
		if got := ValidSwarmTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidSwarmTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidTaskTransition(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskInProgress, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskInProgress, TaskFailed, true},
		{TaskInProgress, TaskNeedHelp, true},
		{TaskFailed, TaskPending, true},
		{TaskCompleted, TaskPending, false},
		{TaskCompleted, TaskCompleted, true},
		{TaskNeedHelp, TaskPending, true},
		{TaskPending, TaskCompleted, false},
	}
	for _, c := range cases {
		if got := ValidTaskTransition(c.from, c.to); got != c.want {
			t.Errorf("ValidTaskTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestAllTerminalWithOneCompleted(t *testing.T) {
	maxRetries := 3
	tasks := []Task{
		{Status: TaskCompleted},
		{Status: TaskFailed, RetryCount: 3},
	}
	if !AllTerminalWithOneCompleted(tasks, maxRetries) {
		t.Error("expected all-terminal with one completed to be true")
	}

	tasks2 := []Task{
		{Status: TaskCompleted},
		{Status: TaskFailed, RetryCount: 1},
	}
	if AllTerminalWithOneCompleted(tasks2, maxRetries) {
		t.Error("expected false: a failed task still has retry budget")
	}

	tasks3 := []Task{
		{Status: TaskFailed, RetryCount: 3},
		{Status: TaskFailed, RetryCount: 3},
	}
	if AllTerminalWithOneCompleted(tasks3, maxRetries) {
		t.Error("expected false: no task completed")
	}
}
