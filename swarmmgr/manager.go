// ABOUTME: SwarmManager is the API's write path into Store: lifecycle operations plus the ScopeExtractor+Planner pipeline.
// ABOUTME: The RetryMonitor does not go through it; it writes its retry transitions and events to the Store directly.
// ABOUTME: Emits an OrchestrationEvent for every transition it drives, on the shared EventBus.
package swarmmgr

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/eventbus"
	"github.com/2389-research/swarmkernel/planner"
	"github.com/2389-research/swarmkernel/scope"
)

// Store is the subset of store.Store's methods SwarmManager depends on,
// narrowed to an interface so tests can substitute a fake.
type Store interface {
	CreateSwarm(sc *core.Scope, agents []core.Agent, tasks []core.Task) (ulid.ULID, error)
	GetSwarm(id ulid.ULID) (*core.Swarm, []core.Agent, []core.Task, error)
	UpdateSwarmStatus(id ulid.ULID, newStatus core.SwarmStatus) error
	UpdateTaskStatus(swarmID, taskID ulid.ULID, newStatus core.TaskStatus, output json.RawMessage, lastError string) error
	AppendEvent(event core.OrchestrationEvent) error
}

// ProcessResult is SwarmManager.Process's response shape.
type ProcessResult struct {
	Status  string // "clarify" | "success"
	Message string
	SwarmID *ulid.ULID
}

// Manager implements the five SwarmManager operations.
type Manager struct {
	Store     Store
	Extractor *scope.Extractor
	Planner   *planner.Planner
	Bus       *eventbus.Bus
	MaxRetries int
}

// CreateFromScope runs the Planner over sc and persists the result.
func (m *Manager) CreateFromScope(ctx context.Context, sc *core.Scope, numAgents int) (ulid.ULID, error) {
	// Planner needs a swarm ID to stamp onto agents/tasks before the swarm
	// row exists; Store.CreateSwarm assigns the authoritative one and we
	// re-stamp below so the two never disagree.
	provisional := core.NewULID()
	agents, tasks, err := m.Planner.Plan(ctx, provisional, sc, numAgents)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("planning: %w", err)
	}

	swarmID, err := m.Store.CreateSwarm(sc, agents, tasks)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("persisting swarm: %w", err)
	}

	m.emit(swarmID, nil, core.EventCreate, "swarm created")
	return swarmID, nil
}

// Process combines ScopeExtractor and CreateFromScope into the top-level
// entry point for a raw user message.
func (m *Manager) Process(ctx context.Context, userMessage string, history []string, numAgents int) (ProcessResult, error) {
	result, err := m.Extractor.Extract(ctx, userMessage, history)
	if err != nil {
		return ProcessResult{}, err
	}
	if result.NeedsClarification() {
		return ProcessResult{Status: "clarify", Message: result.ClarifyPrompt}, nil
	}

	swarmID, err := m.CreateFromScope(ctx, result.Scope, numAgents)
	if err != nil {
		return ProcessResult{}, err
	}
	return ProcessResult{Status: "success", SwarmID: &swarmID}, nil
}

// PlannerTask is one top-level entry in the planner-view tree: an agent's
// task with its subtasks nested underneath.
type PlannerTask struct {
	AgentID  ulid.ULID
	Role     string
	Task     core.Task
	Subtasks []core.Subtask
}

// GetPlannerView produces the agent-rooted tree the planner UI renders.
func (m *Manager) GetPlannerView(id ulid.ULID) ([]PlannerTask, error) {
	_, agents, tasks, err := m.Store.GetSwarm(id)
	if err != nil {
		return nil, err
	}
	roleByAgent := make(map[ulid.ULID]string, len(agents))
	for _, a := range agents {
		roleByAgent[a.ID] = a.Role
	}

	view := make([]PlannerTask, 0, len(tasks))
	for _, t := range tasks {
		var role string
		var agentID ulid.ULID
		if t.AgentID != nil {
			agentID = *t.AgentID
			role = roleByAgent[*t.AgentID]
		}
		view = append(view, PlannerTask{AgentID: agentID, Role: role, Task: t, Subtasks: t.Data.Subtasks})
	}
	return view, nil
}

// UpdateTask validates and applies a task transition. A task entering
// in-progress moves an idle swarm to running; a task completing applies the
// completion-cascade rule: if every sibling task in the swarm is now
// terminal and at least one completed, the swarm itself transitions to
// completed.
func (m *Manager) UpdateTask(swarmID, taskID ulid.ULID, newStatus core.TaskStatus, output json.RawMessage) error {
	var lastError string
	if err := m.Store.UpdateTaskStatus(swarmID, taskID, newStatus, output, lastError); err != nil {
		return err
	}

	eventType := core.EventAssign
	switch newStatus {
	case core.TaskCompleted:
		eventType = core.EventComplete
	case core.TaskFailed, core.TaskNeedHelp:
		eventType = core.EventFail
	}
	m.emit(swarmID, &taskID, eventType, fmt.Sprintf("task -> %s", newStatus))

	if newStatus == core.TaskInProgress {
		// The first task entering in-progress moves an idle swarm to running.
		swarm, _, _, err := m.Store.GetSwarm(swarmID)
		if err != nil {
			return err
		}
		if swarm.Status == core.SwarmIdle {
			if err := m.Store.UpdateSwarmStatus(swarmID, core.SwarmRunning); err != nil {
				return err
			}
			m.emit(swarmID, nil, core.EventAssign, "swarm running")
		}
		return nil
	}
	if newStatus != core.TaskCompleted {
		return nil
	}

	_, _, tasks, err := m.Store.GetSwarm(swarmID)
	if err != nil {
		return err
	}
	if core.AllTerminalWithOneCompleted(tasks, m.MaxRetries) {
		if err := m.Store.UpdateSwarmStatus(swarmID, core.SwarmCompleted); err != nil {
			return err
		}
		m.emit(swarmID, nil, core.EventComplete, "swarm completed")
	}
	return nil
}

// Pause halts the swarm, taking it out of RetryMonitor consideration.
func (m *Manager) Pause(swarmID ulid.ULID) error {
	if err := m.Store.UpdateSwarmStatus(swarmID, core.SwarmPaused); err != nil {
		return err
	}
	m.emit(swarmID, nil, core.EventPause, "swarm paused")
	return nil
}

// Resume returns a paused swarm to running.
func (m *Manager) Resume(swarmID ulid.ULID) error {
	if err := m.Store.UpdateSwarmStatus(swarmID, core.SwarmRunning); err != nil {
		return err
	}
	m.emit(swarmID, nil, core.EventResume, "swarm resumed")
	return nil
}

func (m *Manager) emit(swarmID ulid.ULID, taskID *ulid.ULID, eventType core.EventType, details string) {
	event := core.OrchestrationEvent{SwarmID: swarmID, TaskID: taskID, EventType: eventType, Details: details}
	if m.Store != nil {
		_ = m.Store.AppendEvent(event)
	}
	if m.Bus != nil {
		m.Bus.Publish(event)
	}
}
