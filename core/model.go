// ABOUTME: Domain model for the orchestration kernel: Swarm, Agent, Task, Session, OrchestrationEvent, Scope.
// ABOUTME: Entity IDs are ULIDs; semi-structured fields stage as json.RawMessage at the store boundary.
package core

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// SwarmStatus is the lifecycle state of a Swarm.
type SwarmStatus string

const (
	SwarmIdle      SwarmStatus = "idle"
	SwarmRunning   SwarmStatus = "running"
	SwarmPaused    SwarmStatus = "paused"
	SwarmCompleted SwarmStatus = "completed"
	SwarmError     SwarmStatus = "error"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskInProgress  TaskStatus = "in-progress"
	TaskCompleted   TaskStatus = "completed"
	TaskFailed      TaskStatus = "failed"
	TaskNeedHelp    TaskStatus = "need-help"
)

// Swarm is a scoped unit of work comprising a set of cooperating agents and
// the task tree they share.
type Swarm struct {
	ID        ulid.ULID
	Name      string
	Status    SwarmStatus
	NumAgents int
	CreatedAt time.Time
	Metadata  map[string]any // includes project, goal, tech_stack, features, scope_of_works
}

// Agent is a typed participant in a swarm, responsible for a role's slice of
// the task tree.
type Agent struct {
	ID         ulid.ULID
	SwarmID    ulid.ULID
	Role       string
	State      AgentState
	AssignedAt time.Time
}

// AgentState is the mutable blob holding an agent's current assignment.
type AgentState struct {
	TaskID *ulid.ULID `json:"task_id,omitempty"`
}

// Task is a node in the two-level work tree; subtasks carry tool-invocation
// hints and are stored inline under Data.Subtasks.
type Task struct {
	ID         ulid.ULID
	SwarmID    ulid.ULID
	AgentID    *ulid.ULID
	Description string
	Status     TaskStatus
	Priority   int // higher = earlier
	Data       TaskData
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RetryCount int
	LastError  string
}

// TaskData is the structured payload of a task: inputs, outputs, tool list,
// and one level of subtasks.
type TaskData struct {
	Title        string          `json:"title"`
	Inputs       json.RawMessage `json:"inputs,omitempty"`
	Outputs      json.RawMessage `json:"outputs,omitempty"`
	Tools        []string        `json:"tools,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Subtasks     []Subtask       `json:"subtasks,omitempty"`
}

// Subtask is one ordered entry inside a task's subtask list.
type Subtask struct {
	ID          string     `json:"id"` // "<taskNumber>.<subtaskNumber>"
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    string     `json:"priority"` // high|medium|low, advisory only
	Tools       []string   `json:"tools,omitempty"`
}

// Session is a coarse-grained durable checkpoint so a restarted process can
// resume inspection of a swarm. Not required for correctness of a single run.
type Session struct {
	ID        ulid.ULID
	SwarmID   ulid.ULID
	Data      json.RawMessage // scope + progress snapshot
	Timestamp time.Time
}

// EventType enumerates the kinds of OrchestrationEvent the kernel appends.
type EventType string

const (
	EventCreate  EventType = "create"
	EventAssign  EventType = "assign"
	EventRetry   EventType = "retry"
	EventComplete EventType = "complete"
	EventFail    EventType = "fail"
	EventPause   EventType = "pause"
	EventResume  EventType = "resume"
)

// OrchestrationEvent is an append-only record of a state transition, used by
// the RetryMonitor's health statistics and for observability.
type OrchestrationEvent struct {
	ID        ulid.ULID
	SwarmID   ulid.ULID
	TaskID    *ulid.ULID
	EventType EventType
	Details   string
	Timestamp time.Time
}

// ScopeOfWorks is the sub-record of a Scope describing project boundaries.
type ScopeOfWorks struct {
	InScope    []string `json:"in_scope"`
	OutScope   []string `json:"out_scope"`
	Milestones []string `json:"milestones"`
	Risks      []string `json:"risks"`
	KPIs       []string `json:"kpis"`
}

// Scope is the validated, structured description of a project derived from a
// user message. It is transient — not persisted as its own row — but is
// embedded verbatim in Swarm.Metadata.
type Scope struct {
	Project      string            `json:"project"`
	Goal         string            `json:"goal"`
	TechStack    map[string]string `json:"tech_stack"` // role -> technology, e.g. "frontend": "Next.js"
	Features     []string          `json:"features"`
	Timeline     string            `json:"timeline"`
	Outcome      string            `json:"outcome"`
	ScopeOfWorks ScopeOfWorks      `json:"scope_of_works"`

	// Extra preserves unknown fields verbatim per the Scope invariant that
	// unrecognized fields survive round-tripping.
	Extra map[string]any `json:"-"`
}

// ToMetadata flattens a Scope into the map[string]any shape stored on
// Swarm.Metadata, preserving Extra fields.
func (s Scope) ToMetadata() map[string]any {
	m := map[string]any{
		"project":        s.Project,
		"goal":           s.Goal,
		"tech_stack":     s.TechStack,
		"features":       s.Features,
		"timeline":       s.Timeline,
		"outcome":        s.Outcome,
		"scope_of_works": s.ScopeOfWorks,
	}
	for k, v := range s.Extra {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return m
}

// DefaultTechStack returns the fallback tech stack used when extraction
// can't determine one, per the ScopeExtractor's fallback-Scope contract.
func DefaultTechStack() map[string]string {
	return map[string]string{
		"frontend": "React",
		"backend":  "Node.js",
		"database": "PostgreSQL",
	}
}
