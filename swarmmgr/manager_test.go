package swarmmgr

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/eventbus"
	"github.com/2389-research/swarmkernel/llm"
	"github.com/2389-research/swarmkernel/planner"
	"github.com/2389-research/swarmkernel/scope"
)

// fakeStore is an in-memory Store good enough to exercise SwarmManager's
// orchestration logic without a real database.
type fakeStore struct {
	swarms map[ulid.ULID]*core.Swarm
	agents map[ulid.ULID][]core.Agent
	tasks  map[ulid.ULID][]core.Task
	events []core.OrchestrationEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		swarms: make(map[ulid.ULID]*core.Swarm),
		agents: make(map[ulid.ULID][]core.Agent),
		tasks:  make(map[ulid.ULID][]core.Task),
	}
}

func (f *fakeStore) CreateSwarm(sc *core.Scope, agents []core.Agent, tasks []core.Task) (ulid.ULID, error) {
	id := core.NewULID()
	f.swarms[id] = &core.Swarm{ID: id, Name: sc.Project, Status: core.SwarmIdle, NumAgents: len(agents), Metadata: sc.ToMetadata()}
	for i := range agents {
		agents[i].SwarmID = id
	}
	for i := range tasks {
		tasks[i].SwarmID = id
	}
	f.agents[id] = agents
	f.tasks[id] = tasks
	return id, nil
}

func (f *fakeStore) GetSwarm(id ulid.ULID) (*core.Swarm, []core.Agent, []core.Task, error) {
	swarm, ok := f.swarms[id]
	if !ok {
		return nil, nil, nil, core.NewNotFound("swarm not found")
	}
	return swarm, f.agents[id], f.tasks[id], nil
}

func (f *fakeStore) UpdateSwarmStatus(id ulid.ULID, newStatus core.SwarmStatus) error {
	swarm, ok := f.swarms[id]
	if !ok {
		return core.NewNotFound("swarm not found")
	}
	if !core.ValidSwarmTransition(swarm.Status, newStatus) {
		return core.NewInvalidTransition("bad swarm transition")
	}
	swarm.Status = newStatus
	return nil
}

func (f *fakeStore) UpdateTaskStatus(swarmID, taskID ulid.ULID, newStatus core.TaskStatus, output json.RawMessage, lastError string) error {
	tasks := f.tasks[swarmID]
	for i := range tasks {
		if tasks[i].ID == taskID {
			if !core.ValidTaskTransition(tasks[i].Status, newStatus) {
				return core.NewInvalidTransition("bad task transition")
			}
			tasks[i].Status = newStatus
			tasks[i].LastError = lastError
			return nil
		}
	}
	return core.NewNotFound("task not found")
}

func (f *fakeStore) AppendEvent(event core.OrchestrationEvent) error {
	f.events = append(f.events, event)
	return nil
}

func fallbackCompleter() llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", &llm.UnavailableError{}
	})
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	m := &Manager{
		Store:      store,
		Extractor:  &scope.Extractor{Completer: fallbackCompleter()},
		Planner:    &planner.Planner{Completer: fallbackCompleter(), Roster: planner.DefaultRoles()},
		Bus:        eventbus.New(0),
		MaxRetries: 3,
	}
	return m, store
}

func TestProcessVagueMessageReturnsClarify(t *testing.T) {
	m, _ := newTestManager()
	result, err := m.Process(context.Background(), "hi", nil, 3)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != "clarify" {
		t.Fatalf("Status = %q, want clarify", result.Status)
	}
}

func TestProcessCreatesSwarmOnClearMessage(t *testing.T) {
	m, store := newTestManager()
	result, err := m.Process(context.Background(), "build me a todo app with auth and a dashboard", nil, 3)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.Status != "success" || result.SwarmID == nil {
		t.Fatalf("result = %+v, want success with a swarm id", result)
	}
	if len(store.agents[*result.SwarmID]) != 3 {
		t.Fatalf("agents = %d, want 3", len(store.agents[*result.SwarmID]))
	}
}

func TestUpdateTaskCascadesSwarmCompletion(t *testing.T) {
	m, store := newTestManager()
	swarmID, err := m.CreateFromScope(context.Background(), &core.Scope{Project: "P", Goal: "G", TechStack: core.DefaultTechStack()}, 1)
	if err != nil {
		t.Fatalf("CreateFromScope() error = %v", err)
	}
	tasks := store.tasks[swarmID]
	if len(tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(tasks))
	}
	taskID := tasks[0].ID

	if err := m.UpdateTask(swarmID, taskID, core.TaskInProgress, nil); err != nil {
		t.Fatalf("UpdateTask(in-progress) error = %v", err)
	}
	if err := m.UpdateTask(swarmID, taskID, core.TaskCompleted, nil); err != nil {
		t.Fatalf("UpdateTask(completed) error = %v", err)
	}

	swarm := store.swarms[swarmID]
	if swarm.Status != core.SwarmCompleted {
		t.Fatalf("swarm.Status = %v, want completed", swarm.Status)
	}
}

func TestPauseAndResume(t *testing.T) {
	m, store := newTestManager()
	swarmID, err := m.CreateFromScope(context.Background(), &core.Scope{Project: "P", Goal: "G", TechStack: core.DefaultTechStack()}, 1)
	if err != nil {
		t.Fatalf("CreateFromScope() error = %v", err)
	}
	if err := m.Store.UpdateSwarmStatus(swarmID, core.SwarmRunning); err != nil {
		t.Fatalf("seed running state: %v", err)
	}
	if err := m.Pause(swarmID); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if store.swarms[swarmID].Status != core.SwarmPaused {
		t.Fatalf("status = %v, want paused", store.swarms[swarmID].Status)
	}
	if err := m.Resume(swarmID); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if store.swarms[swarmID].Status != core.SwarmRunning {
		t.Fatalf("status = %v, want running", store.swarms[swarmID].Status)
	}
}

func TestGetPlannerView(t *testing.T) {
	m, _ := newTestManager()
	swarmID, err := m.CreateFromScope(context.Background(), &core.Scope{Project: "P", Goal: "G", TechStack: core.DefaultTechStack()}, 3)
	if err != nil {
		t.Fatalf("CreateFromScope() error = %v", err)
	}
	view, err := m.GetPlannerView(swarmID)
	if err != nil {
		t.Fatalf("GetPlannerView() error = %v", err)
	}
	if len(view) != 3 {
		t.Fatalf("len(view) = %d, want 3", len(view))
	}
	for _, pt := range view {
		if pt.Role == "" {
			t.Errorf("PlannerTask.Role is empty for task %v", pt.Task.ID)
		}
	}
}
