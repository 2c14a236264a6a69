package planner

import (
	"context"
	"testing"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/llm"
)

func scopeForTest() *core.Scope {
	return &core.Scope{Project: "Todo App", Goal: "build a todo app", TechStack: core.DefaultTechStack()}
}

func TestPlanGeneratesOneTaskPerRole(t *testing.T) {
	completer := llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", &llm.UnavailableError{} // force fallback subtasks, keep focus on task/agent shape
	})
	p := &Planner{Completer: completer, Roster: DefaultRoles()}
	agents, tasks, err := p.Plan(context.Background(), core.NewULID(), scopeForTest(), 3)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(agents) != 3 || len(tasks) != 3 {
		t.Fatalf("got %d agents, %d tasks; want 3 and 3", len(agents), len(tasks))
	}
	if tasks[2].Data.Dependencies == nil || len(tasks[2].Data.Dependencies) != 2 {
		t.Fatalf("deployment_guardian task dependencies = %v, want 2 entries", tasks[2].Data.Dependencies)
	}
}

func TestPlanTruncatesRosterForSingleAgent(t *testing.T) {
	completer := llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", &llm.UnavailableError{}
	})
	p := &Planner{Completer: completer, Roster: DefaultRoles()}
	agents, tasks, err := p.Plan(context.Background(), core.NewULID(), scopeForTest(), 1)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(agents) != 1 || len(tasks) != 1 {
		t.Fatalf("got %d agents, %d tasks; want 1 and 1", len(agents), len(tasks))
	}
	if len(tasks[0].Data.Dependencies) != 0 {
		t.Fatalf("dependencies = %v, want none (dangling edges dropped)", tasks[0].Data.Dependencies)
	}
}

func TestGenerateSubtasksParsesStructuredResponse(t *testing.T) {
	response := `[
		{"id":"1.1","title":"Layout","description":"d","priority":"high","tools":["react"]},
		{"id":"1.2","title":"State","description":"d","priority":"medium","tools":["redux"]},
		{"id":"1.3","title":"Styling","description":"d","priority":"low","tools":["css"]},
		{"id":"1.4","title":"Routing","description":"d","priority":"medium","tools":["router"]}
	]`
	completer := llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return response, nil
	})
	p := &Planner{Completer: completer, Roster: DefaultRoles()}
	subtasks := p.generateSubtasks(context.Background(), DefaultRoles()[0], scopeForTest(), 1)
	if len(subtasks) != 4 {
		t.Fatalf("len(subtasks) = %d, want 4", len(subtasks))
	}
	if subtasks[0].ID != "1.1" || subtasks[0].Title != "Layout" {
		t.Fatalf("subtasks[0] = %+v, want id 1.1 title Layout", subtasks[0])
	}
}

func TestGenerateSubtasksFallsBackOnMalformedResponse(t *testing.T) {
	completer := llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "not an array", nil
	})
	role := DefaultRoles()[0]
	p := &Planner{Completer: completer}
	subtasks := p.generateSubtasks(context.Background(), role, scopeForTest(), 2)
	if len(subtasks) != 1 {
		t.Fatalf("len(subtasks) = %d, want 1 (fallback)", len(subtasks))
	}
	if subtasks[0].ID != "2.1" || subtasks[0].Title != role.Name+" task 1" {
		t.Fatalf("fallback subtask = %+v", subtasks[0])
	}
}

func TestFindRole(t *testing.T) {
	if _, ok := Find(DefaultRoles(), "frontend_architect"); !ok {
		t.Error("Find() did not locate frontend_architect")
	}
	if _, ok := Find(DefaultRoles(), "nonexistent"); ok {
		t.Error("Find() located a role that doesn't exist")
	}
}
