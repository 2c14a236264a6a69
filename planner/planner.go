// ABOUTME: Planner turns a validated Scope into an agent roster and a task tree, per role.
// ABOUTME: Roles are data (RoleSpec), never a hardcoded switch — swapping rosters is a configuration change.
package planner

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/llm"
)

// Planner generates agents and tasks for a Scope using the given role
// roster. Roster is typically planner.DefaultRoles() or planner.LegacyRoles(),
// but callers may supply any RoleSpec slice loaded from configuration.
type Planner struct {
	Completer llm.Completer
	Roster    []RoleSpec
}

// Plan generates one Agent and one top-level Task (with 4 generated
// subtasks) per role, for swarmID. numAgents truncates p.Roster to its first
// numAgents roles (clamped to the roster length); dependency edges
// referencing a role that fell outside that truncation are dropped rather
// than left dangling. Tasks are returned in role order; subtask IDs are
// "<taskNumber>.<subtaskNumber>" assigned here, where taskNumber is the
// 1-based role position.
func (p *Planner) Plan(ctx context.Context, swarmID ulid.ULID, sc *core.Scope, numAgents int) ([]core.Agent, []core.Task, error) {
	roster := p.Roster
	if numAgents > 0 && numAgents < len(roster) {
		roster = roster[:numAgents]
	}

	agents := make([]core.Agent, 0, len(roster))
	tasks := make([]core.Task, 0, len(roster))

	for i, role := range roster {
		taskNumber := i + 1

		agent := core.Agent{
			ID:      core.NewULID(),
			SwarmID: swarmID,
			Role:    role.Name,
		}
		agents = append(agents, agent)

		subtasks := p.generateSubtasks(ctx, role, sc, taskNumber)

		dependencies := make([]string, 0, len(role.DependsOn))
		for j, dep := range roster {
			for _, depName := range role.DependsOn {
				if dep.Name == depName {
					dependencies = append(dependencies, fmt.Sprintf("%d", j+1))
				}
			}
		}

		task := core.Task{
			ID:          core.NewULID(),
			SwarmID:     swarmID,
			AgentID:     &agent.ID,
			Status:      core.TaskPending,
			Description: role.Name + " plan",
			Priority:    len(roster) - i, // earlier roles rank higher; advisory only
			Data: core.TaskData{
				Title:        role.Name + " plan",
				Dependencies: dependencies,
				Subtasks:     subtasks,
			},
		}
		tasks = append(tasks, task)
	}

	return agents, tasks, nil
}

// generateSubtasks calls the Completer with the role's prompt and parses
// exactly 4 subtasks out of the response, falling back to a single
// deterministic subtask if generation or parsing fails.
func (p *Planner) generateSubtasks(ctx context.Context, role RoleSpec, sc *core.Scope, taskNumber int) []core.Subtask {
	prompt := fmt.Sprintf(role.PromptTemplate, sc.Project, sc.Goal)
	text, err := p.Completer.Complete(ctx, prompt, llm.Options{Temperature: 0.4, MaxTokens: 1024})
	if err != nil {
		return fallbackSubtasks(role, taskNumber)
	}

	payload, ok := parseSubtasks(text)
	if !ok {
		return fallbackSubtasks(role, taskNumber)
	}

	subtasks := make([]core.Subtask, len(payload))
	for i, sp := range payload {
		priority := sp.Priority
		if priority == "" {
			priority = "medium"
		}
		tools := sp.Tools
		if len(tools) == 0 {
			tools = role.DefaultTools
		}
		subtasks[i] = core.Subtask{
			ID:          fmt.Sprintf("%d.%d", taskNumber, i+1),
			Title:       sp.Title,
			Description: sp.Description,
			Status:      core.TaskPending,
			Priority:    priority,
			Tools:       tools,
		}
	}
	return subtasks
}

func fallbackSubtasks(role RoleSpec, taskNumber int) []core.Subtask {
	return []core.Subtask{
		{
			ID:       fmt.Sprintf("%d.1", taskNumber),
			Title:    role.Name + " task 1",
			Status:   core.TaskPending,
			Priority: "medium",
			Tools:    role.DefaultTools,
		},
	}
}
