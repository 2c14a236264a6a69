// ABOUTME: Role vocabulary as data, not hardcoded types — recognized roles are configuration, never a switch statement.
// ABOUTME: Ships both the 3-role default roster and the legacy 5-role vocabulary.
package planner

// RoleSpec describes one agent role: its prompt template for subtask
// generation and the default tool list a fallback subtask gets.
type RoleSpec struct {
	Name           string
	PromptTemplate string
	DefaultTools   []string
	DependsOn      []string // role names this role's top-level task depends on
}

// DefaultRoles is the three-role roster used as the default:
// frontend_architect, backend_integrator, deployment_guardian. The third
// role depends on the first two.
func DefaultRoles() []RoleSpec {
	return []RoleSpec{
		{
			Name:           "frontend_architect",
			PromptTemplate: frontendPromptTemplate,
			DefaultTools:   []string{"frontend_architect-tools"},
		},
		{
			Name:           "backend_integrator",
			PromptTemplate: backendPromptTemplate,
			DefaultTools:   []string{"backend_integrator-tools"},
		},
		{
			Name:           "deployment_guardian",
			PromptTemplate: deploymentPromptTemplate,
			DefaultTools:   []string{"deployment_guardian-tools"},
			DependsOn:      []string{"frontend_architect", "backend_integrator"},
		},
	}
}

// LegacyRoles is the older five-role vocabulary kept selectable by
// configuration for deployments that haven't moved to DefaultRoles:
// research, design, implementation, brainstormer, critic. brainstormer runs
// independently of the research/design/implementation chain to widen the
// option space before implementation locks in; critic reviews the
// implementation output once it's done.
func LegacyRoles() []RoleSpec {
	return []RoleSpec{
		{
			Name:           "research",
			PromptTemplate: researchPromptTemplate,
			DefaultTools:   []string{"research-tools"},
		},
		{
			Name:           "design",
			PromptTemplate: designPromptTemplate,
			DefaultTools:   []string{"design-tools"},
		},
		{
			Name:           "implementation",
			PromptTemplate: implementationPromptTemplate,
			DefaultTools:   []string{"implementation-tools"},
			DependsOn:      []string{"research", "design"},
		},
		{
			Name:           "brainstormer",
			PromptTemplate: brainstormerPromptTemplate,
			DefaultTools:   []string{"brainstormer-tools"},
		},
		{
			Name:           "critic",
			PromptTemplate: criticPromptTemplate,
			DefaultTools:   []string{"critic-tools"},
			DependsOn:      []string{"implementation"},
		},
	}
}

const (
	frontendPromptTemplate = "You are the frontend_architect for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering UI structure, component breakdown, state management, and styling. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	backendPromptTemplate = "You are the backend_integrator for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering API design, data model, business logic, and integration wiring. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	deploymentPromptTemplate = "You are the deployment_guardian for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering build pipeline, environment config, deployment, and monitoring. " +
		"Emit a JSON array of {id, title, description, priority, tools}."

	researchPromptTemplate = "You are the research lead for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering requirements gathering, prior art, constraints, and feasibility. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	designPromptTemplate = "You are the design lead for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering architecture, data model, API contracts, and UX flow. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	implementationPromptTemplate = "You are the implementation lead for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering scaffolding, core logic, tests, and integration. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	brainstormerPromptTemplate = "You are the brainstormer for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering alternative approaches, risk framing, scope trade-offs, and open questions. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
	criticPromptTemplate = "You are the critic for project %q (goal: %s). " +
		"Produce exactly 4 subtasks covering correctness review, edge-case audit, regression risk, and sign-off criteria. " +
		"Emit a JSON array of {id, title, description, priority, tools}."
)

// Find returns the RoleSpec named name from roster, or false if absent.
func Find(roster []RoleSpec, name string) (RoleSpec, bool) {
	for _, r := range roster {
		if r.Name == name {
			return r, true
		}
	}
	return RoleSpec{}, false
}
