// ABOUTME: Route handlers for the kernel's HTTP surface, one per entry in the external-interfaces table.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/core"
)

const maxRequestBody = 1 << 20 // 1MB cap on request bodies

type processRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, core.NewBadRequest("%v", err))
		return
	}
	if req.Message == "" {
		writeError(w, core.NewBadRequest("message is required"))
		return
	}

	result, err := s.manager.Process(r.Context(), req.Message, nil, 3)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"status": result.Status, "message": result.Message}
	if result.SwarmID != nil {
		resp["swarm_id"] = result.SwarmID.String()
		resp["planner_url"] = "/api/planner/" + result.SwarmID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

type createSwarmRequest struct {
	Project   string            `json:"project"`
	Goal      string            `json:"goal"`
	TechStack map[string]string `json:"tech_stack"`
	Features  []string          `json:"features"`
	NumAgents int               `json:"num_agents"`
}

func (s *Server) handleCreateSwarm(w http.ResponseWriter, r *http.Request) {
	var req createSwarmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, core.NewBadRequest("%v", err))
		return
	}
	if req.Project == "" || req.Goal == "" {
		writeError(w, core.NewBadRequest("project and goal are required"))
		return
	}
	numAgents := req.NumAgents
	if numAgents <= 0 {
		numAgents = 3
	}

	sc := &core.Scope{
		Project:   req.Project,
		Goal:      req.Goal,
		TechStack: req.TechStack,
		Features:  req.Features,
	}
	if len(sc.TechStack) == 0 {
		sc.TechStack = core.DefaultTechStack()
	}

	swarmID, err := s.manager.CreateFromScope(r.Context(), sc, numAgents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"swarm_id": swarmID.String()})
}

func (s *Server) handleListSwarms(w http.ResponseWriter, r *http.Request) {
	swarms, err := s.store.ListSwarms()
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(swarms))
	for _, sw := range swarms {
		out = append(out, map[string]any{
			"swarm_id":   sw.ID.String(),
			"name":       sw.Name,
			"status":     sw.Status,
			"num_agents": sw.NumAgents,
			"created_at": sw.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"swarms": out})
}

func (s *Server) handleGetSwarm(w http.ResponseWriter, r *http.Request) {
	id, err := parseULIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	swarm, agents, tasks, err := s.store.GetSwarm(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"swarm_id": swarm.ID.String(),
		"name":     swarm.Name,
		"status":   swarm.Status,
		"agents":   agents,
		"tasks":    tasks,
		"metadata": swarm.Metadata,
	})
}

func (s *Server) handlePlannerView(w http.ResponseWriter, r *http.Request) {
	id, err := parseULIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.manager.GetPlannerView(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": view})
}

type updateTaskRequest struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := parseULIDParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, core.NewBadRequest("%v", err))
		return
	}
	swarmID, err := ulid.Parse(r.URL.Query().Get("swarm_id"))
	if err != nil {
		writeError(w, core.NewBadRequest("swarm_id query parameter is required"))
		return
	}

	if err := s.manager.UpdateTask(swarmID, taskID, core.TaskStatus(req.Status), req.Data); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleSwarmHealth reports health for the swarm named by the required
// swarm_id query parameter, plus the daemon's poll interval and uptime.
func (s *Server) handleSwarmHealth(w http.ResponseWriter, r *http.Request) {
	swarmID, err := ulid.Parse(r.URL.Query().Get("swarm_id"))
	if err != nil {
		writeError(w, core.NewBadRequest("swarm_id query parameter is required"))
		return
	}
	summary, err := s.store.AggregateHealth(swarmID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"counts_by_status":   summary.CountsByStatus,
		"retry_success_rate": summary.RetrySuccessRate,
		"poll_interval":      s.pollIntervalS,
		"uptime_s":           int(time.Since(s.started).Seconds()),
	})
}

type invokeToolRequest struct {
	Args    map[string]any `json:"args"`
	SwarmID string         `json:"swarm_id"`
	AgentID string         `json:"agent_id"`
}

func (s *Server) handleInvokeTool(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "toolName")
	var req invokeToolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, core.NewBadRequest("%v", err))
		return
	}
	if s.gateway == nil {
		writeError(w, core.NewProviderFatal(nil, "no tool gateway configured"))
		return
	}
	result := s.gateway.Invoke(r.Context(), toolName, req.Args, req.SwarmID, req.AgentID)
	if !result.Success {
		writeJSON(w, http.StatusBadGateway, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func parseULIDParam(r *http.Request, name string) (ulid.ULID, error) {
	raw := chi.URLParam(r, name)
	id, err := ulid.Parse(raw)
	if err != nil {
		return ulid.ULID{}, core.NewBadRequest("invalid id %q", raw)
	}
	return id, nil
}
