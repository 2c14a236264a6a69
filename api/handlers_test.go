package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/swarmkernel/auth"
	"github.com/2389-research/swarmkernel/core"
	"github.com/2389-research/swarmkernel/eventbus"
	"github.com/2389-research/swarmkernel/llm"
	"github.com/2389-research/swarmkernel/mcp"
	"github.com/2389-research/swarmkernel/planner"
	"github.com/2389-research/swarmkernel/scope"
	"github.com/2389-research/swarmkernel/store"
	"github.com/2389-research/swarmkernel/swarmmgr"
)

type fakeGateway struct{}

func (fakeGateway) Invoke(ctx context.Context, toolName string, args map[string]any, swarmID, agentID string) *mcp.InvokeResult {
	return &mcp.InvokeResult{Success: true, Output: "ok:" + toolName}
}

func fallbackCompleter() llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string, opts llm.Options) (string, error) {
		return "", &llm.UnavailableError{}
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kernel.db")
	st, err := store.Open(dbPath, 3)
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	mgr := &swarmmgr.Manager{
		Store:      st,
		Extractor:  &scope.Extractor{Completer: fallbackCompleter()},
		Planner:    &planner.Planner{Completer: fallbackCompleter(), Roster: planner.DefaultRoles()},
		Bus:        eventbus.New(0),
		MaxRetries: 3,
	}
	registry := auth.NewRegistry(map[string][]string{
		"monitor-cred": {"SWARM_MONITOR"},
		"create-cred":  {"SWARM_CREATE", "AGENT_CONTROL"},
	}, "master-cred")

	return NewServer(Config{
		Addr:          "127.0.0.1:0",
		Manager:       mgr,
		Store:         st,
		Gateway:       fakeGateway{},
		Auth:          registry,
		Bus:           eventbus.New(0),
		PollIntervalS: 10,
	})
}

func doRequest(s *Server, method, path, credential string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthRouteIsUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateSwarmRequiresCapability(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/swarms", "monitor-cred", map[string]any{
		"project": "P", "goal": "G",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCreateAndGetSwarmRoundTrips(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/swarms", "create-cred", map[string]any{
		"project": "Todo App", "goal": "build it", "num_agents": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body=%s", rec.Code, rec.Body.String())
	}
	var created map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	swarmID := created["swarm_id"]
	if swarmID == "" {
		t.Fatal("expected a swarm_id in the create response")
	}

	rec = doRequest(s, http.MethodGet, "/swarms/"+swarmID, "monitor-cred", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestUpdateTaskValidatesTransition(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/swarms", "create-cred", map[string]any{
		"project": "P", "goal": "G", "num_agents": 1,
	})
	var created map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	swarmID, err := ulid.Parse(created["swarm_id"])
	if err != nil {
		t.Fatal(err)
	}

	view, err := s.manager.GetPlannerView(swarmID)
	if err != nil || len(view) == 0 {
		t.Fatalf("GetPlannerView() = %v, %v", view, err)
	}
	taskID := view[0].Task.ID

	rec = doRequest(s, http.MethodPut, "/tasks/"+taskID.String()+"?swarm_id="+swarmID.String(), "create-cred",
		map[string]any{"status": string(core.TaskCompleted)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 for pending->completed skip", rec.Code)
	}

	rec = doRequest(s, http.MethodPut, "/tasks/"+taskID.String()+"?swarm_id="+swarmID.String(), "create-cred",
		map[string]any{"status": string(core.TaskInProgress)})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for pending->in-progress, body=%s", rec.Code, rec.Body.String())
	}
}

func TestInvokeToolRoutesThroughGateway(t *testing.T) {
	s := newTestServer(t)
	registry := auth.NewRegistry(map[string][]string{
		"tool-cred": {"MCP_filesystem"},
	}, "")
	s.authz = registry

	rec := doRequest(s, http.MethodPost, "/tools/filesystem", "tool-cred", map[string]any{
		"args": map[string]any{"path": "/tmp"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}
