// ABOUTME: Credential-to-capability authorization for bearer-token requests.
// ABOUTME: Credentials are opaque strings mapped to capability sets loaded once at startup from configuration.
package auth

import (
	"crypto/subtle"
	"net/http"
)

// Capability is a named permission a credential may hold.
type Capability string

const (
	SwarmCreate    Capability = "SWARM_CREATE"
	SwarmControl   Capability = "SWARM_CONTROL"
	SwarmMonitor   Capability = "SWARM_MONITOR"
	AgentControl   Capability = "AGENT_CONTROL"
	AgentMonitor   Capability = "AGENT_MONITOR"
	WorkspaceWrite Capability = "WORKSPACE_WRITE"
	WorkspaceRead  Capability = "WORKSPACE_READ"
	UISearch       Capability = "UI_SEARCH"
	AdminMaster    Capability = "ADMIN_MASTER"
	AdminReadonly  Capability = "ADMIN_READONLY"
)

// MCPCapability builds the route-specific "MCP_<tool family>" capability name
// for a tool invocation route.
func MCPCapability(toolFamily string) Capability {
	return Capability("MCP_" + toolFamily)
}

// Registry maps credentials to the capability sets they hold, plus the
// designated super-user master credential that satisfies any requirement.
// Loaded once at startup; read-only thereafter, so no locking is needed.
type Registry struct {
	grants map[string]map[Capability]bool
	master string
}

// NewRegistry builds a Registry from a credential->capability-list table and
// a super-user master credential (may be empty to disable the super-user
// bypass).
func NewRegistry(grants map[string][]string, master string) *Registry {
	r := &Registry{grants: make(map[string]map[Capability]bool), master: master}
	for cred, caps := range grants {
		set := make(map[Capability]bool, len(caps))
		for _, c := range caps {
			set[Capability(c)] = true
		}
		r.grants[cred] = set
	}
	return r
}

// Authenticate reports whether credential is known to the registry at all
// (constant-time compared against every configured credential and the master
// credential, so response timing doesn't leak which prefix matched).
func (r *Registry) Authenticate(credential string) bool {
	if credential == "" {
		return false
	}
	found := false
	if r.master != "" && constantTimeEqual(credential, r.master) {
		found = true
	}
	for cred := range r.grants {
		if constantTimeEqual(credential, cred) {
			found = true
		}
	}
	return found
}

// Authorize reports whether credential holds capability, either directly,
// via ADMIN_MASTER, or via the super-user master credential (which
// supersedes every capability check).
func (r *Registry) Authorize(credential string, capability Capability) bool {
	if r.master != "" && constantTimeEqual(credential, r.master) {
		return true
	}
	for cred, caps := range r.grants {
		if !constantTimeEqual(credential, cred) {
			continue
		}
		return caps[AdminMaster] || caps[capability]
	}
	return false
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Middleware returns an http.Handler middleware requiring capability on
// every request it wraps. Unauthenticated requests (no recognized
// credential) get 401; authenticated-but-unauthorized requests get 403. Use
// one Middleware value per route grouping — the capability is fixed per
// route, not inferred from the request.
func (r *Registry) Middleware(capability Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			credential := bearerToken(req)
			if !r.Authenticate(credential) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if !r.Authorize(credential, capability) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || h[:len(prefix)] != prefix {
		return ""
	}
	return h[len(prefix):]
}
