// ABOUTME: MCPGateway capability contract: Invoke(tool, args, swarm, agent) -> InvokeResult, never a transport error.
// ABOUTME: Transport is unreliable and the call deadline is always explicit, so every failure mode collapses into InvokeResult.Error.
package mcp

import "context"

// InvokeResult is what every Invoke call returns, success or failure. The
// gateway never returns a Go error for a transport failure — it folds the
// failure into this struct so the kernel's retry/fallback logic has one shape
// to deal with regardless of cause.
type InvokeResult struct {
	Success bool
	Output  string
	Error   string
}

// Gateway is the capability the rest of the kernel depends on. The API's
// /tools/{toolName} route calls Invoke; nothing downstream imports the go-sdk
// directly.
type Gateway interface {
	Invoke(ctx context.Context, toolName string, args map[string]any, swarmID, agentID string) *InvokeResult
}
