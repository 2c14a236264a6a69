// ABOUTME: Gateway implementation wrapping modelcontextprotocol/go-sdk/mcp.Client for a single tool worker.
// ABOUTME: Invoke never propagates a transport error: every failure mode collapses into InvokeResult.Error.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// KernelGateway is the default Gateway: one sdk client per configured
// ServerConfig, a fresh session per Invoke. Sessions are not kept alive across
// calls since the kernel's tool calls are infrequent and idempotency is the
// caller's responsibility per spec, not the gateway's.
type KernelGateway struct {
	servers map[string]ServerConfig

	mu      sync.Mutex
	clients map[string]*sdkmcp.Client
}

// NewKernelGateway builds a gateway over the given named tool workers, keyed
// by the name used in POST /tools/{tool_name} routing.
func NewKernelGateway(servers map[string]ServerConfig) *KernelGateway {
	return &KernelGateway{
		servers: servers,
		clients: make(map[string]*sdkmcp.Client),
	}
}

// Invoke calls toolName against its configured worker. swarmID/agentID are
// carried for logging/correlation only — the go-sdk has no notion of them.
func (g *KernelGateway) Invoke(ctx context.Context, toolName string, args map[string]any, swarmID, agentID string) *InvokeResult {
	cfg, ok := g.servers[toolName]
	if !ok {
		return &InvokeResult{Success: false, Error: fmt.Sprintf("mcp: no worker configured for tool %q", toolName)}
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.callTimeout())
	defer cancel()

	session, err := g.connect(callCtx, cfg)
	if err != nil {
		return &InvokeResult{Success: false, Error: err.Error()}
	}
	defer session.Close()

	result, err := session.CallTool(callCtx, &sdkmcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		return &InvokeResult{Success: false, Error: fmt.Sprintf("call tool %q (swarm=%s agent=%s): %v", toolName, swarmID, agentID, err)}
	}

	output, toolErr := formatCallToolResult(result)
	if toolErr != "" {
		return &InvokeResult{Success: false, Output: output, Error: toolErr}
	}
	return &InvokeResult{Success: true, Output: output}
}

func (g *KernelGateway) connect(ctx context.Context, cfg ServerConfig) (*sdkmcp.ClientSession, error) {
	g.mu.Lock()
	client, ok := g.clients[cfg.Name]
	if !ok {
		client = sdkmcp.NewClient(&sdkmcp.Implementation{
			Name:    "swarmkernel-" + sanitizeImplName(cfg.Name),
			Version: "v1",
		}, nil)
		g.clients[cfg.Name] = client
	}
	g.mu.Unlock()

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect mcp worker %q: %w", cfg.Name, err)
	}
	return session, nil
}

func buildTransport(cfg ServerConfig) (sdkmcp.Transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Transport)) {
	case "", "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("mcp worker %q: command transport requires Command", cfg.Name)
		}
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Stderr = os.Stderr
		if len(cfg.Env) > 0 {
			env := os.Environ()
			for k, v := range cfg.Env {
				env = append(env, k+"="+v)
			}
			cmd.Env = env
		}
		return &sdkmcp.CommandTransport{Command: cmd}, nil
	case "streamable_http":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("mcp worker %q: streamable_http transport requires Endpoint", cfg.Name)
		}
		return &sdkmcp.StreamableClientTransport{Endpoint: cfg.Endpoint}, nil
	case "sse":
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("mcp worker %q: sse transport requires Endpoint", cfg.Name)
		}
		return &sdkmcp.SSEClientTransport{Endpoint: cfg.Endpoint}, nil
	default:
		return nil, fmt.Errorf("mcp worker %q: unsupported transport %q", cfg.Name, cfg.Transport)
	}
}

// formatCallToolResult renders a CallToolResult to text, returning a non-empty
// second value when the tool itself reported an error (IsError), distinct
// from a transport-level failure.
func formatCallToolResult(result *sdkmcp.CallToolResult) (output string, toolErr string) {
	if result == nil {
		return "", "mcp: empty tool result"
	}
	if text, ok := singleTextContent(result); ok && result.StructuredContent == nil {
		if result.IsError {
			return text, text
		}
		return text, ""
	}

	payload := map[string]any{"is_error": result.IsError}
	if len(result.Content) > 0 {
		payload["content"] = result.Content
	}
	if result.StructuredContent != nil {
		payload["structured_content"] = result.StructuredContent
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Sprintf("mcp: marshaling tool result: %v", err)
	}
	if result.IsError {
		return string(data), string(data)
	}
	return string(data), ""
}

func singleTextContent(result *sdkmcp.CallToolResult) (string, bool) {
	if len(result.Content) != 1 {
		return "", false
	}
	tc, ok := result.Content[0].(*sdkmcp.TextContent)
	if !ok {
		return "", false
	}
	return tc.Text, true
}

func sanitizeImplName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "worker"
	}
	return b.String()
}
