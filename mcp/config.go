// ABOUTME: Configuration for the MCP tool-worker endpoint(s) the gateway connects to.
// ABOUTME: Kept deliberately small: this kernel calls a single configured worker, not a discovery set.
package mcp

import "time"

// ServerConfig describes one MCP tool-worker process the gateway can reach.
// Transport mirrors the three shapes the go-sdk supports: a subprocess over
// stdio ("command"), or a long-lived HTTP endpoint ("streamable_http", "sse").
type ServerConfig struct {
	Name      string
	Transport string // "command", "streamable_http", or "sse"
	Command   string
	Args      []string
	Env       map[string]string
	Endpoint  string // required for streamable_http/sse

	CallTimeout time.Duration
}

// DefaultCallTimeout is used when ServerConfig.CallTimeout is zero.
const DefaultCallTimeout = 30 * time.Second

func (c ServerConfig) callTimeout() time.Duration {
	if c.CallTimeout > 0 {
		return c.CallTimeout
	}
	return DefaultCallTimeout
}
