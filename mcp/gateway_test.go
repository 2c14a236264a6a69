package mcp

import (
	"context"
	"testing"
)

func TestInvokeUnknownToolReturnsFailureNotError(t *testing.T) {
	g := NewKernelGateway(map[string]ServerConfig{})
	result := g.Invoke(context.Background(), "does-not-exist", nil, "swarm-1", "agent-1")
	if result.Success {
		t.Fatal("Invoke() Success = true for an unconfigured tool, want false")
	}
	if result.Error == "" {
		t.Fatal("Invoke() Error is empty, want a descriptive message")
	}
}

func TestBuildTransportRequiresCommandForCommandTransport(t *testing.T) {
	_, err := buildTransport(ServerConfig{Name: "w", Transport: "command"})
	if err == nil {
		t.Fatal("buildTransport() error = nil, want error for missing Command")
	}
}

func TestBuildTransportRequiresEndpointForHTTP(t *testing.T) {
	_, err := buildTransport(ServerConfig{Name: "w", Transport: "streamable_http"})
	if err == nil {
		t.Fatal("buildTransport() error = nil, want error for missing Endpoint")
	}
	_, err = buildTransport(ServerConfig{Name: "w", Transport: "sse"})
	if err == nil {
		t.Fatal("buildTransport() error = nil, want error for missing Endpoint")
	}
}

func TestBuildTransportRejectsUnknownKind(t *testing.T) {
	_, err := buildTransport(ServerConfig{Name: "w", Transport: "carrier-pigeon"})
	if err == nil {
		t.Fatal("buildTransport() error = nil, want error for unsupported transport")
	}
}

func TestSanitizeImplName(t *testing.T) {
	if got := sanitizeImplName("my tool!"); got != "my-tool-" {
		t.Fatalf("sanitizeImplName() = %q, want %q", got, "my-tool-")
	}
	if got := sanitizeImplName(""); got != "worker" {
		t.Fatalf("sanitizeImplName(\"\") = %q, want %q", got, "worker")
	}
}
