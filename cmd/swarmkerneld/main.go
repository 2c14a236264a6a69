// ABOUTME: CLI entrypoint for the orchestration kernel daemon.
// ABOUTME: Wires store, completer, MCP gateway, swarm manager, retry monitor, and HTTP server together, with signal-driven graceful shutdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389-research/swarmkernel/api"
	"github.com/2389-research/swarmkernel/auth"
	"github.com/2389-research/swarmkernel/eventbus"
	"github.com/2389-research/swarmkernel/llm"
	"github.com/2389-research/swarmkernel/mcp"
	"github.com/2389-research/swarmkernel/planner"
	"github.com/2389-research/swarmkernel/retrymonitor"
	"github.com/2389-research/swarmkernel/scope"
	"github.com/2389-research/swarmkernel/store"
	"github.com/2389-research/swarmkernel/swarmmgr"
)

var version = "dev"

// shutdownGrace bounds how long the HTTP server waits for in-flight requests
// to drain once a shutdown signal arrives.
const shutdownGrace = 30 * time.Second

// cliOverrides holds the flags that take precedence over their environment
// variable equivalents, for convenience at the command line.
type cliOverrides struct {
	port        int
	dbPath      string
	authConfig  string
	insecure    bool
	showVersion bool
}

func main() {
	loadDotEnv(".env")

	overrides := parseFlags()
	if overrides.showVersion {
		fmt.Printf("swarmkerneld %s\n", version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyOverrides(&cfg, overrides)

	if cfg.AuthConfigPath == "" && !overrides.insecure {
		fmt.Fprintln(os.Stderr, "error: AUTH_CONFIG_PATH (or -auth-config) is required unless -insecure is set")
		os.Exit(1)
	}

	os.Exit(run(cfg, overrides.insecure))
}

func parseFlags() cliOverrides {
	var o cliOverrides
	fs := flag.NewFlagSet("swarmkerneld", flag.ContinueOnError)
	fs.IntVar(&o.port, "port", 0, "HTTP port (overrides PORT)")
	fs.StringVar(&o.dbPath, "db-path", "", "SQLite database path (overrides DB_PATH)")
	fs.StringVar(&o.authConfig, "auth-config", "", "path to the credential/capability YAML file (overrides AUTH_CONFIG_PATH)")
	fs.BoolVar(&o.insecure, "insecure", false, "serve without authentication (local development only)")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: swarmkerneld [flags]\n\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return o
}

func applyOverrides(cfg *config, o cliOverrides) {
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.authConfig != "" {
		cfg.AuthConfigPath = o.authConfig
	}
}

// daemon bundles every long-lived dependency the kernel needs, so run can
// start and stop them as a unit.
type daemon struct {
	server  *api.Server
	monitor *retrymonitor.Monitor
	st      *store.Store
}

func buildDaemon(cfg config) (*daemon, error) {
	st, err := store.Open(cfg.DBPath, cfg.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.DBPath, err)
	}

	pool := llm.NewCredentialPool(cfg.CompleterKeys, 0)
	factory := buildAdapterFactory(cfg.resolveProvider(), cfg.CompleterModel)
	completer := llm.NewClient(factory, pool, llm.DefaultRetryPolicy())

	bus := eventbus.New(0)

	mgr := &swarmmgr.Manager{
		Store:      st,
		Extractor:  &scope.Extractor{Completer: completer},
		Planner:    &planner.Planner{Completer: completer, Roster: planner.DefaultRoles()},
		Bus:        bus,
		MaxRetries: cfg.MaxRetries,
	}

	gateway := mcp.NewKernelGateway(mcpServers(cfg))

	var registry *auth.Registry
	if cfg.AuthConfigPath != "" {
		registry, err = auth.LoadRegistry(cfg.AuthConfigPath)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("loading auth config: %w", err)
		}
	}

	server := api.NewServer(api.Config{
		Addr:          fmt.Sprintf(":%d", cfg.Port),
		Manager:       mgr,
		Store:         st,
		Gateway:       gateway,
		Auth:          registry,
		Bus:           bus,
		PollIntervalS: cfg.PollIntervalS,
	})

	monitor := &retrymonitor.Monitor{
		Store: st,
		Bus:   bus,
		Config: retrymonitor.Config{
			PollInterval: cfg.pollInterval(),
			MaxRetries:   cfg.MaxRetries,
			Backoff:      retrymonitor.BackoffConfig{Base: cfg.baseBackoff(), Max: cfg.maxBackoff()},
			HealthEveryNPoll: retrymonitor.DefaultConfig().HealthEveryNPoll,
		},
	}

	return &daemon{server: server, monitor: monitor, st: st}, nil
}

// mcpServers maps every role's default tool family onto the single
// configured MCP worker. The external-interfaces table only exposes one
// MCP_URL/MCP_CREDENTIAL pair, so every tool family is routed at the same
// endpoint; a deployment that needs per-family workers would extend this.
func mcpServers(cfg config) map[string]mcp.ServerConfig {
	if cfg.MCPURL == "" {
		return nil
	}
	families := []string{
		"frontend_architect-tools", "backend_integrator-tools", "deployment_guardian-tools",
		"research-tools", "design-tools", "implementation-tools",
		"brainstormer-tools", "critic-tools",
	}
	servers := make(map[string]mcp.ServerConfig, len(families))
	for _, name := range families {
		servers[name] = mcp.ServerConfig{
			Name:      name,
			Transport: "streamable_http",
			Endpoint:  cfg.MCPURL,
			Env:       map[string]string{"MCP_CREDENTIAL": cfg.MCPCredential},
		}
	}
	return servers
}

func run(cfg config, insecure bool) int {
	if insecure {
		fmt.Fprintln(os.Stderr, "warning: running without authentication (-insecure)")
	}

	d, err := buildDaemon(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer d.st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	go d.monitor.Run(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           d.server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		}
	}()

	fmt.Fprintf(os.Stderr, "swarmkerneld %s listening on :%d\n", version, cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
