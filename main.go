// Command klotski starts the sliding-block puzzle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, level and session directories, debug logging,
// and optional ngrok tunneling for easy external access during development.
// Every flag can also be set through the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/klotski/api"
	"github.com/wricardo/klotski/game/config"
	"github.com/wricardo/klotski/game/service"
	"github.com/wricardo/klotski/game/session"
	"github.com/wricardo/klotski/transport/mcp"
	"github.com/wricardo/klotski/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Klotski Puzzle Server"
)

// options holds the resolved command line configuration
type options struct {
	host        string
	port        int
	configDir   string
	sessionsDir string
	debug       bool
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

// flags are shared by every mode
func flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing level configurations",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "Directory where sessions are persisted",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
	}
}

func optionsFrom(cmd *cli.Command) options {
	return options{
		host:        cmd.String("host"),
		port:        cmd.Int("port"),
		configDir:   cmd.String("config-dir"),
		sessionsDir: cmd.String("sessions-dir"),
		debug:       cmd.Bool("debug"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
}

// newCommand builds the root command with its server and stdio-mcp modes
func newCommand() *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		return run(ctx, optionsFrom(cmd), "server")
	}

	return &cli.Command{
		Name:    "klotski",
		Usage:   "Sliding-block puzzle server with REST, WebSocket and MCP interfaces",
		Version: Version,
		Flags:   flags(),
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  serve,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return run(ctx, optionsFrom(cmd), "stdio-mcp")
				},
			},
		},
	}
}

// main loads .env, then hands off to the command line.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, opts options, mode string) error {
	if opts.debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := initializeServices(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	go services.sessionCleanupRoutine(ctx)
	go services.filesystemSyncRoutine(ctx)
	defer services.shutdown()

	if mode == "stdio-mcp" {
		return runStdioMCPWithInternalServer(ctx, services.gameService, opts)
	}
	return runHTTPServer(ctx, services.gameService, opts)
}

// newMainRouter mounts the API at the root and the MCP proxy at /mcp
func newMainRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, opts options) error {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	apiServer := api.NewServer(gameService, hub)

	addr := opts.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newMainRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, mainRouter, opts)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Println("Received shutdown signal. Shutting down...")
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// runNgrokTunnel serves the router through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, handler http.Handler, opts options) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("🚀 Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// services bundles what initializeServices wires together
type services struct {
	gameService    service.GameService
	sessionManager *session.Manager
	persistence    session.SessionPersistence
}

// initializeServices wires session/config managers and the game service.
func initializeServices(opts options) (*services, error) {
	// Create config manager first (needed for persistence)
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(opts.sessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// Load persisted sessions on startup
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}

	return &services{
		gameService:    service.NewGameService(sessionManager, configManager),
		sessionManager: sessionManager,
		persistence:    persistence,
	}, nil
}

func (s *services) shutdown() {
	if err := s.sessionManager.SaveAllSessions(); err != nil {
		log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func (s *services) sessionCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessionManager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// filesystemSyncRoutine periodically syncs in-memory sessions with filesystem state.
func (s *services) filesystemSyncRoutine(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := s.pruneOrphanedSessions(); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// pruneOrphanedSessions drops sessions whose file was deleted
func (s *services) pruneOrphanedSessions() int {
	if s.persistence == nil {
		return 0
	}

	pruned := 0
	for _, sess := range s.sessionManager.List() {
		if !s.persistence.Exists(sess.ID) {
			if err := s.sessionManager.DeleteFromMemory(sess.ID); err == nil {
				pruned++
				log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
			}
		}
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at the configured host and port; if
// unavailable, it starts an internal HTTP API on a random loopback port.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, opts options) error {
	externalURL := fmt.Sprintf("http://%s", opts.addr())
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{
			Handler: api.NewServer(gameService, hub),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()
		defer httpServer.Close()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
