package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/hsi-mcp/internal/app"
	"github.com/ternarybob/hsi-mcp/internal/common"
)

const (
	warmJobName    = "warm_hsi_data"
	warmJobTimeout = 30 * time.Second
)

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	var (
		configPath  = flag.String("config", "", "Path to TOML config file (default: $HSI_CONFIG or hsi-mcp.toml)")
		transport   = flag.String("transport", "", "MCP transport: stdio or http")
		host        = flag.String("host", "", "HTTP listen host")
		port        = flag.Int("port", 0, "HTTP listen port")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("hsi-mcp", common.GetFullVersion())
		return
	}

	// A missing .env is normal in production
	_ = godotenv.Load()

	path := *configPath
	if path == "" {
		path = os.Getenv("HSI_CONFIG")
	}
	if path == "" {
		path = "hsi-mcp.toml"
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *transport, *port, *host)
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	tools := newToolService(a.Market, a.Cache, logger)
	mcpServer := newMCPServer(tools, logger)
	startCacheWarmer(a, tools, logger)

	switch config.Server.Transport {
	case "http":
		if err := serveHTTP(ctx, config, mcpServer, logger); err != nil {
			logger.Error().Err(err).Msg("HTTP server failed")
			a.Close()
			os.Exit(1)
		}
	default:
		logger.Info().Msg("Serving MCP over stdio")
		if err := server.ServeStdio(mcpServer); err != nil {
			logger.Error().Err(err).Msg("MCP server failed")
			a.Close()
			os.Exit(1)
		}
	}
}

// newMCPServer registers the three market tools
func newMCPServer(tools *toolService, logger arbor.ILogger) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"HSI MCP Server",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createHSIDataTool(), handleGetHSIData(tools, logger))
	mcpServer.AddTool(createNewsSummaryTool(), handleGetNewsSummary(tools, logger))
	mcpServer.AddTool(createStockQuoteTool(), handleGetStockQuote(tools, logger))

	return mcpServer
}

// startCacheWarmer schedules background refreshes of the index response
func startCacheWarmer(a *app.App, tools *toolService, logger arbor.ILogger) {
	schedule := a.Config.Cache.WarmSchedule
	if a.Cache == nil || schedule == "" {
		return
	}

	if err := a.Scheduler.RegisterJob(warmJobName, schedule, warmJobTimeout, tools.warmHSIData); err != nil {
		logger.Warn().Err(err).Msg("Cache warmer disabled")
		return
	}
	a.Scheduler.Start()
	if err := a.Scheduler.RunNow(warmJobName); err != nil {
		logger.Warn().Err(err).Msg("Initial cache warm failed")
	}
}

// serveHTTP runs the streamable HTTP transport until ctx is cancelled
func serveHTTP(ctx context.Context, config *common.Config, mcpServer *server.MCPServer, logger arbor.ILogger) error {
	common.PrintBanner(config, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:           buildMux(config, mcpServer),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	common.SafeGo(logger, "http-server", func() {
		logger.Info().Str("addr", srv.Addr).Str("endpoint", config.Server.Endpoint).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	})

	select {
	case err, ok := <-serveErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), common.ParseDuration(config.Server.ShutdownTimeout, 10*time.Second))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}

// buildMux mounts the MCP endpoint next to health and version endpoints
func buildMux(config *common.Config, mcpServer *server.MCPServer) http.Handler {
	httpMCP := server.NewStreamableHTTPServer(mcpServer,
		server.WithStateLess(true),
	)

	mux := http.NewServeMux()
	mux.Handle(config.Server.Endpoint, httpMCP)
	mux.HandleFunc("/api/health", healthHandler)
	mux.HandleFunc("/api/version", versionHandler)
	return mux
}

// healthHandler responds to GET/HEAD /api/health with {"status":"ok"}
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// versionHandler responds to GET/HEAD /api/version with build info
func versionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(common.VersionInfo())
}
