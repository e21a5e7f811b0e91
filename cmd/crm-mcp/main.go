// Command crm-mcp serves the CRM housekeeping jobs as MCP tools over
// streamable HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/jamesprial/crm-housekeeping/internal/auth"
	"github.com/jamesprial/crm-housekeeping/internal/bootstrap"
	"github.com/jamesprial/crm-housekeeping/internal/config"
	"github.com/jamesprial/crm-housekeeping/internal/jobs"
	"github.com/jamesprial/crm-housekeeping/internal/logsink"
	"github.com/jamesprial/crm-housekeeping/internal/safety"
	"github.com/jamesprial/crm-housekeeping/internal/telemetry"
	"github.com/jamesprial/crm-housekeeping/internal/tools"
)

const version = "1.0.0"

func main() {
	runID := telemetry.NewRunID()
	logger, err := telemetry.NewLogger("crm-mcp", runID, os.Getenv("CRM_DEBUG") != "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := bootstrap.LoadConfig(bootstrap.ConfigPath(), logger)
	if err != nil {
		logger.Fatal("load configuration", zap.Error(err))
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		logger.Warn("could not generate auth token, running without authentication", zap.Error(err))
	} else if tokenBefore == "" {
		logger.Info("generated auth token (set CRM_MCP_AUTH_TOKEN to persist)", zap.String("token", token))
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("audit logging disabled", zap.String("path", cfg.Audit.LogPath), zap.Error(err))
		} else {
			defer f.Close()
			auditLogger = safety.NewAuditLogger(f, runID)
		}
	}

	set, err := bootstrap.BuildJobs(cfg, logsink.New(), logger)
	if err != nil {
		logger.Fatal("build jobs", zap.Error(err))
	}

	mcpServer := server.NewMCPServer("crm-mcp", version, server.WithToolCapabilities(false))
	registered := tools.RegisterAll(mcpServer,
		jobs.JobTools(set.All(), safety.NewConfirmationTracker(jobs.MutatingTools), auditLogger),
		safety.NewFilter(cfg.Safety.Jobs.Allowlist, cfg.Safety.Jobs.Denylist),
	)
	logger.Info("registered tools", zap.Strings("tools", registered))

	mux := http.NewServeMux()
	mux.Handle("/", server.NewStreamableHTTPServer(mcpServer))
	mux.HandleFunc(auth.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           auth.NewAuthMiddleware(cfg.Server.AuthToken, logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("crm-mcp listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
