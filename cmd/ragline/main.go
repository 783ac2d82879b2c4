// File path: cmd/ragline/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/raglinehq/ragline/internal/api"
	"github.com/raglinehq/ragline/internal/app"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/llm"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("ragline: .env file not loaded", "error", err)
	} else {
		logger.Info("ragline: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	artifactRoot := flag.String("artifact-root", "", "directory for the local artifact cache")

	autoApproveDefault := false
	if env := strings.TrimSpace(os.Getenv("RAGLINE_AUTO_APPROVE_SQL")); env != "" {
		if parsed, err := strconv.ParseBool(env); err == nil {
			autoApproveDefault = parsed
		}
	}
	autoApprove := flag.Bool("auto-approve-sql", autoApproveDefault, "execute generated SQL without human approval")

	flag.Parse()

	logger.Info("ragline: startup initiated", "addr", *addr)

	cfg := app.LoadConfig()
	if trimmed := strings.TrimSpace(*artifactRoot); trimmed != "" {
		cfg.ArtifactRoot = trimmed
	}
	cfg.AutoApproveSQL = *autoApprove

	provider := llm.NewProvider()
	logger.Info("ragline: llm provider ready", "provider", provider.Name())

	application, err := app.New(ctx, cfg, app.WithProvider(provider))
	if err != nil {
		logger.Error("ragline: application initialization failed", "error", err)
		fmt.Println("application error:", err)
		os.Exit(1)
	}
	defer application.Close()

	caps := application.Capabilities()
	if caps.Cache {
		logger.Info("ragline: cache backend connected")
	} else {
		logger.Warn("ragline: running without cache, every request computes")
	}
	if caps.VectorStore {
		logger.Info("ragline: vector store available")
	} else {
		logger.Info("ragline: vector store not configured")
	}
	if caps.Database {
		logger.Info("ragline: database executor ready")
	} else {
		logger.Info("ragline: database not configured, SQL execution disabled")
	}

	server, err := api.NewServer(application)
	if err != nil {
		logger.Error("ragline: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("ragline: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("ragline: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("ragline: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
