package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/interviewd/internal/api"
	"github.com/kalambet/interviewd/internal/config"
	"github.com/kalambet/interviewd/internal/engine"
	"github.com/kalambet/interviewd/internal/feedback"
	"github.com/kalambet/interviewd/internal/grader"
	"github.com/kalambet/interviewd/internal/interview"
	"github.com/kalambet/interviewd/internal/interviewer"
	"github.com/kalambet/interviewd/internal/profiler"
	"github.com/kalambet/interviewd/internal/session"
	"github.com/kalambet/interviewd/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the interviewd server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running interviewd server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show interviewd status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "interviewd.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "interviewd version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cfg.Log.Level)})))

	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := engine.Detect(engine.DetectConfig{
		Provider:         cfg.Engine.Provider,
		OllamaBaseURL:    cfg.Ollama.BaseURL,
		OpenRouterAPIKey: cfg.Proxy.OpenRouterAPIKey,
	})
	if err != nil {
		return fmt.Errorf("detecting inference engine: %w", err)
	}
	if cfg.Engine.Provider == engine.ProviderOllama {
		if err := engine.EnsureReady(ctx, eng, []string{cfg.FastModel(), cfg.DeepModel()}, os.Stderr); err != nil {
			return err
		}
	} else if !eng.IsRunning(ctx) {
		slog.Warn("inference provider not reachable, turns will fail until it is", "provider", cfg.Engine.Provider)
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	}()

	interviews := interview.New(session.NewStore(), store, interview.Services{
		Classifier: profiler.New(eng, cfg.FastModel()),
		Evaluator:  grader.New(eng, cfg.FastModel()),
		Responder:  interviewer.New(eng, cfg.DeepModel()),
		Writer:     feedback.New(eng, cfg.DeepModel()),
	}, interview.Options{
		AnalysisTimeout:   cfg.Interview.AnalysisTimeout,
		GenerationTimeout: cfg.Interview.GenerationTimeout,
	})
	deps := api.Deps{Interviews: interviews}

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewHandler(deps),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("interviewd listening", "addr", addr, "provider", cfg.Engine.Provider,
			"fast_model", cfg.FastModel(), "deep_model", cfg.DeepModel())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(deps))
		g.Go(func() error {
			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		return fmt.Errorf("interviewd is not running (no PID file): %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("could not find process %d: %w", pid, err)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("could not stop interviewd (PID %d): %w", pid, err)
	}

	printSuccess("Sent stop signal to interviewd (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	var health api.HealthResponse
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		running = resp.StatusCode == http.StatusOK
		if running {
			json.NewDecoder(resp.Body).Decode(&health)
			printStatus("Server", "running on port %d", cfg.Server.Port)
			printStatus("Live sessions", "%d", health.LiveSessions)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
		resp.Body.Close()
	}

	printStatus("Provider", "%s", cfg.Engine.Provider)
	if cfg.Engine.Provider == engine.ProviderOllama {
		ollamaResp, err := client.Get(cfg.Ollama.BaseURL + "/api/version")
		if err != nil {
			printStatus("Ollama", "not running")
		} else {
			ollamaResp.Body.Close()
			printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		}
	}
	printStatus("Fast model", "%s", cfg.FastModel())
	printStatus("Deep model", "%s", cfg.DeepModel())

	if running {
		c := &apiClient{baseURL: serverURL, httpClient: client}
		if r, err := c.get(context.Background(), "/list-sessions?limit=100"); err == nil {
			var saved []storage.SavedSession
			if decodeJSON(r, &saved) == nil {
				printStatus("Saved sessions", "%s", countLabel(len(saved), 100))
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
