package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/JonMunkholm/spregistry/internal/config"
	"github.com/JonMunkholm/spregistry/internal/core"
	"github.com/JonMunkholm/spregistry/internal/logging"
	"github.com/JonMunkholm/spregistry/internal/metrics"
	"github.com/JonMunkholm/spregistry/internal/notifier"
	"github.com/JonMunkholm/spregistry/internal/store"
	"github.com/JonMunkholm/spregistry/internal/store/table"
	"github.com/JonMunkholm/spregistry/internal/web"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// app holds the wired dependencies shared by the subcommands.
type app struct {
	cfg      *config.Config
	store    table.Store
	recorder *metrics.Recorder
	service  *core.Service
}

func newApp(ctx context.Context, cfg *config.Config, withRuntimeMetrics bool) (*app, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	n, err := newNotifier(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	rec := metrics.New(withRuntimeMetrics)
	svc := core.NewService(st, n, core.ServiceConfig{
		Tables: core.TableNames{
			Organizations: cfg.Store.OrganizationsTable,
			Listing:       cfg.Store.ListingTable,
			ProcessingLog: cfg.Store.ProcessingLogTable,
		},
		AllowMissing: cfg.Store.AllowMissing,
		IssueID:      cfg.Run.IssueID,
		LockWait:     cfg.Run.LockWait,
		Timeout:      cfg.Run.Timeout,
	}, core.WithRecorder(rec))

	return &app{cfg: cfg, store: st, recorder: rec, service: svc}, nil
}

func newNotifier(cfg *config.Config) (core.Notifier, error) {
	if !cfg.Notify.Enabled {
		return notifier.Disabled{}, nil
	}
	owner, repo := cfg.Notify.RepositoryParts()
	return notifier.NewGitHub(notifier.Config{
		Token:   cfg.Notify.Token,
		Owner:   owner,
		Repo:    repo,
		BaseURL: cfg.Notify.BaseURL,
		Labels:  cfg.Notify.Labels,
		Timeout: cfg.Notify.Timeout,
	})
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("closing store", "error", err)
	}
}

// run parses the subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, getenv func(string) string) int {
	cmd := "reconcile"
	if len(args) > 0 && (args[0] == "reconcile" || args[0] == "serve") {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.LoadFrom(getenv)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return exitError
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	switch cmd {
	case "serve":
		return serve(ctx, cfg)
	default:
		return reconcile(ctx, cfg, args, stdin, stdout)
	}
}

func reconcile(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", cfg.Run.DryRun, "reconcile without committing tables or opening issues")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	path := cfg.Run.InputFile
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "usage: spregistry [reconcile] [-dry-run] <batch.json|->  (or set INPUT_FILE)")
		return exitUsage
	}

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open batch", "path", path, "error", err)
			return exitError
		}
		defer f.Close()
		in = f
	}

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		return exitError
	}
	defer a.Close()

	report, runErr := a.service.Run(ctx, in, core.RunOptions{DryRun: *dryRun, Trigger: "cli"})

	if cfg.Metrics.PushgatewayURL != "" {
		if err := a.recorder.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			slog.Warn("metrics push failed", "error", err)
		}
	}

	if runErr != nil {
		slog.Error("run failed", "error", runErr)
		fmt.Fprintln(os.Stderr, core.FormatUserError(runErr))
		return exitError
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitError
	}
	return exitOK
}

func serve(ctx context.Context, cfg *config.Config) int {
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return exitError
	}
	defer a.Close()

	slog.Info("store opened",
		"driver", a.store.Driver(),
		"notify_enabled", cfg.Notify.Enabled,
	)

	server := web.NewServer(a.service, a.recorder, cfg.Server)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			return exitError
		}
		return exitOK
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if st := a.service.Limiter().Status(); st.Active {
		slog.Info("waiting for active run to complete")
		if err := a.service.Limiter().WaitForDrain(shutdownCtx); err != nil {
			slog.Warn("run did not complete in time", "error", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return exitError
	}
	slog.Info("server stopped")
	return exitOK
}
