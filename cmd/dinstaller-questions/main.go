// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/dinstaller/lib/answers"
	"github.com/bureau-foundation/dinstaller/lib/clock"
	"github.com/bureau-foundation/dinstaller/lib/config"
	"github.com/bureau-foundation/dinstaller/lib/dbusconn"
	"github.com/bureau-foundation/dinstaller/lib/journal"
	"github.com/bureau-foundation/dinstaller/lib/luks"
	"github.com/bureau-foundation/dinstaller/lib/process"
	"github.com/bureau-foundation/dinstaller/lib/question"
	"github.com/bureau-foundation/dinstaller/lib/questionbus"
	"github.com/bureau-foundation/dinstaller/lib/service"
	"github.com/bureau-foundation/dinstaller/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		busAddress  string
		socketPath  string
		showVersion bool
	)
	flags := pflag.NewFlagSet("dinstaller-questions", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "configuration file (default: $DINSTALLER_CONFIG)")
	flags.StringVar(&busAddress, "bus", "", "bus to use: system, session or a D-Bus address (overrides bus.address)")
	flags.StringVar(&socketPath, "socket", "", "control socket path (overrides socket.path)")
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("dinstaller-questions %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if busAddress != "" {
		cfg.Bus.Address = busAddress
	}
	if socketPath != "" {
		cfg.Socket.Path = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := process.SignalContext()
	defer stop()

	return serve(ctx, cfg, logger)
}

// loadConfig prefers --config, then DINSTALLER_CONFIG, then defaults.
func loadConfig(path string) (*config.Config, error) {
	switch {
	case path != "":
		return config.LoadFile(path)
	case os.Getenv(config.EnvironmentVariable) != "":
		return config.Load()
	default:
		cfg := config.Default()
		cfg.ExpandVariables()
		return cfg, nil
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	clk := clock.Real()

	var rules []answers.Rule
	if cfg.Questions.AnswersFile != "" {
		loaded, err := answers.LoadFile(cfg.Questions.AnswersFile, cfg.Questions.IdentityFile)
		if err != nil {
			return err
		}
		rules = loaded
		logger.Info("predefined answers loaded", "path", cfg.Questions.AnswersFile, "rules", len(rules))
	}
	policy := answers.NewPolicy(cfg.Questions.Interactive, rules)
	defer policy.Close()

	registry := question.NewRegistry(question.RegistryConfig{
		Clock:       clk,
		Logger:      logger,
		Policy:      policy,
		WaitTimeout: cfg.WaitTimeoutDuration(),
	})

	var history *journal.Journal
	if cfg.Journal.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Journal.Path), 0o750); err != nil {
			return fmt.Errorf("creating journal directory: %w", err)
		}
		opened, err := journal.Open(journal.Config{Path: cfg.Journal.Path, Clock: clk, Logger: logger})
		if err != nil {
			return err
		}
		defer opened.Close()
		registry.Subscribe(opened)
		history = opened
	}

	bus, err := dbusconn.Connect(ctx, dbusconn.Config{Bus: cfg.Bus.Address, Name: cfg.Bus.Name}, logger)
	if err != nil {
		return err
	}
	defer bus.Close()

	exporter := questionbus.NewExporter(questionbus.Config{
		Registry:    registry,
		Transport:   bus,
		Logger:      logger,
		Interactive: policy,
	})
	if err := exporter.Start(); err != nil {
		return fmt.Errorf("exporting questions: %w", err)
	}

	questions := &QuestionService{
		registry:  registry,
		journal:   history,
		policy:    policy,
		clock:     clk,
		startedAt: clk.Now(),
		logger:    logger,
	}

	socketDone := make(chan error, 1)
	if cfg.Socket.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Socket.Path), 0o750); err != nil {
			return fmt.Errorf("creating socket directory: %w", err)
		}
		server := service.NewSocketServer(cfg.Socket.Path, logger)
		server.AllowUIDs(append([]uint32{0, uint32(os.Getuid())}, cfg.Socket.AllowedUIDs...)...)
		questions.registerActions(server)
		go func() {
			socketDone <- server.Serve(ctx)
		}()
	} else {
		socketDone <- nil
	}

	if cfg.Storage.ProbeLuks {
		activator := &luks.Activator{
			Registry:    registry,
			Runner:      luks.ExecRunner{},
			Logger:      logger,
			MaxAttempts: cfg.Storage.MaxAttempts,
		}
		go probeLuks(ctx, activator, logger)
	}

	logger.Info("question service running",
		"version", version.Info(),
		"bus", cfg.Bus.Address,
		"name", cfg.Bus.Name,
		"socket", cfg.Socket.Path,
		"interactive", policy.Interactive(),
	)

	<-ctx.Done()
	logger.Info("shutting down", "pending_questions", registry.Len())

	if err := <-socketDone; err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	return nil
}

func probeLuks(ctx context.Context, activator *luks.Activator, logger *slog.Logger) {
	results, err := activator.ActivateAll(ctx)
	if err != nil && ctx.Err() == nil {
		logger.Error("probing encrypted devices failed", "error", err)
	}
	for _, result := range results {
		logger.Info("encrypted device probed",
			"device", result.Device.Path,
			"outcome", string(result.Outcome),
			"attempts", result.Attempts,
		)
	}
}
