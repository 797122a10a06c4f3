package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	postgresURL := flags.String("database", os.Getenv("POSTGRES_URL"), "postgres connection URL (POSTGRES_URL)")
	migrationsPath := flags.String("path", envOr("MIGRATIONS_PATH", "file://migrations"), "migrations source URL (MIGRATIONS_PATH)")
	steps := flags.IntP("steps", "n", 1, "number of migrations to roll back with down")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [flags] <up|down|version|force VERSION>")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		os.Exit(2)
	}

	if *postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable or --database is required")
		os.Exit(1)
	}

	m, err := migrate.New(*migrationsPath, *postgresURL)
	if err != nil {
		logger.Error("failed to create migrate instance", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _, _ = m.Close() }()

	command := args[0]

	switch command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no pending migrations")
			return
		}
		if err != nil {
			logger.Error("migration up failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")

	case "down":
		if *steps < 1 {
			logger.Error("--steps must be at least 1")
			os.Exit(2)
		}
		err = m.Steps(-*steps)
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to rollback")
			return
		}
		if err != nil {
			logger.Error("migration down failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migrations rolled back successfully", slog.Int("steps", *steps))

	case "force":
		if len(args) < 2 {
			flags.Usage()
			os.Exit(2)
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logger.Error("invalid version", slog.String("version", args[1]))
			os.Exit(2)
		}
		if err := m.Force(version); err != nil {
			logger.Error("force failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migration version forced, dirty flag cleared", slog.Int("version", version))

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return
		}
		if err != nil {
			logger.Error("failed to get version", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	default:
		logger.Error("unknown command", slog.String("command", command))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
