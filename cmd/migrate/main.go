package main

import (
	"context"
	"flag"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			logging.Fatal().Msg("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			logging.Fatal().Err(err).Msg("failed to create migration")
		}
		logging.Info().Str("name", *name).Msg("migration created")
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logging.Fatal().Err(err).Msg("set goose dialect")
	}

	switch *command {
	case "up":
		if err := goose.Up(db, dir); err != nil {
			logging.Fatal().Err(err).Msg("failed to run migrations")
		}
		logging.Info().Str("dir", dir).Msg("migrations applied")
	case "down":
		if err := goose.Down(db, dir); err != nil {
			logging.Fatal().Err(err).Msg("failed to roll back migration")
		}
		logging.Info().Msg("migration rolled back")
	case "status":
		if err := goose.Status(db, dir); err != nil {
			logging.Fatal().Err(err).Msg("failed to check migration status")
		}
	default:
		logging.Fatal().Str("command", *command).Msg("unknown command; use up, down, status or create")
	}
}
