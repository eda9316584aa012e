package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/author"
	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/metadata"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/seed"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CLI is the command structure of the seed tool.
type CLI struct {
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"info"`

	Run  RunCmd  `cmd:"" default:"withargs" help:"Seed the catalog with the initial books"`
	List ListCmd `cmd:"" help:"Print the built-in seed list"`
}

type RunCmd struct {
	Delay   time.Duration `help:"Pause between items (defaults to SEED_DELAY)"`
	NoCache bool          `help:"Bypass the metadata cache"`
}

type ListCmd struct{}

// Run seeds as the CLI admin and prints the report as JSON.
func (c *RunCmd) Run(cfg *config.Config, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	var cache metadata.Cache
	if !c.NoCache {
		sc, err := metadata.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open metadata cache: %w", err)
		}
		defer sc.Close()
		cache = sc
	}

	provider := metadata.NewProvider(googlebooks.NewClient(googlebooks.Options{
		BaseURL:    cfg.GoogleBooks.BaseURL,
		APIKey:     cfg.GoogleBooks.APIKey,
		RPS:        cfg.GoogleBooks.RPS,
		MaxRetries: cfg.GoogleBooks.MaxRetries,
		Timeout:    cfg.GoogleBooks.Timeout,
	}), cache, cfg.Cache.TTL)

	delay := cfg.Seed.Delay
	if c.Delay > 0 {
		delay = c.Delay
	}

	timeout := cfg.Database.Timeout
	runner := seed.NewRunner(
		book.NewPostgresRepo(pool, timeout),
		author.NewRegistry(author.NewPostgresRepo(pool, timeout)),
		provider,
		seed.NewPostgresRepo(pool, timeout),
		delay,
	)

	report, err := runner.Run(ctx, access.Admin("cli"), seed.DefaultItems)
	if encErr := writeJSON(out, report); encErr != nil {
		return encErr
	}
	return err
}

func (c *ListCmd) Run(out io.Writer) error {
	return writeJSON(out, seed.DefaultItems)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("seed"),
		kong.Description("Populate the bookshelf catalog from Google Books."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cli.LogLevel, Format: cfg.Logging.Format})

	kctx.BindTo(os.Stdout, (*io.Writer)(nil))
	if err := kctx.Run(cfg); err != nil {
		logging.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}
