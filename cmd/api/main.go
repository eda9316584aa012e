package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/author"
	"bookshelf/internal/book"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/metadata"
	"bookshelf/internal/note"
	"bookshelf/internal/platform/googlebooks"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/review"
	"bookshelf/internal/seed"
	"bookshelf/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool := mustOpenDB(ctx, cfg.Database.DSN)
	defer dbPool.Close()
	timeout := cfg.Database.Timeout

	cache, err := metadata.NewSQLiteCache(cfg.Cache.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Cache.Path).Msg("open metadata cache")
	}
	defer cache.Close()

	gb := googlebooks.NewClient(googlebooks.Options{
		BaseURL:    cfg.GoogleBooks.BaseURL,
		APIKey:     cfg.GoogleBooks.APIKey,
		RPS:        cfg.GoogleBooks.RPS,
		MaxRetries: cfg.GoogleBooks.MaxRetries,
		Timeout:    cfg.GoogleBooks.Timeout,
	})
	provider := metadata.NewProvider(gb, cache, cfg.Cache.TTL)

	authorRepo := author.NewPostgresRepo(dbPool, timeout)
	registry := author.NewRegistry(authorRepo)
	bookRepo := book.NewPostgresRepo(dbPool, timeout)
	reviewRepo := review.NewPostgresRepo(dbPool, timeout)
	noteRepo := note.NewPostgresRepo(dbPool, timeout)
	blacklist := session.NewPostgresRepo(dbPool, timeout)

	authorService := author.NewService(authorRepo, registry)
	bookService := book.NewService(bookRepo, book.NewReconciler(bookRepo, registry, provider))
	reviewService := review.NewService(reviewRepo)
	catalogService := catalog.NewService(bookService, reviewService, note.NewService(noteRepo))
	runner := seed.NewRunner(bookRepo, registry, provider, seed.NewPostgresRepo(dbPool, timeout), cfg.Seed.Delay)

	authService, err := auth.NewService(cfg.Admin.Password, cfg.Admin.JWTSecret, cfg.Admin.SessionTTL, blacklist)
	if err != nil {
		logging.Fatal().Err(err).Msg("init admin auth")
	}

	bookHandler := book.NewHTTPHandler(bookService)
	reviewHandler := review.NewHTTPHandler(reviewService)
	catalogHandler := catalog.NewHTTPHandler(catalogService)
	authorHandler := author.NewHTTPHandler(authorService)
	authHandler := auth.NewHTTPHandler(authService, cfg.IsProduction())
	seedHandler := seed.NewHTTPHandler(runner, seed.DefaultItems, cfg.Seed.RequestTimeout)
	metadataHandler := metadata.NewHTTPHandler(provider)

	reviewLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.Server.ReviewRPS, cfg.Server.ReviewBurst)

	router := newRouter(routerConfig{
		allowedOrigins: cfg.Server.AllowedOrigins,
		maxBodyBytes:   cfg.Server.MaxBodyBytes,
		enableHSTS:     cfg.IsProduction(),
		loginPerMinute: cfg.Server.LoginPerMinute,
		reviewLimit:    reviewLimiter.Middleware,
		authn:          authService,
		ready:          dbPool.Ping,
	}, routes{
		listBooks:      bookHandler.List,
		bookDetail:     catalogHandler.BookDetail,
		listReviews:    reviewHandler.List,
		createReview:   reviewHandler.Create,
		listAuthors:    authorHandler.List,
		login:          authHandler.Login,
		logout:         authHandler.Logout,
		session:        authHandler.Session,
		createBook:     bookHandler.Create,
		updateBook:     bookHandler.Update,
		deleteBook:     bookHandler.Delete,
		createAuthor:   authorHandler.Create,
		seed:           seedHandler.Seed,
		revalidate:     metadataHandler.Revalidate,
		metadataSearch: metadataHandler.Search,
	})

	go session.NewJanitor(blacklist, 0).Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func mustOpenDB(ctx context.Context, dsn string) *pgxpool.Pool {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logging.Fatal().Err(err).Msg("cannot create db pool")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logging.Fatal().Err(err).Str("dsn", redactDSN(dsn)).Msg("cannot ping database")
	}
	logging.Info().Msg("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
