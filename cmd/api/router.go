package main

import (
	"context"
	"net/http"
	"time"

	"bookshelf/internal/httpx"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes are the endpoint handlers mounted by newRouter.
type routes struct {
	listBooks    http.HandlerFunc
	bookDetail   http.HandlerFunc
	listReviews  http.HandlerFunc
	createReview http.HandlerFunc
	listAuthors  http.HandlerFunc

	login   http.HandlerFunc
	logout  http.HandlerFunc
	session http.HandlerFunc

	createBook     http.HandlerFunc
	updateBook     http.HandlerFunc
	deleteBook     http.HandlerFunc
	createAuthor   http.HandlerFunc
	seed           http.HandlerFunc
	revalidate     http.HandlerFunc
	metadataSearch http.HandlerFunc
}

type routerConfig struct {
	allowedOrigins []string
	maxBodyBytes   int64
	enableHSTS     bool
	loginPerMinute int
	// reviewLimit throttles review submissions per client.
	reviewLimit func(http.Handler) http.Handler
	authn       httpx.Authenticator
	ready       func(ctx context.Context) error
}

func newRouter(cfg routerConfig, rt routes) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(cfg.enableHSTS))
	r.Use(httpx.CORSMiddleware(cfg.allowedOrigins))
	r.Use(httpx.RequestSizeLimitMiddleware(cfg.maxBodyBytes))
	r.Use(httpx.AdminSessionMiddleware(cfg.authn))

	r.NotFound(httpx.NotFound)
	r.MethodNotAllowed(httpx.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if cfg.ready != nil {
			if err := cfg.ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	reviewLimit := cfg.reviewLimit
	if reviewLimit == nil {
		reviewLimit = func(next http.Handler) http.Handler { return next }
	}

	r.Get("/books", rt.listBooks)
	r.Get("/books/{id}", rt.bookDetail)
	r.Get("/books/{id}/reviews", rt.listReviews)
	r.With(reviewLimit).Post("/books/{id}/reviews", rt.createReview)
	r.Get("/authors", rt.listAuthors)

	loginLimit := httprate.Limit(
		cfg.loginPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(httpx.TooManyRequests),
	)

	r.Route("/admin", func(r chi.Router) {
		r.With(loginLimit).Post("/login", rt.login)
		r.Post("/logout", rt.logout)
		r.Get("/session", rt.session)

		r.Group(func(r chi.Router) {
			r.Use(httpx.RequireAdmin)

			r.Post("/books", rt.createBook)
			r.Put("/books/{id}", rt.updateBook)
			r.Delete("/books/{id}", rt.deleteBook)
			r.Post("/authors", rt.createAuthor)
			r.Post("/seed", rt.seed)
			r.Post("/revalidate", rt.revalidate)
			r.Get("/metadata/search", rt.metadataSearch)
		})
	})

	return r
}
