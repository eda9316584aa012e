package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/access"
	"bookshelf/internal/apperr"
	"bookshelf/internal/book"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/platform/metrics"
)

// Books is the part of the book store the runner needs.
type Books interface {
	FindExisting(ctx context.Context, title, authorName string) (book.Book, error)
	Create(ctx context.Context, nb book.NormalizedBook) (book.Book, error)
}

type Runner struct {
	books   Books
	authors book.AuthorResolver
	lookup  book.MetadataMatcher
	runs    RunRepository
	delay   time.Duration
	now     func() time.Time
}

// NewRunner builds a Runner. runs may be nil to skip bookkeeping; a
// negative delay is treated as zero.
func NewRunner(books Books, authors book.AuthorResolver, lookup book.MetadataMatcher, runs RunRepository, delay time.Duration) *Runner {
	if delay < 0 {
		delay = 0
	}
	return &Runner{
		books:   books,
		authors: authors,
		lookup:  lookup,
		runs:    runs,
		delay:   delay,
		now:     time.Now,
	}
}

// Run seeds items strictly in order. A failing item is recorded and the run
// moves on; only cancellation of ctx stops it early.
func (r *Runner) Run(ctx context.Context, caller access.Capability, items []Item) (report Report, err error) {
	if err := caller.RequireAdmin(); err != nil {
		return Report{}, err
	}

	log := logging.Ctx(ctx).With().Str("component", "seed").Logger()

	report = Report{
		Summary: Summary{Total: len(items)},
		Results: []Result{},
		Errors:  []Failure{},
	}

	run := &Run{Status: RunRunning, StartedAt: r.now()}
	if r.runs != nil {
		id, cErr := r.runs.CreateRun(ctx, run)
		if cErr != nil {
			log.Warn().Err(cErr).Msg("failed to record seed run")
		} else {
			run.ID = id
			report.RunID = id
		}
	}

	defer func() {
		if run.ID == "" {
			return
		}
		finished := r.now()
		run.FinishedAt = &finished
		run.Summary = report.Summary
		run.Status = RunCompleted
		if err != nil {
			run.Status = RunFailed
			run.Error = err.Error()
		}
		// The request context may already be cancelled here.
		if uErr := r.runs.UpdateRun(context.WithoutCancel(ctx), run); uErr != nil {
			log.Warn().Err(uErr).Str("run_id", run.ID).Msg("failed to update seed run")
		}
	}()

	for i, item := range items {
		if i > 0 {
			if err := sleep(ctx, r.delay); err != nil {
				return report, err
			}
		}

		log.Info().Str("author", item.Author).Str("title", item.Title).Msg("processing")

		res, failure := r.seedOne(ctx, item)
		switch {
		case failure != nil:
			report.Errors = append(report.Errors, *failure)
			report.Summary.Failed++
			metrics.SeedItems.WithLabelValues("failed").Inc()
			log.Warn().Str("title", item.Title).Str("error", failure.Error).Msg("seed item failed")
		case res.Status == StatusCreated:
			report.Results = append(report.Results, res)
			report.Summary.Created++
			metrics.SeedItems.WithLabelValues(StatusCreated).Inc()
		default:
			report.Results = append(report.Results, res)
			report.Summary.Skipped++
			metrics.SeedItems.WithLabelValues(StatusSkipped).Inc()
		}
	}

	log.Info().
		Int("created", report.Summary.Created).
		Int("skipped", report.Summary.Skipped).
		Int("failed", report.Summary.Failed).
		Msg("seed finished")
	return report, nil
}

func (r *Runner) seedOne(ctx context.Context, item Item) (Result, *Failure) {
	fail := func(msg string) (Result, *Failure) {
		return Result{}, &Failure{Title: item.Title, Author: item.Author, Error: msg}
	}

	_, err := r.books.FindExisting(ctx, item.Title, item.Author)
	switch {
	case err == nil:
		return Result{Title: item.Title, Author: item.Author, Status: StatusSkipped, Reason: ReasonExists}, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return fail(fmt.Sprintf("check existing: %v", err))
	}

	candidate, err := r.lookup.FindBestMatch(ctx, item.Author, item.Title)
	if err != nil {
		return fail(err.Error())
	}
	if candidate == nil {
		return fail(ReasonNotFound)
	}

	a, err := r.authors.GetOrCreate(ctx, candidate.Author)
	if err != nil {
		return fail(err.Error())
	}

	b, err := r.books.Create(ctx, book.FromCandidate(*candidate, a.ID))
	if err != nil {
		return fail(err.Error())
	}

	return Result{Title: b.Title, Author: a.Name, Status: StatusCreated, BookID: b.ID}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
