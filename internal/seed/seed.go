// Package seed populates an empty catalog from a fixed list of titles,
// enriching each from the metadata provider. Runs are idempotent: anything
// already in the catalog is skipped without a network call.
package seed

import (
	"context"
	"time"
)

// Item is one (author, title) pair to seed.
type Item struct {
	Author string `json:"author"`
	Title  string `json:"title"`
}

// DefaultItems is the initial catalog.
var DefaultItems = []Item{
	{Author: "Ray Kurzweil", Title: "The Singularity is Near"},
	{Author: "Ray Kurzweil", Title: "The Singularity is Nearer"},
	{Author: "Ray Kurzweil", Title: "How To Create A Mind"},
	{Author: "Dave Asprey", Title: "Smarter Not Harder"},
	{Author: "Dave Asprey", Title: "Heavily Meditated"},
	{Author: "Marijn Haverbeke", Title: "Eloquent JavaScript"},
	{Author: "Joe Dispenza", Title: "Becoming Supernatural"},
}

const (
	StatusCreated = "created"
	StatusSkipped = "skipped"

	ReasonExists   = "Already exists"
	ReasonNotFound = "Not found in metadata source"

	DefaultDelay = 100 * time.Millisecond
)

// Result is a created or skipped item. Created items carry the stored
// title and author spelling, which may differ from the seed list.
type Result struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	BookID string `json:"id,omitempty"`
}

// Failure is an item that could not be seeded.
type Failure struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Error  string `json:"error"`
}

type Summary struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type Report struct {
	RunID   string    `json:"run_id,omitempty"`
	Summary Summary   `json:"summary"`
	Results []Result  `json:"results"`
	Errors  []Failure `json:"errors"`
}

const (
	RunRunning   = "RUNNING"
	RunCompleted = "COMPLETED"
	RunFailed    = "FAILED"
)

// Run is the bookkeeping row of one seed invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
	Summary    Summary
	Error      string
}

type RunRepository interface {
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
}
