package author

import (
	"context"

	"bookshelf/internal/access"
)

type Service struct {
	repo     Repository
	registry *Registry
}

func NewService(repo Repository, registry *Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

// Create registers an author by name. An existing author with the same name
// is returned unchanged.
func (s *Service) Create(ctx context.Context, caller access.Capability, name string) (Author, error) {
	if err := caller.RequireAdmin(); err != nil {
		return Author{}, err
	}
	return s.registry.GetOrCreate(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]Author, error) {
	return s.repo.List(ctx)
}
