package lottery

import (
	"context"

	"github.com/lotterylot/portal/internal/errors"
)

// Service fronts the upstream provider with the optional cache.
type Service struct {
	provider *Provider
	cache    *Cache
}

// NewService wires the provider and cache together. The cache may be nil.
func NewService(provider *Provider, cache *Cache) (*Service, error) {
	if provider == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[lottery NewService] provider is required")
	}
	return &Service{provider: provider, cache: cache}, nil
}

// History returns one page of draw history, from cache when possible.
func (s *Service) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	if page := s.cache.GetPage(ctx, limit, offset); page != nil {
		return page, nil
	}
	page, err := s.provider.History(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.cache.SetPage(ctx, page)
	return page, nil
}

// Latest returns the most recent draw, from cache when possible.
func (s *Service) Latest(ctx context.Context) (*Result, error) {
	if result := s.cache.GetResult(ctx, "latest"); result != nil {
		return result, nil
	}
	result, err := s.provider.Latest(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetResult(ctx, "latest", result)
	return result, nil
}

// ByDate returns the draw for a YYYY-MM-DD date, from cache when possible.
func (s *Service) ByDate(ctx context.Context, date string) (*Result, error) {
	if result := s.cache.GetResult(ctx, date); result != nil {
		return result, nil
	}
	result, err := s.provider.ByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	s.cache.SetResult(ctx, date, result)
	return result, nil
}
