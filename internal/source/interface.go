package source

import (
	"context"

	"github.com/promocard-agent/internal/models"
)

// ProductSource defines the interface for product discovery sources
type ProductSource interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (affiliate, feed)
	Type() string

	// Search retrieves products matching the criteria
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Product, error)
}

// Manager manages multiple product sources
type Manager struct {
	sources []ProductSource
}

// NewManager creates a new source manager
func NewManager() *Manager {
	return &Manager{
		sources: make([]ProductSource, 0),
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source ProductSource) {
	m.sources = append(m.sources, source)
}

// GetSources returns all registered sources
func (m *Manager) GetSources() []ProductSource {
	return m.sources
}

// GetSourceByName returns a source by name
func (m *Manager) GetSourceByName(name string) ProductSource {
	for _, s := range m.sources {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

// Search queries the source matching the criteria type: feed criteria go
// to feed sources, everything else to the affiliate API. The first
// registered source of the matching type wins.
func (m *Manager) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Product, error) {
	wantType := "affiliate"
	if criteria.Type == models.SearchTypeFeed {
		wantType = "feed"
	}

	for _, s := range m.sources {
		if s.Type() == wantType {
			return s.Search(ctx, criteria)
		}
	}
	return nil, &NoSourceError{Type: wantType}
}

// NoSourceError reports that no registered source can serve a criteria type
type NoSourceError struct {
	Type string
}

func (e *NoSourceError) Error() string {
	return "no product source registered for type " + e.Type
}
