package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// MemoryDB keeps templates in process memory. Reads and writes copy the aggregate so
// callers can never mutate stored state without calling SaveTemplate.
type MemoryDB struct {
	mu        sync.RWMutex
	templates map[string]*model.Template
}

// NewMemoryDB creates an empty in-memory store
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{templates: make(map[string]*model.Template)}
}

// GetTemplate returns a copy of the stored template
func (m *MemoryDB) GetTemplate(ctx context.Context, id string) (*model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tpl, ok := m.templates[id]
	if !ok {
		return nil, fmt.Errorf("failed to get template %s: %w", id, ErrNotFound)
	}
	return tpl.Clone(), nil
}

// ListTemplates returns copies of every template ordered by name
func (m *MemoryDB) ListTemplates(ctx context.Context) ([]*model.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Template, 0, len(m.templates))
	for _, tpl := range m.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveTemplate stores a copy of the template, replacing any previous version.
// Rows and lines are kept in sequence then creation order like the SQL stores.
func (m *MemoryDB) SaveTemplate(ctx context.Context, tpl *model.Template) error {
	if tpl.ID == "" {
		return fmt.Errorf("failed to save template: missing id")
	}

	stored := tpl.Clone()
	stored.SortBySequence()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.templates[tpl.ID] = stored
	return nil
}

// DeleteTemplate removes a template together with its rows and lines
func (m *MemoryDB) DeleteTemplate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.templates[id]; !ok {
		return fmt.Errorf("failed to delete template %s: %w", id, ErrNotFound)
	}
	delete(m.templates, id)
	return nil
}

// Close is a no-op for the memory store
func (m *MemoryDB) Close() {}
