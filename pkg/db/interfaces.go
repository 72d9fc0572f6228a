package db

import (
	"context"
	"errors"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// ErrNotFound is returned when a template does not exist
var ErrNotFound = errors.New("template not found")

// TemplateStore persists template aggregates. A template is always loaded and saved
// together with its ledger rows and lines; SaveTemplate replaces the stored aggregate
// atomically so a failed save leaves the previous version intact.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id string) (*model.Template, error)
	ListTemplates(ctx context.Context) ([]*model.Template, error)
	SaveTemplate(ctx context.Context, tpl *model.Template) error
	DeleteTemplate(ctx context.Context, id string) error
}

// Database is a TemplateStore that owns a connection.
// MemoryDB, sqlite.DB and postgres.DB implement this interface.
type Database interface {
	TemplateStore
	Close()
}
