package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/ninebox-weightage/pkg/db"
	"github.com/jakechorley/ninebox-weightage/pkg/report"
)

// BlobWriter archives exported summaries
type BlobWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// BuildSummary loads a template and summarises its allocation
func BuildSummary(ctx context.Context, store db.TemplateStore, templateID string, now time.Time) (*report.Summary, error) {
	tpl, err := GetTemplate(ctx, store, templateID)
	if err != nil {
		return nil, err
	}
	return report.Build(tpl, now), nil
}

// ExportKey returns the archive key for a template summary taken at now
func ExportKey(templateID string, now time.Time) string {
	return fmt.Sprintf("templates/%s/%s.json", templateID, now.UTC().Format("20060102T150405Z"))
}

// ExportTemplate archives the template's summary as JSON and returns the key it was written to
func ExportTemplate(ctx context.Context, store db.TemplateStore, blobs BlobWriter, logger *zap.Logger, templateID string, now time.Time) (string, error) {
	summary, err := BuildSummary(ctx, store, templateID, now)
	if err != nil {
		return "", err
	}

	data, err := summary.JSON()
	if err != nil {
		return "", err
	}

	key := ExportKey(templateID, now)
	logger.Debug("Exporting template summary", zap.String("template_id", templateID), zap.String("key", key), zap.Int("bytes", len(data)))

	if err := blobs.Put(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("failed to archive summary: %w", err)
	}

	logger.Info("Template summary exported", zap.String("template_id", templateID), zap.String("key", key))
	return key, nil
}
