package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tactics-catalog/internal/domain"
)

// CatalogWriter is the write side of the catalog store
type CatalogWriter interface {
	UpsertTactic(ctx context.Context, t domain.Tactic) error
	UpsertPlaylist(ctx context.Context, p domain.TacticsPlaylist) error
}

// IngestService applies catalog records to the catalog store
type IngestService struct {
	repo   CatalogWriter
	logger *slog.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(repo CatalogWriter, logger *slog.Logger) *IngestService {
	return &IngestService{
		repo:   repo,
		logger: logger,
	}
}

// Ingest applies a single record
func (s *IngestService) Ingest(ctx context.Context, record domain.CatalogRecord) error {
	switch {
	case record.Kind == domain.RecordKindTactic && record.Tactic != nil:
		return s.repo.UpsertTactic(ctx, *record.Tactic)
	case record.Kind == domain.RecordKindPlaylist && record.Playlist != nil:
		return s.repo.UpsertPlaylist(ctx, *record.Playlist)
	default:
		return fmt.Errorf("%w: kind %q", domain.ErrInvalidRecord, record.Kind)
	}
}

// IngestBatch applies records in order. A failing record does not stop the
// rest of the batch; all failures are returned together.
func (s *IngestService) IngestBatch(ctx context.Context, records []domain.CatalogRecord) error {
	var errs []error
	for _, record := range records {
		if err := s.Ingest(ctx, record); err != nil {
			s.logger.Error("failed to ingest catalog record",
				"kind", record.Kind,
				"id", record.ID(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("ingesting %s %s: %w", record.Kind, record.ID(), err))
		}
	}
	if len(errs) > 0 {
		s.logger.Warn("catalog batch partially ingested", "failed", len(errs), "total", len(records))
	}
	return errors.Join(errs...)
}
