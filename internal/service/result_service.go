package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/limpopochefs/academy-api/internal/models"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/export"
)

type resultLedgerRepo interface {
	FindByKey(ctx context.Context, campusID, intakeGroupID, outcomeID string) (*models.Result, error)
	FindByID(ctx context.Context, id string) (*models.Result, error)
	ListByCampus(ctx context.Context, campusID string) ([]models.Result, error)
	UpdateEntryOutcome(ctx context.Context, resultID, studentID string, outcome models.OverallOutcome, notes string) error
}

type resultAttemptRepo interface {
	MarkingProgress(ctx context.Context, campusID string) ([]models.MarkingProgress, error)
}

type resultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ResultService reads the aggregate ledgers, tracks marking progress and
// exports ledger snapshots.
type ResultService struct {
	ledgers  resultLedgerRepo
	attempts resultAttemptRepo
	cache    resultCache
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewResultService constructs a ResultService.
func NewResultService(ledgers resultLedgerRepo, attempts resultAttemptRepo, cache resultCache, cacheTTL time.Duration, logger *zap.Logger) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ResultService{
		ledgers:  ledgers,
		attempts: attempts,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// Ledger returns the ledger for one (campus, intakeGroup, outcome) triple.
func (s *ResultService) Ledger(ctx context.Context, campusID, intakeGroupID, outcomeID string) (*models.Result, error) {
	result, err := s.ledgers.FindByKey(ctx, campusID, intakeGroupID, outcomeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	if result == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "ledger not found")
	}
	return result, nil
}

// ListLedgers returns ledger heads for a campus.
func (s *ResultService) ListLedgers(ctx context.Context, campusID string) ([]models.Result, error) {
	results, err := s.ledgers.ListByCampus(ctx, campusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ledgers")
	}
	return results, nil
}

// SetEntryOutcome records a staff competency verdict on one ledger row.
func (s *ResultService) SetEntryOutcome(ctx context.Context, resultID, studentID string, outcome models.OverallOutcome, notes string) error {
	if outcome != models.OutcomeCompetent && outcome != models.OutcomeNotCompetent {
		return appErrors.Clone(appErrors.ErrValidation, "unknown overall outcome")
	}
	if err := s.ledgers.UpdateEntryOutcome(ctx, resultID, studentID, outcome, notes); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ledger entry")
	}
	return nil
}

// MarkingProgress returns marked/total attempt counts per outcome for one
// campus, cached briefly since marking dashboards poll it.
func (s *ResultService) MarkingProgress(ctx context.Context, campusID string) ([]models.MarkingProgress, error) {
	cacheKey := "marking:progress:" + campusID
	if s.cache != nil {
		var cached []models.MarkingProgress
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("marking progress cache read failed", zap.Error(err))
		}
	}

	progress, err := s.attempts.MarkingProgress(ctx, campusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute marking progress")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, progress, s.cacheTTL); err != nil {
			s.logger.Warn("marking progress cache write failed", zap.Error(err))
		}
	}
	return progress, nil
}

// ExportLedgerCSV renders one ledger as CSV.
func (s *ResultService) ExportLedgerCSV(ctx context.Context, resultID string) ([]byte, string, error) {
	result, dataset, err := s.ledgerDataset(ctx, resultID)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, fmt.Sprintf("ledger-%s.csv", result.ID), nil
}

// ExportLedgerPDF renders one ledger as PDF.
func (s *ResultService) ExportLedgerPDF(ctx context.Context, resultID string) ([]byte, string, error) {
	result, dataset, err := s.ledgerDataset(ctx, resultID)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(dataset, result.Title)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, fmt.Sprintf("ledger-%s.pdf", result.ID), nil
}

func (s *ResultService) ledgerDataset(ctx context.Context, resultID string) (*models.Result, export.Dataset, error) {
	result, err := s.ledgers.FindByID(ctx, resultID)
	if err != nil {
		return nil, export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger")
	}
	if result == nil {
		return nil, export.Dataset{}, appErrors.Clone(appErrors.ErrNotFound, "ledger not found")
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Test Score", "Task Score", "Percentage", "Overall Outcome", "Notes"},
	}
	for _, entry := range result.Results {
		dataset.Rows = append(dataset.Rows, []string{
			entry.StudentID,
			strconv.Itoa(entry.TestScore),
			strconv.Itoa(entry.TaskScore),
			strconv.Itoa(entry.Percentage),
			string(entry.OverallOutcome),
			entry.Notes,
		})
	}
	return result, dataset, nil
}
