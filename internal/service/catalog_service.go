package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/unigrado/grado-api/internal/models"
	"github.com/unigrado/grado-api/internal/repository"
	appErrors "github.com/unigrado/grado-api/pkg/errors"
)

type catalogRepository interface {
	ListStatuses(ctx context.Context) ([]models.Status, error)
	FindStatus(ctx context.Context, id models.StatusID) (*models.Status, error)
	ListActionTypes(ctx context.Context) ([]models.ActionType, error)
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListDegreeOptions(ctx context.Context, programID string) ([]models.DegreeOption, error)
}

type catalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const (
	cacheKeyStatuses    = "catalog:statuses"
	cacheKeyActionTypes = "catalog:action_types"
	cacheKeyPrograms    = "catalog:programs"
	cacheKeyOptions     = "catalog:degree_options:"
)

// CatalogService serves the read-mostly reference catalogs, fronted by a
// Redis cache. Cache failures degrade to database reads, never to errors.
type CatalogService struct {
	catalogs catalogRepository
	cache    catalogCache
	table    *TransitionTable
	ttl      time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewCatalogService constructs a CatalogService. metrics may be nil.
func NewCatalogService(catalogs catalogRepository, cache catalogCache, table *TransitionTable, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalogs: catalogs, cache: cache, table: table, ttl: ttl, metrics: metrics, logger: logger}
}

// Statuses returns the lifecycle status catalog in order.
func (s *CatalogService) Statuses(ctx context.Context) ([]models.Status, error) {
	var cached []models.Status
	if err := s.cache.Get(ctx, cacheKeyStatuses, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("status cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	statuses, err := s.catalogs.ListStatuses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statuses")
	}
	if err := s.cache.Set(ctx, cacheKeyStatuses, statuses, s.ttl); err != nil {
		s.logger.Warn("status cache write failed", zap.Error(err))
	}
	return statuses, nil
}

// Status returns one status catalog entry.
func (s *CatalogService) Status(ctx context.Context, id models.StatusID) (*models.Status, error) {
	status, err := s.catalogs.FindStatus(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	return status, nil
}

// ActionTypes returns the workflow action catalog.
func (s *CatalogService) ActionTypes(ctx context.Context) ([]models.ActionType, error) {
	var cached []models.ActionType
	if err := s.cache.Get(ctx, cacheKeyActionTypes, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("action type cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	actions, err := s.catalogs.ListActionTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list action types")
	}
	if err := s.cache.Set(ctx, cacheKeyActionTypes, actions, s.ttl); err != nil {
		s.logger.Warn("action type cache write failed", zap.Error(err))
	}
	return actions, nil
}

// Programs returns all academic programs.
func (s *CatalogService) Programs(ctx context.Context) ([]models.Program, error) {
	var cached []models.Program
	if err := s.cache.Get(ctx, cacheKeyPrograms, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("program cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	programs, err := s.catalogs.ListPrograms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list programs")
	}
	if err := s.cache.Set(ctx, cacheKeyPrograms, programs, s.ttl); err != nil {
		s.logger.Warn("program cache write failed", zap.Error(err))
	}
	return programs, nil
}

// DegreeOptions returns the degree options offered by a program.
func (s *CatalogService) DegreeOptions(ctx context.Context, programID string) ([]models.DegreeOption, error) {
	key := cacheKeyOptions + programID
	var cached []models.DegreeOption
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return cached, nil
	} else if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("degree option cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	options, err := s.catalogs.ListDegreeOptions(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list degree options")
	}
	if err := s.cache.Set(ctx, key, options, s.ttl); err != nil {
		s.logger.Warn("degree option cache write failed", zap.Error(err))
	}
	return options, nil
}

// Transitions enumerates the legal lifecycle edges so clients can render the
// workflow without hardcoding it.
func (s *CatalogService) Transitions() []TransitionEdge {
	return s.table.Edges()
}
