package service

import (
	"context"
	"sync"

	"careconnect/internal/config"
	"careconnect/internal/dto"
	"careconnect/internal/pkg/logger"
	"careconnect/pkg/rag/retrieval"
	"careconnect/pkg/store"
	"careconnect/pkg/warehouse"

	"github.com/patrickmn/go-cache"
)

const (
	cacheKeyCategories = "categories"
	cacheKeyDocuments  = "documents"
)

type ICatalogService interface {
	Models() dto.ModelsResponse
	DefaultSettings() store.Settings
	Categories(ctx context.Context) dto.CategoriesResponse
	Documents(ctx context.Context) []dto.DocumentResponse
	ValidateModel(name string) error
	ValidateCategory(ctx context.Context, category string) error
	Invalidate()
	Reload(catalog config.CatalogConfig)
}

type catalogService struct {
	q       warehouse.Querier
	mu      sync.RWMutex
	catalog config.CatalogConfig
	search  config.SearchConfig
	cache   *cache.Cache
	logger  logger.ILogger
}

func NewCatalogService(q warehouse.Querier, catalog config.CatalogConfig, search config.SearchConfig, log logger.ILogger) ICatalogService {
	return &catalogService{
		q:       q,
		catalog: catalog,
		search:  search,
		cache:   cache.New(catalog.DocumentsTTL, 2*catalog.DocumentsTTL),
		logger:  log,
	}
}

func (s *catalogService) Models() dto.ModelsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]string, len(s.catalog.Models))
	copy(models, s.catalog.Models)
	return dto.ModelsResponse{Models: models, Default: s.catalog.DefaultModel}
}

// DefaultSettings are the selector defaults handed to new sessions. Blank
// catalog values fall back to the store defaults.
func (s *catalogService) DefaultSettings() store.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := store.DefaultSettings()
	if s.catalog.DefaultModel != "" {
		settings.ModelName = s.catalog.DefaultModel
	}
	if s.catalog.DefaultCategory != "" {
		settings.Category = s.catalog.DefaultCategory
	}
	return settings
}

// Categories always starts with "ALL". A failed lookup degrades to just
// "ALL" and is not cached.
func (s *catalogService) Categories(ctx context.Context) dto.CategoriesResponse {
	categories, _ := s.categories(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.CategoriesResponse{Categories: categories, Default: s.catalog.DefaultCategory}
}

func (s *catalogService) categories(ctx context.Context) ([]string, error) {
	if x, found := s.cache.Get(cacheKeyCategories); found {
		return x.([]string), nil
	}

	values, err := warehouse.DistinctValues(ctx, s.q, s.search.ChunksTable, retrieval.ColumnCategory)
	if err != nil {
		s.logger.Error("CATALOG", "Error getting categories", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{retrieval.CategoryAll}, err
	}

	categories := append([]string{retrieval.CategoryAll}, values...)
	s.cache.SetDefault(cacheKeyCategories, categories)
	return categories, nil
}

// Documents lists the staged files; a failed lookup yields an empty list.
func (s *catalogService) Documents(ctx context.Context) []dto.DocumentResponse {
	if x, found := s.cache.Get(cacheKeyDocuments); found {
		return x.([]dto.DocumentResponse)
	}

	files, err := warehouse.ListStage(ctx, s.q, s.search.Stage)
	if err != nil {
		s.logger.Error("CATALOG", "Error getting documents", map[string]interface{}{
			"error": err.Error(),
			"stage": s.search.Stage,
		})
		return []dto.DocumentResponse{}
	}

	docs := make([]dto.DocumentResponse, 0, len(files))
	for _, f := range files {
		docs = append(docs, dto.DocumentResponse{
			Name:         f.Name,
			Size:         f.Size,
			LastModified: f.LastModified,
		})
	}
	s.cache.SetDefault(cacheKeyDocuments, docs)
	return docs
}

func (s *catalogService) ValidateModel(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.catalog.Models {
		if m == name {
			return nil
		}
	}
	return ErrUnknownModel
}

// ValidateCategory accepts "ALL" and any known category. When the category
// list cannot be loaded every value is accepted; the search filter then
// simply matches nothing.
func (s *catalogService) ValidateCategory(ctx context.Context, category string) error {
	if category == retrieval.CategoryAll {
		return nil
	}
	categories, err := s.categories(ctx)
	if err != nil {
		return nil
	}
	for _, c := range categories {
		if c == category {
			return nil
		}
	}
	return ErrUnknownCategory
}

func (s *catalogService) Invalidate() {
	s.cache.Flush()
}

// Reload swaps the model list and selector defaults. Existing sessions keep
// their model even if it is no longer listed.
func (s *catalogService) Reload(catalog config.CatalogConfig) {
	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	s.logger.Info("CATALOG", "Catalog reloaded", map[string]interface{}{
		"models":        len(catalog.Models),
		"default_model": catalog.DefaultModel,
	})
}
