// Package service contains the backend's business rules.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service (rules) → validates, orchestrates, caches
//	Repository      → reads/writes SQLite
//
// Services depend on the repository interfaces, never on the sqlite package,
// so tests run them against in-memory fakes. They return apperror values and
// know nothing about HTTP status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// Search and custom food limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50

	MaxFoodNameLength    = 255
	MaxBrandLength       = 255
	MaxServingUnitLength = 50
)

// FoodService searches both food sources and manages custom foods.
//
// SEARCH PIPELINE:
//
//	trim + clamp limit → cache lookup → singleflight → errgroup{custom, reference}
//
// Custom foods are listed before reference foods. A failing reference lookup
// degrades to custom-only results (logged, not cached); a failing custom
// lookup fails the search.
type FoodService struct {
	repo   repository.FoodRepository
	logger *slog.Logger

	cache *searchCache
	group singleflight.Group

	// gen increments on every custom food write. A search that started under
	// an older generation does not populate the cache.
	gen atomic.Uint64
}

// NewFoodService creates a FoodService. A cacheTTL of zero disables caching.
func NewFoodService(repo repository.FoodRepository, cacheTTL time.Duration, logger *slog.Logger) *FoodService {
	return &FoodService{
		repo:   repo,
		logger: logger,
		cache:  newSearchCache(cacheTTL),
	}
}

// Search returns up to limit foods matching query. A blank query returns an
// empty list without touching storage.
func (s *FoodService) Search(ctx context.Context, query string, limit int) ([]model.Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Food{}, nil
	}
	limit = clampLimit(limit)

	key := strings.ToLower(query) + ":" + strconv.Itoa(limit)
	if foods, ok := s.cache.get(key); ok {
		s.logger.Debug("food search cache hit", slog.String("key", key))
		return foods, nil
	}

	// Concurrent identical searches share one lookup. The shared call must not
	// die with whichever request happened to start it.
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.searchSources(context.WithoutCancel(ctx), key, query, limit)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("food search shared", slog.String("key", key))
	}
	return slices.Clone(v.([]model.Food)), nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return min(limit, MaxSearchLimit)
}

func (s *FoodService) searchSources(ctx context.Context, key, query string, limit int) ([]model.Food, error) {
	gen := s.gen.Load()

	var (
		custom, reference []model.Food
		referenceFailed   bool
	)

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		foods, err := s.repo.SearchCustom(gctx, query, limit)
		if err != nil {
			return fmt.Errorf("searching custom foods: %w", err)
		}
		custom = foods
		return nil
	})
	grp.Go(func() error {
		foods, err := s.repo.SearchReference(gctx, query, limit)
		if err != nil {
			s.logger.Warn("reference food search failed",
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
			referenceFailed = true
			return nil
		}
		reference = foods
		return nil
	})
	if err := grp.Wait(); err != nil {
		s.logger.Error("food search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	results := make([]model.Food, 0, len(custom)+len(reference))
	results = append(results, custom...)
	results = append(results, reference...)
	if len(results) > limit {
		results = results[:limit]
	}

	if !referenceFailed && s.gen.Load() == gen {
		s.cache.put(key, results)
	}

	s.logger.Debug("food search",
		slog.String("query", query),
		slog.Int("limit", limit),
		slog.Int("custom", len(custom)),
		slog.Int("reference", len(reference)),
	)
	return results, nil
}

// invalidate drops cached searches after a custom food changes.
func (s *FoodService) invalidate() {
	s.gen.Add(1)
	s.cache.clear()
}

// CreateCustomFood validates and stores a user-authored food. Name, serving
// size and serving unit are required; nutrients default to zero.
func (s *FoodService) CreateCustomFood(ctx context.Context, in model.CustomFoodInput) (*model.Food, error) {
	if in.Name == nil {
		return nil, apperror.ValidationFailed("name", "food name is required")
	}
	if in.ServingSize == nil {
		return nil, apperror.ValidationFailed("serving_size", "serving size is required")
	}
	if in.ServingUnit == nil {
		return nil, apperror.ValidationFailed("serving_unit", "serving unit is required")
	}

	food := &model.Food{}
	applyFoodInput(food, in)
	if err := validateFood(food); err != nil {
		return nil, err
	}

	if err := s.repo.CreateCustomFood(ctx, food); err != nil {
		s.logger.Error("failed to create custom food",
			slog.String("name", food.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating custom food: %w", err)
	}
	s.invalidate()

	s.logger.Info("custom food created",
		slog.String("id", food.ID),
		slog.String("name", food.Name),
	)
	return food, nil
}

// GetCustomFood returns one custom food.
func (s *FoodService) GetCustomFood(ctx context.Context, id string) (*model.Food, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "food ID is required")
	}
	return s.repo.GetCustomFood(ctx, id)
}

// ListCustomFoods returns every custom food, ordered by name.
func (s *FoodService) ListCustomFoods(ctx context.Context) ([]model.Food, error) {
	foods, err := s.repo.ListCustomFoods(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing custom foods: %w", err)
	}
	return foods, nil
}

// UpdateCustomFood applies the non-nil fields of in to an existing custom food.
func (s *FoodService) UpdateCustomFood(ctx context.Context, id string, in model.CustomFoodInput) (*model.Food, error) {
	food, err := s.GetCustomFood(ctx, id)
	if err != nil {
		return nil, err
	}

	applyFoodInput(food, in)
	if err := validateFood(food); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCustomFood(ctx, food); err != nil {
		return nil, fmt.Errorf("updating custom food: %w", err)
	}
	s.invalidate()

	s.logger.Info("custom food updated", slog.String("id", food.ID))
	return food, nil
}

// DeleteCustomFood removes a custom food. Meals that contain it keep their
// snapshot and report the item as deleted.
func (s *FoodService) DeleteCustomFood(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "food ID is required")
	}

	if err := s.repo.DeleteCustomFood(ctx, id); err != nil {
		return err
	}
	s.invalidate()

	s.logger.Info("custom food deleted", slog.String("id", id))
	return nil
}

func applyFoodInput(f *model.Food, in model.CustomFoodInput) {
	if in.Name != nil {
		f.Name = strings.TrimSpace(*in.Name)
	}
	if in.Brand != nil {
		f.Brand = strings.TrimSpace(*in.Brand)
	}
	if in.ServingSize != nil {
		f.ServingSize = *in.ServingSize
	}
	if in.ServingUnit != nil {
		f.ServingUnit = strings.TrimSpace(*in.ServingUnit)
	}
	if in.Calories != nil {
		f.Calories = *in.Calories
	}
	if in.ProteinG != nil {
		f.ProteinG = *in.ProteinG
	}
	if in.CarbsG != nil {
		f.CarbsG = *in.CarbsG
	}
	if in.FatG != nil {
		f.FatG = *in.FatG
	}
}

func validateFood(f *model.Food) error {
	switch {
	case f.Name == "":
		return apperror.ValidationFailed("name", "food name is required")
	case utf8.RuneCountInString(f.Name) > MaxFoodNameLength:
		return apperror.ValidationFailed("name",
			fmt.Sprintf("food name must be %d characters or less", MaxFoodNameLength))
	case utf8.RuneCountInString(f.Brand) > MaxBrandLength:
		return apperror.ValidationFailed("brand",
			fmt.Sprintf("brand must be %d characters or less", MaxBrandLength))
	case !(f.ServingSize > 0) || math.IsInf(f.ServingSize, 0):
		return apperror.ValidationFailed("serving_size", "serving size must be positive")
	case f.ServingUnit == "":
		return apperror.ValidationFailed("serving_unit", "serving unit is required")
	case utf8.RuneCountInString(f.ServingUnit) > MaxServingUnitLength:
		return apperror.ValidationFailed("serving_unit",
			fmt.Sprintf("serving unit must be %d characters or less", MaxServingUnitLength))
	}

	nutrients := []struct {
		field string
		value float64
	}{
		{"calories", f.Calories},
		{"protein_g", f.ProteinG},
		{"carbs_g", f.CarbsG},
		{"fat_g", f.FatG},
	}
	for _, n := range nutrients {
		if !(n.value >= 0) || math.IsInf(n.value, 0) {
			return apperror.ValidationFailed(n.field, n.field+" cannot be negative")
		}
	}
	return nil
}
