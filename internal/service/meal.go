package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

// MealService manages custom meals.
//
// Saving resolves every food id against the food repository and stores the
// food as it is now. Reads return totals computed from those snapshots,
// rounded for display.
type MealService struct {
	meals  repository.MealRepository
	foods  repository.FoodRepository
	logger *slog.Logger
}

// NewMealService creates a MealService.
func NewMealService(meals repository.MealRepository, foods repository.FoodRepository, logger *slog.Logger) *MealService {
	return &MealService{
		meals:  meals,
		foods:  foods,
		logger: logger,
	}
}

// Create validates and stores a new meal.
func (s *MealService) Create(ctx context.Context, req model.SaveMealRequest) (*model.CustomMeal, error) {
	name, err := validateMealName(req.Name)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	meal := &model.CustomMeal{Name: name, Items: items}
	if err := s.meals.CreateMeal(ctx, meal); err != nil {
		s.logger.Error("failed to create meal",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating meal: %w", err)
	}

	s.logger.Info("meal created",
		slog.String("id", meal.ID),
		slog.String("name", meal.Name),
		slog.Int("items", len(meal.Items)),
	)
	return withTotals(meal), nil
}

// Get returns one meal.
func (s *MealService) Get(ctx context.Context, id string) (*model.CustomMeal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "meal ID is required")
	}
	meal, err := s.meals.GetMeal(ctx, id)
	if err != nil {
		return nil, err
	}
	return withTotals(meal), nil
}

// List returns every meal, newest first.
func (s *MealService) List(ctx context.Context) ([]model.CustomMeal, error) {
	meals, err := s.meals.ListMeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	for i := range meals {
		withTotals(&meals[i])
	}
	return meals, nil
}

// Update renames the meal and/or replaces its items. Nil fields are left
// as they are; an existing item keeps its original snapshot unless Items is
// given.
func (s *MealService) Update(ctx context.Context, id string, req model.UpdateMealRequest) (*model.CustomMeal, error) {
	meal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name, err := validateMealName(*req.Name)
		if err != nil {
			return nil, err
		}
		meal.Name = name
	}
	if req.Items != nil {
		items, err := s.resolveItems(ctx, *req.Items)
		if err != nil {
			return nil, err
		}
		meal.Items = items
	}

	if err := s.meals.UpdateMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("updating meal: %w", err)
	}

	s.logger.Info("meal updated", slog.String("id", meal.ID))
	return withTotals(meal), nil
}

// Delete hides the meal from Get and List.
func (s *MealService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "meal ID is required")
	}
	if err := s.meals.DeleteMeal(ctx, id); err != nil {
		return err
	}
	s.logger.Info("meal deleted", slog.String("id", id))
	return nil
}

func validateMealName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "meal name is required")
	}
	if utf8.RuneCountInString(name) > model.MaxMealNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("meal name must be %d characters or less", model.MaxMealNameLength))
	}
	return name, nil
}

// resolveItems checks each requested item and snapshots its food.
func (s *MealService) resolveItems(ctx context.Context, reqs []model.MealItemRequest) ([]model.MealLineItem, error) {
	if len(reqs) == 0 {
		return nil, apperror.ValidationFailed("items", "meal must contain at least one food item")
	}

	items := make([]model.MealLineItem, 0, len(reqs))
	for _, r := range reqs {
		if !(r.Quantity > 0) || math.IsInf(r.Quantity, 0) {
			return nil, apperror.ValidationFailed("quantity", "quantity must be positive")
		}
		food, err := s.foods.GetFood(ctx, strings.TrimSpace(r.FoodID))
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("items", "one or more food items not found")
			}
			return nil, fmt.Errorf("resolving food %s: %w", r.FoodID, err)
		}
		items = append(items, model.MealLineItem{Food: *food, Quantity: r.Quantity})
	}
	return items, nil
}

func withTotals(meal *model.CustomMeal) *model.CustomMeal {
	meal.Totals = model.ComputeTotals(meal.Items).Rounded()
	return meal
}
