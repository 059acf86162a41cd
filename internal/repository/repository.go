// Package repository declares the storage interfaces the service layer depends on.
// The sqlite subpackage implements them.
package repository

import (
	"context"

	"github.com/sakif/food-diary/internal/model"
)

// FoodRepository stores the reference food database and user-authored foods.
type FoodRepository interface {
	SearchReference(ctx context.Context, query string, limit int) ([]model.Food, error)
	SearchCustom(ctx context.Context, query string, limit int) ([]model.Food, error)

	// GetFood finds a food of either source by id.
	GetFood(ctx context.Context, id string) (*model.Food, error)

	CreateCustomFood(ctx context.Context, food *model.Food) error
	GetCustomFood(ctx context.Context, id string) (*model.Food, error)
	ListCustomFoods(ctx context.Context) ([]model.Food, error)
	UpdateCustomFood(ctx context.Context, food *model.Food) error
	DeleteCustomFood(ctx context.Context, id string) error
}

// MealRepository stores custom meals. Line items are stored with the
// nutrition snapshot they carry.
type MealRepository interface {
	CreateMeal(ctx context.Context, meal *model.CustomMeal) error
	GetMeal(ctx context.Context, id string) (*model.CustomMeal, error)
	ListMeals(ctx context.Context) ([]model.CustomMeal, error)
	UpdateMeal(ctx context.Context, meal *model.CustomMeal) error
	// DeleteMeal soft-deletes: the meal disappears from Get and List.
	DeleteMeal(ctx context.Context, id string) error
}
