package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

func newMealService(t *testing.T) (*MealService, *mockMealRepo, *mockFoodRepo) {
	t.Helper()
	meals := newMockMealRepo()
	foods := newMockFoodRepo(chicken, rice, shake)
	return NewMealService(meals, foods, testLogger()), meals, foods
}

func lunchRequest() model.SaveMealRequest {
	return model.SaveMealRequest{
		Name: "  Lunch  ",
		Items: []model.MealItemRequest{
			{FoodID: chicken.ID, Quantity: 1.5},
			{FoodID: rice.ID, Quantity: 2},
		},
	}
}

// =========================================================================
// CREATE
// =========================================================================

func TestMealCreate(t *testing.T) {
	svc, _, _ := newMealService(t)

	meal, err := svc.Create(context.Background(), lunchRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, meal.ID)
	assert.Equal(t, "Lunch", meal.Name)
	require.Len(t, meal.Items, 2)
	assert.Equal(t, chicken, meal.Items[0].Food)
	assert.Equal(t, 1.5, meal.Items[0].Quantity)
	assert.Equal(t, rice, meal.Items[1].Food)

	// 165*1.5 + 130*2 = 507.5 → 508; protein 46.5 + 5.4 = 51.9
	assert.Equal(t, 508.0, meal.Totals.Calories)
	assert.InDelta(t, 51.9, meal.Totals.ProteinG, 1e-9)
	assert.InDelta(t, 56.0, meal.Totals.CarbsG, 1e-9)
	assert.InDelta(t, 6.0, meal.Totals.FatG, 1e-9)
}

func TestMealCreate_Validation(t *testing.T) {
	tests := map[string]struct {
		req   model.SaveMealRequest
		field string
	}{
		"empty name": {
			req:   model.SaveMealRequest{Name: " ", Items: []model.MealItemRequest{{FoodID: rice.ID, Quantity: 1}}},
			field: "name",
		},
		"long name": {
			req:   model.SaveMealRequest{Name: strings.Repeat("é", 101), Items: []model.MealItemRequest{{FoodID: rice.ID, Quantity: 1}}},
			field: "name",
		},
		"no items": {
			req:   model.SaveMealRequest{Name: "Lunch"},
			field: "items",
		},
		"zero quantity": {
			req:   model.SaveMealRequest{Name: "Lunch", Items: []model.MealItemRequest{{FoodID: rice.ID, Quantity: 0}}},
			field: "quantity",
		},
		"unknown food": {
			req:   model.SaveMealRequest{Name: "Lunch", Items: []model.MealItemRequest{{FoodID: "ref:nope", Quantity: 1}}},
			field: "items",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			svc, meals, _ := newMealService(t)

			_, err := svc.Create(context.Background(), tt.req)

			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, meals.meals)
		})
	}
}

func TestMealCreate_NameOf100RunesAccepted(t *testing.T) {
	svc, _, _ := newMealService(t)
	req := lunchRequest()
	req.Name = strings.Repeat("é", 100)

	_, err := svc.Create(context.Background(), req)

	assert.NoError(t, err)
}

func TestMealCreate_FoodLookupFailure(t *testing.T) {
	svc, _, foods := newMealService(t)
	foods.getErr = errors.New("db locked")

	_, err := svc.Create(context.Background(), lunchRequest())

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperror.ErrValidation)
}

func TestMealCreate_RepositoryFailure(t *testing.T) {
	svc, meals, _ := newMealService(t)
	meals.err = errors.New("disk full")

	_, err := svc.Create(context.Background(), lunchRequest())

	assert.ErrorContains(t, err, "creating meal")
}

// =========================================================================
// READ
// =========================================================================

func TestMealGet_ComputesTotals(t *testing.T) {
	svc, _, _ := newMealService(t)
	created, err := svc.Create(context.Background(), lunchRequest())
	require.NoError(t, err)

	meal, err := svc.Get(context.Background(), created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.Totals, meal.Totals)
}

func TestMealGet_NotFound(t *testing.T) {
	svc, _, _ := newMealService(t)

	_, err := svc.Get(context.Background(), "meal-404")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestMealList(t *testing.T) {
	svc, _, _ := newMealService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, lunchRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, model.SaveMealRequest{
		Name:  "Snack",
		Items: []model.MealItemRequest{{FoodID: shake.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	meals, err := svc.List(ctx)

	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "Snack", meals[0].Name)
	assert.Equal(t, 120.0, meals[0].Totals.Calories)
	assert.Equal(t, 508.0, meals[1].Totals.Calories)
}

// =========================================================================
// UPDATE
// =========================================================================

func TestMealUpdate_NameOnlyKeepsItems(t *testing.T) {
	svc, _, _ := newMealService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, lunchRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, model.UpdateMealRequest{Name: ptr(" Big Lunch ")})

	require.NoError(t, err)
	assert.Equal(t, "Big Lunch", updated.Name)
	assert.Equal(t, created.Items, updated.Items)
	assert.Equal(t, created.Totals, updated.Totals)
}

func TestMealUpdate_ReplacesItems(t *testing.T) {
	svc, _, _ := newMealService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, lunchRequest())
	require.NoError(t, err)

	items := []model.MealItemRequest{{FoodID: shake.ID, Quantity: 2}}
	updated, err := svc.Update(ctx, created.ID, model.UpdateMealRequest{Items: &items})

	require.NoError(t, err)
	assert.Equal(t, "Lunch", updated.Name)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, shake.ID, updated.Items[0].Food.ID)
	assert.Equal(t, 240.0, updated.Totals.Calories)

	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestMealUpdate_EmptyItemsRejected(t *testing.T) {
	svc, _, _ := newMealService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, lunchRequest())
	require.NoError(t, err)

	items := []model.MealItemRequest{}
	_, err = svc.Update(ctx, created.ID, model.UpdateMealRequest{Items: &items})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestMealUpdate_NotFound(t *testing.T) {
	svc, _, _ := newMealService(t)

	_, err := svc.Update(context.Background(), "meal-404", model.UpdateMealRequest{Name: ptr("x")})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// =========================================================================
// DELETE
// =========================================================================

func TestMealDelete(t *testing.T) {
	svc, _, _ := newMealService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, lunchRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), apperror.ErrNotFound)
}

func TestMealDelete_EmptyID(t *testing.T) {
	svc, _, _ := newMealService(t)

	assert.ErrorIs(t, svc.Delete(context.Background(), ""), apperror.ErrValidation)
}
