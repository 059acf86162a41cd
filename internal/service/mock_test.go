package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// In-memory stand-ins for the sqlite repositories. They store copies so a
// test cannot reach into the "database" through a returned pointer.

type mockFoodRepo struct {
	mu     sync.Mutex
	foods  map[string]model.Food
	nextID int

	customSearches    int
	referenceSearches int

	customErr    error
	referenceErr error
	getErr       error
}

func newMockFoodRepo(foods ...model.Food) *mockFoodRepo {
	m := &mockFoodRepo{foods: make(map[string]model.Food)}
	for _, f := range foods {
		m.foods[f.ID] = f
	}
	return m
}

func (m *mockFoodRepo) search(ctx context.Context, custom bool, query string, limit int) ([]model.Food, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if custom {
		m.customSearches++
		if m.customErr != nil {
			return nil, m.customErr
		}
	} else {
		m.referenceSearches++
		if m.referenceErr != nil {
			return nil, m.referenceErr
		}
	}

	var out []model.Food
	for _, f := range sortedFoods(m.foods) {
		if f.IsCustom() != custom {
			continue
		}
		if strings.Contains(strings.ToLower(f.Name), strings.ToLower(query)) {
			out = append(out, f)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockFoodRepo) SearchReference(ctx context.Context, query string, limit int) ([]model.Food, error) {
	return m.search(ctx, false, query, limit)
}

func (m *mockFoodRepo) SearchCustom(ctx context.Context, query string, limit int) ([]model.Food, error) {
	return m.search(ctx, true, query, limit)
}

func (m *mockFoodRepo) GetFood(_ context.Context, id string) (*model.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	f, ok := m.foods[id]
	if !ok {
		return nil, apperror.NotFound("food", id)
	}
	return &f, nil
}

func (m *mockFoodRepo) CreateCustomFood(_ context.Context, food *model.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	food.ID = fmt.Sprintf("%smock-%d", model.CustomFoodPrefix, m.nextID)
	food.Source = model.SourceCustom
	m.foods[food.ID] = *food
	return nil
}

func (m *mockFoodRepo) GetCustomFood(ctx context.Context, id string) (*model.Food, error) {
	f, err := m.GetFood(ctx, id)
	if err != nil || !f.IsCustom() {
		return nil, apperror.NotFound("custom food", id)
	}
	return f, nil
}

func (m *mockFoodRepo) ListCustomFoods(_ context.Context) ([]model.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Food{}
	for _, f := range sortedFoods(m.foods) {
		if f.IsCustom() {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockFoodRepo) UpdateCustomFood(_ context.Context, food *model.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.foods[food.ID]; !ok || !food.IsCustom() {
		return apperror.NotFound("custom food", food.ID)
	}
	m.foods[food.ID] = *food
	return nil
}

func (m *mockFoodRepo) DeleteCustomFood(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok || !f.IsCustom() {
		return apperror.NotFound("custom food", id)
	}
	delete(m.foods, id)
	return nil
}

func (m *mockFoodRepo) searchCounts() (custom, reference int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customSearches, m.referenceSearches
}

func sortedFoods(foods map[string]model.Food) []model.Food {
	out := slices.Collect(maps.Values(foods))
	slices.SortFunc(out, func(a, b model.Food) int { return strings.Compare(a.Name, b.Name) })
	return out
}

type mockMealRepo struct {
	meals  map[string]model.CustomMeal
	nextID int
	err    error
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{meals: make(map[string]model.CustomMeal)}
}

func copyMeal(m model.CustomMeal) model.CustomMeal {
	m.Items = append([]model.MealLineItem(nil), m.Items...)
	return m
}

func (m *mockMealRepo) CreateMeal(_ context.Context, meal *model.CustomMeal) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	meal.ID = fmt.Sprintf("meal-%d", m.nextID)
	m.meals[meal.ID] = copyMeal(*meal)
	return nil
}

func (m *mockMealRepo) GetMeal(_ context.Context, id string) (*model.CustomMeal, error) {
	meal, ok := m.meals[id]
	if !ok {
		return nil, apperror.NotFound("meal", id)
	}
	meal = copyMeal(meal)
	return &meal, nil
}

func (m *mockMealRepo) ListMeals(_ context.Context) ([]model.CustomMeal, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := []model.CustomMeal{}
	for i := m.nextID; i > 0; i-- {
		if meal, ok := m.meals[fmt.Sprintf("meal-%d", i)]; ok {
			out = append(out, copyMeal(meal))
		}
	}
	return out, nil
}

func (m *mockMealRepo) UpdateMeal(_ context.Context, meal *model.CustomMeal) error {
	if _, ok := m.meals[meal.ID]; !ok {
		return apperror.NotFound("meal", meal.ID)
	}
	m.meals[meal.ID] = copyMeal(*meal)
	return nil
}

func (m *mockMealRepo) DeleteMeal(_ context.Context, id string) error {
	if _, ok := m.meals[id]; !ok {
		return apperror.NotFound("meal", id)
	}
	delete(m.meals, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fixture foods.
var (
	chicken = model.Food{ID: "ref:chicken", Name: "Chicken Breast", ServingSize: 100, ServingUnit: "g", Calories: 165, ProteinG: 31, FatG: 3.6}
	rice    = model.Food{ID: "ref:rice", Name: "White Rice", ServingSize: 100, ServingUnit: "g", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3}
	shake   = model.Food{ID: "custom:shake", Name: "Chicken Shake", ServingSize: 1, ServingUnit: "scoop", Calories: 120, ProteinG: 24, CarbsG: 3, FatG: 1.5}
)
