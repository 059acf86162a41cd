package collection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04", s)
	require.NoError(t, err)
	return ts
}

func testMeals(t *testing.T) []model.CustomMeal {
	t.Helper()
	return []model.CustomMeal{
		{ID: "meal-1", Name: "Breakfast Combo", CreatedAt: at(t, "2025-12-06T10:00")},
		{ID: "meal-2", Name: "Lunch Special", CreatedAt: at(t, "2025-12-06T11:00")},
	}
}

// deleteRecorder collects delete callback invocations.
type deleteRecorder struct {
	ids []string
}

func (r *deleteRecorder) onDelete(id string) {
	r.ids = append(r.ids, id)
}

func newTestCollection(t *testing.T) (*Collection, *deleteRecorder) {
	t.Helper()
	rec := &deleteRecorder{}
	c := New(rec.onDelete)
	c.SetProps(Props{Meals: testMeals(t)})
	return c, rec
}

func ids(meals []model.CustomMeal) []string {
	out := make([]string, len(meals))
	for i, m := range meals {
		out[i] = m.ID
	}
	return out
}

// =========================================================================
// STATUS TESTS
// =========================================================================

func TestView_StatusPrecedence(t *testing.T) {
	meals := testMeals(t)
	tests := []struct {
		name  string
		props Props
		want  Status
	}{
		{"loading wins over everything", Props{Meals: meals, Loading: true, Error: "boom"}, StatusLoading},
		{"error wins over meals", Props{Meals: meals, Error: "failed to load meals"}, StatusError},
		{"empty input", Props{}, StatusEmpty},
		{"list", Props{Meals: meals}, StatusList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			c.SetProps(tt.props)

			v := c.View()

			assert.Equal(t, tt.want, v.Status)
			if tt.want != StatusList {
				assert.Empty(t, v.Meals)
			}
		})
	}
}

func TestView_ErrorMessage(t *testing.T) {
	c := New(nil)
	c.SetProps(Props{Error: "failed to delete meal"})

	assert.Equal(t, "failed to delete meal", c.View().Error)
}

// =========================================================================
// SORT / FILTER TESTS
// =========================================================================

func TestView_SortsNewestFirst(t *testing.T) {
	c, _ := newTestCollection(t)
	assert.Equal(t, []string{"meal-2", "meal-1"}, ids(c.View().Meals))

	// Same meals, reversed input order.
	meals := testMeals(t)
	c.SetProps(Props{Meals: []model.CustomMeal{meals[1], meals[0]}})
	assert.Equal(t, []string{"meal-2", "meal-1"}, ids(c.View().Meals))
}

func TestSortNewestFirst_StableForTies(t *testing.T) {
	ts := at(t, "2025-12-06T10:00")
	meals := []model.CustomMeal{
		{ID: "a", CreatedAt: ts},
		{ID: "b", CreatedAt: ts.Add(time.Hour)},
		{ID: "c", CreatedAt: ts},
	}

	got := SortNewestFirst(meals)

	assert.Equal(t, []string{"b", "a", "c"}, ids(got))
	assert.Equal(t, []string{"a", "b", "c"}, ids(meals), "input must not be reordered")
}

func TestView_Filter(t *testing.T) {
	c, _ := newTestCollection(t)

	c.SetQuery("breakfast")
	v := c.View()
	assert.Equal(t, []string{"meal-1"}, ids(v.Meals))
	assert.False(t, v.NoMatch)

	c.SetQuery("  SPECIAL ")
	assert.Equal(t, []string{"meal-2"}, ids(c.View().Meals))

	c.SetQuery("   ")
	assert.Len(t, c.View().Meals, 2)
}

func TestView_NoMatch(t *testing.T) {
	c, _ := newTestCollection(t)
	c.SetQuery("dinner")

	v := c.View()

	assert.Equal(t, StatusList, v.Status)
	assert.True(t, v.NoMatch)
	assert.Empty(t, v.Meals)
}

func TestView_ShowsServerTotals(t *testing.T) {
	c := New(nil)
	c.SetProps(Props{Meals: []model.CustomMeal{{
		ID:     "meal-1",
		Name:   "Snack",
		Items:  []model.MealLineItem{{Food: model.Food{ID: "ref:x", Calories: 100}, Quantity: 2}},
		Totals: model.Totals{Calories: 999},
	}}})

	assert.Equal(t, 999.0, c.View().Meals[0].Totals.Calories)
}

// =========================================================================
// EXPAND TESTS
// =========================================================================

func TestToggleExpand(t *testing.T) {
	c, _ := newTestCollection(t)

	c.ToggleExpand("meal-1")
	assert.True(t, c.View().IsExpanded("meal-1"))

	c.ToggleExpand("meal-1")
	v := c.View()
	assert.False(t, v.IsExpanded("meal-1"))
	assert.Empty(t, v.Expanded)
}

func TestToggleExpand_OtherReplaces(t *testing.T) {
	c, _ := newTestCollection(t)

	c.ToggleExpand("meal-1")
	c.ToggleExpand("meal-2")

	v := c.View()
	assert.Equal(t, "meal-2", v.Expanded)
	assert.False(t, v.IsExpanded("meal-1"))
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete_CancelNeverDeletes(t *testing.T) {
	c, rec := newTestCollection(t)

	require.NoError(t, c.RequestDelete("meal-1"))
	v := c.View()
	require.NotNil(t, v.PendingDelete)
	assert.Equal(t, "Breakfast Combo", v.PendingDelete.Name)

	c.CancelDelete()

	assert.Nil(t, c.View().PendingDelete)
	assert.Empty(t, rec.ids)
	assert.False(t, c.ConfirmDelete(), "nothing pending after cancel")
	assert.Empty(t, rec.ids)
}

func TestDelete_ConfirmDeletesOnce(t *testing.T) {
	c, rec := newTestCollection(t)

	require.NoError(t, c.RequestDelete("meal-1"))
	assert.True(t, c.ConfirmDelete())
	assert.False(t, c.ConfirmDelete())

	assert.Equal(t, []string{"meal-1"}, rec.ids)
	assert.Nil(t, c.View().PendingDelete)
}

func TestDelete_ConfirmWithoutRequestIsNoop(t *testing.T) {
	c, rec := newTestCollection(t)

	assert.False(t, c.ConfirmDelete())

	assert.Empty(t, rec.ids)
}

func TestDelete_UnknownMeal(t *testing.T) {
	c, rec := newTestCollection(t)

	err := c.RequestDelete("missing")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Nil(t, c.View().PendingDelete)
	assert.False(t, c.ConfirmDelete())
	assert.Empty(t, rec.ids)
}

func TestDelete_CallbackMayUpdateProps(t *testing.T) {
	var c *Collection
	c = New(func(id string) {
		c.SetProps(Props{Loading: true})
	})
	c.SetProps(Props{Meals: testMeals(t)})
	require.NoError(t, c.RequestDelete("meal-2"))

	c.ConfirmDelete()

	assert.Equal(t, StatusLoading, c.View().Status)
}

// =========================================================================
// VIEW STATE ACROSS NEW MEAL SETS
// =========================================================================

func TestSetProps_KeepsViewState(t *testing.T) {
	c, _ := newTestCollection(t)
	c.SetQuery("lunch")
	c.ToggleExpand("meal-2")
	require.NoError(t, c.RequestDelete("meal-1"))

	c.SetProps(Props{Loading: true})
	c.SetProps(Props{Meals: testMeals(t)})

	v := c.View()
	assert.Equal(t, "lunch", v.Query)
	assert.Equal(t, "meal-2", v.Expanded)
	require.NotNil(t, v.PendingDelete)
	assert.Equal(t, "meal-1", v.PendingDelete.ID)
	assert.Equal(t, []string{"meal-2"}, ids(v.Meals))
}

func TestResetView(t *testing.T) {
	c, rec := newTestCollection(t)
	c.SetQuery("lunch")
	c.ToggleExpand("meal-2")
	require.NoError(t, c.RequestDelete("meal-1"))

	c.ResetView()

	v := c.View()
	assert.Empty(t, v.Query)
	assert.Empty(t, v.Expanded)
	assert.Nil(t, v.PendingDelete)
	assert.Len(t, v.Meals, 2)
	assert.False(t, c.ConfirmDelete())
	assert.Empty(t, rec.ids)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "list", StatusList.String())
	assert.Equal(t, "unknown", Status(42).String())
}
