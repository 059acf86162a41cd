package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

// FoodService is what FoodHandler needs from the service layer.
// *service.FoodService implements it.
type FoodService interface {
	Search(ctx context.Context, query string, limit int) ([]model.Food, error)
	CreateCustomFood(ctx context.Context, in model.CustomFoodInput) (*model.Food, error)
	GetCustomFood(ctx context.Context, id string) (*model.Food, error)
	ListCustomFoods(ctx context.Context) ([]model.Food, error)
	UpdateCustomFood(ctx context.Context, id string, in model.CustomFoodInput) (*model.Food, error)
	DeleteCustomFood(ctx context.Context, id string) error
}

// FoodHandler serves food search and custom food CRUD.
type FoodHandler struct {
	foods  FoodService
	logger *slog.Logger
}

// NewFoodHandler creates a FoodHandler.
func NewFoodHandler(foods FoodService, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{foods: foods, logger: logger}
}

// HandleSearch searches custom and reference foods.
//
// HTTP: GET /api/foods/search?q=chicken&limit=10
//
// A missing limit uses the service default. A limit that is not a number is
// a 400; an out-of-range one is clamped by the service.
func (h *FoodHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, h.logger, apperror.ValidationFailed("limit", "limit must be an integer"))
			return
		}
		limit = n
	}

	foods, err := h.foods.Search(r.Context(), q.Get("q"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SearchResponse{Results: foods})
}

// HandleListCustom returns every custom food.
//
// HTTP: GET /api/custom-foods
func (h *FoodHandler) HandleListCustom(w http.ResponseWriter, r *http.Request) {
	foods, err := h.foods.ListCustomFoods(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

// HandleCreateCustom creates a custom food.
//
// HTTP: POST /api/custom-foods
// BODY: {"name":"Shake","serving_size":1,"serving_unit":"scoop","calories":120,...}
func (h *FoodHandler) HandleCreateCustom(w http.ResponseWriter, r *http.Request) {
	var in model.CustomFoodInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	food, err := h.foods.CreateCustomFood(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, food)
}

// HandleGetCustom returns one custom food.
//
// HTTP: GET /api/custom-foods/{id}
func (h *FoodHandler) HandleGetCustom(w http.ResponseWriter, r *http.Request) {
	food, err := h.foods.GetCustomFood(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// HandleUpdateCustom applies a partial update; omitted fields are unchanged.
//
// HTTP: PUT /api/custom-foods/{id}
func (h *FoodHandler) HandleUpdateCustom(w http.ResponseWriter, r *http.Request) {
	var in model.CustomFoodInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	food, err := h.foods.UpdateCustomFood(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// HandleDeleteCustom permanently removes a custom food.
//
// HTTP: DELETE /api/custom-foods/{id} → 204
func (h *FoodHandler) HandleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	if err := h.foods.DeleteCustomFood(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
