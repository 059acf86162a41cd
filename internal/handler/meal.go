package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/food-diary/internal/model"
)

// MealService is what MealHandler needs from the service layer.
// *service.MealService implements it.
type MealService interface {
	Create(ctx context.Context, req model.SaveMealRequest) (*model.CustomMeal, error)
	Get(ctx context.Context, id string) (*model.CustomMeal, error)
	List(ctx context.Context) ([]model.CustomMeal, error)
	Update(ctx context.Context, id string, req model.UpdateMealRequest) (*model.CustomMeal, error)
	Delete(ctx context.Context, id string) error
}

// MealHandler serves custom meal CRUD.
type MealHandler struct {
	meals  MealService
	logger *slog.Logger
}

// NewMealHandler creates a MealHandler.
func NewMealHandler(meals MealService, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, logger: logger}
}

// HandleList returns all meals, newest first.
//
// HTTP: GET /api/meals
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	meals, err := h.meals.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}

// HandleCreate saves a new meal. The body is exactly what a composer hands
// its save callback.
//
// HTTP: POST /api/meals
// BODY: {"name":"Lunch","items":[{"food_id":"ref:egg","quantity":2}]}
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.SaveMealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	meal, err := h.meals.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// HandleGet returns one meal.
//
// HTTP: GET /api/meals/{id}
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	meal, err := h.meals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// HandleUpdate renames a meal and/or replaces its items.
//
// HTTP: PUT /api/meals/{id}
// BODY: {"name":"..."} or {"items":[...]} or both
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateMealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	meal, err := h.meals.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

// HandleDelete soft-deletes a meal.
//
// HTTP: DELETE /api/meals/{id} → 204
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.meals.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
