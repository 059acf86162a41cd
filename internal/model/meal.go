package model

import "time"

// MaxMealNameLength is the longest meal name accepted, in characters, after trimming.
const MaxMealNameLength = 100

// MealLineItem is one (food snapshot, quantity) pair inside a meal.
//
// IsDeleted marks that the referenced food has since been removed from the
// catalog. It is display-only: totals still use the snapshotted nutrition.
type MealLineItem struct {
	Food      Food    `json:"food"`
	Quantity  float64 `json:"quantity"`
	IsDeleted bool    `json:"is_deleted,omitempty"`
}

// CustomMeal is a named, reusable bundle of line items.
//
// Totals is the server-computed snapshot. List views display it as-is and
// never recompute it.
type CustomMeal struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Items     []MealLineItem `json:"items"`
	Totals    Totals         `json:"totals"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// MealItemRequest is a line item reduced to what a save needs.
// The nutrition snapshot and deletion flag are never resubmitted.
type MealItemRequest struct {
	FoodID   string  `json:"food_id"`
	Quantity float64 `json:"quantity"`
}

// SaveMealRequest is what a meal composer hands to its caller on save, and
// the body of the create/update meal endpoints.
type SaveMealRequest struct {
	Name  string            `json:"name"`
	Items []MealItemRequest `json:"items"`
}

// UpdateMealRequest is a partial update: a nil field is left unchanged.
// A non-nil Items replaces the whole item list.
type UpdateMealRequest struct {
	Name  *string            `json:"name,omitempty"`
	Items *[]MealItemRequest `json:"items,omitempty"`
}
