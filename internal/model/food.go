// Package model defines the data structures shared by the meal composer, the
// meal collection, the backend and the HTTP client.
//
// SNAPSHOTS:
// A Food is immutable once fetched. Meals never hold a pointer to a live food
// record; each MealLineItem carries a full copy of the Food as it looked when
// it was added, so nutrition survives later edits or deletion of the source.
package model

import "strings"

// Food id prefixes. The prefix namespaces an id by the source that owns it,
// so ids from the reference database and user-authored foods never collide.
const (
	CustomFoodPrefix    = "custom:"
	ReferenceFoodPrefix = "ref:"
)

// Food sources reported in search results.
const (
	SourceCustom    = "custom"
	SourceReference = "reference"
)

// Food is one searchable food with per-serving nutrition.
type Food struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Calories    float64 `json:"calories"`
	ProteinG    float64 `json:"protein_g"`
	CarbsG      float64 `json:"carbs_g"`
	FatG        float64 `json:"fat_g"`
}

// IsCustom reports whether the food was authored by the user.
func (f Food) IsCustom() bool {
	return strings.HasPrefix(f.ID, CustomFoodPrefix)
}

// SourceOf returns SourceCustom or SourceReference based on the id prefix.
// Meal item snapshots carry no source column and use it on read.
func SourceOf(id string) string {
	if strings.HasPrefix(id, CustomFoodPrefix) {
		return SourceCustom
	}
	return SourceReference
}

// CustomFoodInput carries the writable fields of a custom food.
// Pointer fields are optional on update: nil means "leave unchanged".
type CustomFoodInput struct {
	Name        *string  `json:"name,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	ServingSize *float64 `json:"serving_size,omitempty"`
	ServingUnit *string  `json:"serving_unit,omitempty"`
	Calories    *float64 `json:"calories,omitempty"`
	ProteinG    *float64 `json:"protein_g,omitempty"`
	CarbsG      *float64 `json:"carbs_g,omitempty"`
	FatG        *float64 `json:"fat_g,omitempty"`
}

// FoodInput builds a fully populated CustomFoodInput from a Food value.
// The id is ignored.
func FoodInput(f Food) CustomFoodInput {
	return CustomFoodInput{
		Name:        &f.Name,
		Brand:       &f.Brand,
		ServingSize: &f.ServingSize,
		ServingUnit: &f.ServingUnit,
		Calories:    &f.Calories,
		ProteinG:    &f.ProteinG,
		CarbsG:      &f.CarbsG,
		FatG:        &f.FatG,
	}
}

// SearchResponse is the wire shape of a food search.
type SearchResponse struct {
	Results []Food `json:"results"`
}
