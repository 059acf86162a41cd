package model

import "math"

// Totals is the nutrition of a whole meal.
type Totals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// ComputeTotals sums food.nutrient * quantity over the items.
//
// It is a pure function of its input. Callers recompute on every access
// instead of storing a running total, so the result always reflects the
// current item list.
func ComputeTotals(items []MealLineItem) Totals {
	var t Totals
	for _, it := range items {
		t.Calories += it.Food.Calories * it.Quantity
		t.ProteinG += it.Food.ProteinG * it.Quantity
		t.CarbsG += it.Food.CarbsG * it.Quantity
		t.FatG += it.Food.FatG * it.Quantity
	}
	return t
}

// Rounded returns the totals as the backend reports them: whole calories and
// grams to two decimals.
func (t Totals) Rounded() Totals {
	return Totals{
		Calories: math.Round(t.Calories),
		ProteinG: round2(t.ProteinG),
		CarbsG:   round2(t.CarbsG),
		FatG:     round2(t.FatG),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
