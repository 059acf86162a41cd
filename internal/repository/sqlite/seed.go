package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/food-diary/internal/model"
)

// referenceFoods is the bundled reference database. IDs are stable so that
// seeding is idempotent and meals keep pointing at the same rows across runs.
var referenceFoods = []model.Food{
	{ID: "ref:chicken-breast", Name: "Chicken Breast, grilled", ServingSize: 100, ServingUnit: "g", Calories: 165, ProteinG: 31, CarbsG: 0, FatG: 3.6},
	{ID: "ref:white-rice", Name: "White Rice, cooked", ServingSize: 100, ServingUnit: "g", Calories: 130, ProteinG: 2.7, CarbsG: 28, FatG: 0.3},
	{ID: "ref:brown-rice", Name: "Brown Rice, cooked", ServingSize: 100, ServingUnit: "g", Calories: 123, ProteinG: 2.7, CarbsG: 25.6, FatG: 1},
	{ID: "ref:egg", Name: "Egg, large", ServingSize: 1, ServingUnit: "egg", Calories: 72, ProteinG: 6.3, CarbsG: 0.4, FatG: 4.8},
	{ID: "ref:oats", Name: "Rolled Oats", ServingSize: 40, ServingUnit: "g", Calories: 150, ProteinG: 5, CarbsG: 27, FatG: 3},
	{ID: "ref:banana", Name: "Banana", ServingSize: 1, ServingUnit: "medium", Calories: 105, ProteinG: 1.3, CarbsG: 27, FatG: 0.4},
	{ID: "ref:apple", Name: "Apple", ServingSize: 1, ServingUnit: "medium", Calories: 95, ProteinG: 0.5, CarbsG: 25, FatG: 0.3},
	{ID: "ref:broccoli", Name: "Broccoli, steamed", ServingSize: 100, ServingUnit: "g", Calories: 35, ProteinG: 2.4, CarbsG: 7.2, FatG: 0.4},
	{ID: "ref:salmon", Name: "Salmon, baked", ServingSize: 100, ServingUnit: "g", Calories: 206, ProteinG: 22, CarbsG: 0, FatG: 12},
	{ID: "ref:greek-yogurt", Name: "Greek Yogurt, plain", Brand: "Fage", ServingSize: 170, ServingUnit: "g", Calories: 100, ProteinG: 18, CarbsG: 6, FatG: 0},
	{ID: "ref:whole-milk", Name: "Whole Milk", ServingSize: 1, ServingUnit: "cup", Calories: 149, ProteinG: 7.7, CarbsG: 11.7, FatG: 7.9},
	{ID: "ref:peanut-butter", Name: "Peanut Butter", Brand: "Jif", ServingSize: 32, ServingUnit: "g", Calories: 190, ProteinG: 7, CarbsG: 8, FatG: 16},
	{ID: "ref:whole-wheat-bread", Name: "Whole Wheat Bread", ServingSize: 1, ServingUnit: "slice", Calories: 81, ProteinG: 4, CarbsG: 13.8, FatG: 1.1},
	{ID: "ref:avocado", Name: "Avocado", ServingSize: 1, ServingUnit: "medium", Calories: 240, ProteinG: 3, CarbsG: 12.8, FatG: 22},
	{ID: "ref:olive-oil", Name: "Olive Oil", ServingSize: 1, ServingUnit: "tbsp", Calories: 119, ProteinG: 0, CarbsG: 0, FatG: 13.5},
	{ID: "ref:sweet-potato", Name: "Sweet Potato, baked", ServingSize: 1, ServingUnit: "medium", Calories: 103, ProteinG: 2.3, CarbsG: 23.6, FatG: 0.2},
	{ID: "ref:almonds", Name: "Almonds", ServingSize: 28, ServingUnit: "g", Calories: 164, ProteinG: 6, CarbsG: 6.1, FatG: 14.2},
	{ID: "ref:cheddar", Name: "Cheddar Cheese", ServingSize: 28, ServingUnit: "g", Calories: 113, ProteinG: 7, CarbsG: 0.4, FatG: 9.3},
	{ID: "ref:black-beans", Name: "Black Beans, cooked", ServingSize: 100, ServingUnit: "g", Calories: 132, ProteinG: 8.9, CarbsG: 23.7, FatG: 0.5},
	{ID: "ref:whey-protein", Name: "Whey Protein Powder", Brand: "Optimum Nutrition", ServingSize: 31, ServingUnit: "g", Calories: 120, ProteinG: 24, CarbsG: 3, FatG: 1.5},
}

// SeedReferenceFoods inserts the bundled reference foods that are missing.
// It returns how many rows were added; running it twice adds nothing.
func (db *DB) SeedReferenceFoods(ctx context.Context) (int, error) {
	var added int
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR IGNORE INTO foods (id, source, name, brand, serving_size, serving_unit,
			                              calories, protein_g, carbs_g, fat_g, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("sqlite: preparing seed insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, f := range referenceFoods {
			result, err := stmt.ExecContext(ctx,
				f.ID, model.SourceReference, f.Name, f.Brand, f.ServingSize, f.ServingUnit,
				f.Calories, f.ProteinG, f.CarbsG, f.FatG, now, now,
			)
			if err != nil {
				return fmt.Errorf("sqlite: seeding %s: %w", f.ID, err)
			}
			n, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("sqlite: checking rows affected: %w", err)
			}
			added += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// ReferenceFoodCount reports how many foods the bundled reference set holds.
func ReferenceFoodCount() int {
	return len(referenceFoods)
}
