package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
	"github.com/sakif/food-diary/internal/repository"
)

var _ repository.MealRepository = (*DB)(nil)

// CreateMeal inserts the meal and its items in one transaction.
// ID and timestamps are assigned here.
func (db *DB) CreateMeal(ctx context.Context, meal *model.CustomMeal) error {
	meal.ID = xid.New().String()
	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	return db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO custom_meals (id, name, is_deleted, created_at, updated_at)
			 VALUES (?, ?, 0, ?, ?)`,
			meal.ID, meal.Name, meal.CreatedAt, meal.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating meal: %w", err)
		}
		return insertItems(ctx, tx, meal.ID, meal.Items)
	})
}

func insertItems(ctx context.Context, tx *sql.Tx, mealID string, items []model.MealLineItem) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO custom_meal_items (meal_id, position, food_id, quantity,
		        food_name, food_brand, serving_size, serving_unit,
		        calories, protein_g, carbs_g, fat_g)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing item insert: %w", err)
	}
	defer stmt.Close()

	for i, it := range items {
		f := it.Food
		if _, err := stmt.ExecContext(ctx,
			mealID, i, f.ID, it.Quantity,
			f.Name, f.Brand, f.ServingSize, f.ServingUnit,
			f.Calories, f.ProteinG, f.CarbsG, f.FatG,
		); err != nil {
			return fmt.Errorf("sqlite: inserting meal item %d: %w", i, err)
		}
	}
	return nil
}

// GetMeal returns a meal that has not been deleted, with its items.
func (db *DB) GetMeal(ctx context.Context, id string) (*model.CustomMeal, error) {
	var meal model.CustomMeal
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM custom_meals
		 WHERE id = ? AND is_deleted = 0`,
		id,
	).Scan(&meal.ID, &meal.Name, &meal.CreatedAt, &meal.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("meal", id)
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	items, err := db.loadItems(ctx, `WHERE i.meal_id = ?`, id)
	if err != nil {
		return nil, err
	}
	meal.Items = items[id]
	if meal.Items == nil {
		meal.Items = []model.MealLineItem{}
	}
	return &meal, nil
}

// ListMeals returns every meal that has not been deleted, newest first.
func (db *DB) ListMeals(ctx context.Context) ([]model.CustomMeal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at
		 FROM custom_meals
		 WHERE is_deleted = 0
		 ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals: %w", err)
	}
	defer rows.Close()

	meals := []model.CustomMeal{}
	for rows.Next() {
		var m model.CustomMeal
		if err := rows.Scan(&m.ID, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	items, err := db.loadItems(ctx,
		`JOIN custom_meals m ON m.id = i.meal_id WHERE m.is_deleted = 0`)
	if err != nil {
		return nil, err
	}
	for i := range meals {
		meals[i].Items = items[meals[i].ID]
		if meals[i].Items == nil {
			meals[i].Items = []model.MealLineItem{}
		}
	}
	return meals, nil
}

// loadItems reads line items grouped by meal id, in position order.
// An item whose food no longer exists comes back with IsDeleted set.
func (db *DB) loadItems(ctx context.Context, where string, args ...any) (map[string][]model.MealLineItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT i.meal_id, i.food_id, i.quantity,
		        i.food_name, i.food_brand, i.serving_size, i.serving_unit,
		        i.calories, i.protein_g, i.carbs_g, i.fat_g,
		        f.id IS NULL
		 FROM custom_meal_items i
		 LEFT JOIN foods f ON f.id = i.food_id
		 `+where+`
		 ORDER BY i.meal_id, i.position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading meal items: %w", err)
	}
	defer rows.Close()

	byMeal := make(map[string][]model.MealLineItem)
	for rows.Next() {
		var (
			mealID string
			it     model.MealLineItem
			f      = &it.Food
		)
		if err := rows.Scan(
			&mealID, &f.ID, &it.Quantity,
			&f.Name, &f.Brand, &f.ServingSize, &f.ServingUnit,
			&f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG,
			&it.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal item: %w", err)
		}
		f.Source = model.SourceOf(f.ID)
		byMeal[mealID] = append(byMeal[mealID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meal items: %w", err)
	}
	return byMeal, nil
}

// UpdateMeal saves the name and replaces all items.
func (db *DB) UpdateMeal(ctx context.Context, meal *model.CustomMeal) error {
	meal.UpdatedAt = time.Now().UTC()

	return db.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE custom_meals SET name = ?, updated_at = ?
			 WHERE id = ? AND is_deleted = 0`,
			meal.Name, meal.UpdatedAt, meal.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
		}
		if err := expectOneRow(result, "meal", meal.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM custom_meal_items WHERE meal_id = ?`, meal.ID); err != nil {
			return fmt.Errorf("sqlite: clearing meal items %s: %w", meal.ID, err)
		}
		return insertItems(ctx, tx, meal.ID, meal.Items)
	})
}

// DeleteMeal marks the meal deleted. Its rows stay in place.
func (db *DB) DeleteMeal(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE custom_meals SET is_deleted = 1, updated_at = ?
		 WHERE id = ? AND is_deleted = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}
	return expectOneRow(result, "meal", id)
}

// inTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}
