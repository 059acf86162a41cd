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

var _ repository.FoodRepository = (*DB)(nil)

const foodColumns = `id, source, name, brand, serving_size, serving_unit, calories, protein_g, carbs_g, fat_g`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFood(row rowScanner) (model.Food, error) {
	var f model.Food
	err := row.Scan(
		&f.ID, &f.Source, &f.Name, &f.Brand, &f.ServingSize, &f.ServingUnit,
		&f.Calories, &f.ProteinG, &f.CarbsG, &f.FatG,
	)
	return f, err
}

// SearchReference returns reference foods whose name or brand contains
// query, case-insensitively, ordered by name.
func (db *DB) SearchReference(ctx context.Context, query string, limit int) ([]model.Food, error) {
	return db.searchFoods(ctx, model.SourceReference, query, limit)
}

// SearchCustom is SearchReference for user-authored foods.
func (db *DB) SearchCustom(ctx context.Context, query string, limit int) ([]model.Food, error) {
	return db.searchFoods(ctx, model.SourceCustom, query, limit)
}

func (db *DB) searchFoods(ctx context.Context, source, query string, limit int) ([]model.Food, error) {
	pattern := likePattern(query)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+foodColumns+`
		 FROM foods
		 WHERE source = ?
		   AND (name LIKE ? ESCAPE '\' OR brand LIKE ? ESCAPE '\')
		 ORDER BY name COLLATE NOCASE
		 LIMIT ?`,
		source, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching %s foods: %w", source, err)
	}
	defer rows.Close()
	return collectFoods(rows)
}

func collectFoods(rows *sql.Rows) ([]model.Food, error) {
	foods := []model.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning food row: %w", err)
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating foods: %w", err)
	}
	return foods, nil
}

// GetFood finds a food of either source.
func (db *DB) GetFood(ctx context.Context, id string) (*model.Food, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+foodColumns+` FROM foods WHERE id = ?`, id)
	f, err := scanFood(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("food", id)
		}
		return nil, fmt.Errorf("sqlite: getting food %s: %w", id, err)
	}
	return &f, nil
}

// CreateCustomFood inserts a user-authored food and assigns it a "custom:" id.
func (db *DB) CreateCustomFood(ctx context.Context, food *model.Food) error {
	food.ID = model.CustomFoodPrefix + xid.New().String()
	food.Source = model.SourceCustom
	return db.insertFood(ctx, model.SourceCustom, food)
}

func (db *DB) insertFood(ctx context.Context, source string, food *model.Food) error {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO foods (id, source, name, brand, serving_size, serving_unit,
		                    calories, protein_g, carbs_g, fat_g, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		food.ID, source, food.Name, food.Brand, food.ServingSize, food.ServingUnit,
		food.Calories, food.ProteinG, food.CarbsG, food.FatG, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating food: %w", err)
	}
	return nil
}

// GetCustomFood finds a user-authored food. Reference ids are not found.
func (db *DB) GetCustomFood(ctx context.Context, id string) (*model.Food, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+foodColumns+` FROM foods WHERE id = ? AND source = ?`, id, model.SourceCustom)
	f, err := scanFood(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("custom food", id)
		}
		return nil, fmt.Errorf("sqlite: getting custom food %s: %w", id, err)
	}
	return &f, nil
}

// ListCustomFoods returns all user-authored foods ordered by name.
func (db *DB) ListCustomFoods(ctx context.Context) ([]model.Food, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+foodColumns+` FROM foods WHERE source = ? ORDER BY name COLLATE NOCASE`,
		model.SourceCustom)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing custom foods: %w", err)
	}
	defer rows.Close()
	return collectFoods(rows)
}

// UpdateCustomFood overwrites every writable field of a custom food.
// Meals that already contain the food keep their snapshot.
func (db *DB) UpdateCustomFood(ctx context.Context, food *model.Food) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE foods
		 SET name = ?, brand = ?, serving_size = ?, serving_unit = ?,
		     calories = ?, protein_g = ?, carbs_g = ?, fat_g = ?, updated_at = ?
		 WHERE id = ? AND source = ?`,
		food.Name, food.Brand, food.ServingSize, food.ServingUnit,
		food.Calories, food.ProteinG, food.CarbsG, food.FatG, time.Now().UTC(),
		food.ID, model.SourceCustom,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating custom food %s: %w", food.ID, err)
	}
	return expectOneRow(result, "custom food", food.ID)
}

// DeleteCustomFood removes a custom food permanently.
func (db *DB) DeleteCustomFood(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM foods WHERE id = ? AND source = ?`, id, model.SourceCustom)
	if err != nil {
		return fmt.Errorf("sqlite: deleting custom food %s: %w", id, err)
	}
	return expectOneRow(result, "custom food", id)
}

// expectOneRow maps "no rows affected" to NotFound.
func expectOneRow(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
