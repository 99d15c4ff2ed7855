package store

import (
	"database/sql"
	"fmt"

	"github.com/mchalk/repset/internal/model"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(scanner interface{ Scan(...any) error }) (*model.Recipe, error) {
	var r model.Recipe
	err := scanner.Scan(
		&r.ID, &r.Name, &r.Category, &r.Difficulty, &r.Calories,
		&r.ProteinGrams, &r.CarbsGrams, &r.FatGrams, &r.CookMinutes,
		&r.Tags, &r.Recommended, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const recipeCols = `id, name, category, difficulty, calories, protein_grams, carbs_grams, fat_grams, cook_minutes, tags, recommended, created_at`

func (s *RecipeStore) List() ([]model.Recipe, error) {
	rows, err := s.db.Query(`SELECT ` + recipeCols + ` FROM recipes ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) GetByID(id int64) (*model.Recipe, error) {
	row := s.db.QueryRow(`SELECT `+recipeCols+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeStore) Create(r model.Recipe) (*model.Recipe, error) {
	result, err := s.db.Exec(
		`INSERT INTO recipes (name, category, difficulty, calories, protein_grams, carbs_grams, fat_grams, cook_minutes, tags, recommended)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Category, r.Difficulty, r.Calories, r.ProteinGrams,
		r.CarbsGrams, r.FatGrams, r.CookMinutes, r.Tags, r.Recommended,
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}
