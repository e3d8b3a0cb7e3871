package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finwell/internal/core"
	"finwell/internal/storage"
)

type CategoryService struct {
	categories storage.CategoryStore
}

func NewCategoryService(categories storage.CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.categories.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "category_id", saved.ID, "type", saved.Type)
	return saved, nil
}

func (s *CategoryService) Update(ctx context.Context, c core.Category) (core.Category, error) {
	if _, err := s.categories.GetCategory(ctx, c.Owner, c.ID); err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	saved, err := s.categories.UpdateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return saved, nil
}

// Patch updates name and/or type, leaving nil fields unchanged.
func (s *CategoryService) Patch(ctx context.Context, owner string, id int64, name *string, typ *core.CategoryType) (core.Category, error) {
	cur, err := s.categories.GetCategory(ctx, owner, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	if name != nil {
		cur.Name = *name
	}
	if typ != nil {
		cur.Type = *typ
	}
	return s.Update(ctx, cur)
}

func (s *CategoryService) Get(ctx context.Context, owner string, id int64) (core.Category, error) {
	return s.categories.GetCategory(ctx, owner, id)
}

func (s *CategoryService) List(ctx context.Context, owner string) ([]core.Category, error) {
	return s.categories.ListCategories(ctx, owner)
}

// Delete removes the category together with its transactions and budgets.
func (s *CategoryService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.categories.DeleteCategory(ctx, owner, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}
