package usecase

import (
	"context"
	"strings"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ domain.CategoryUseCase = (*CategoryUseCase)(nil)

type CategoryUseCase struct {
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewCategoryUseCase(repo domain.CategoryRepository, logger *logrus.Logger) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: repo,
		log:          logger,
	}
}

func (uc *CategoryUseCase) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warn("Use Case: Attempted to create category with empty name")
		return nil, domain.Validation("category name cannot be empty")
	}

	uc.log.Infof("Use Case: Attempting to create category with name '%s'", category.Name)
	if err := uc.categoryRepo.CreateCategory(ctx, category); err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", category.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category '%s' created successfully with ID %s", category.Name, category.ID)
	return category, nil
}

func (uc *CategoryUseCase) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get category ID %s: %v", id, err)
		return nil, err
	}
	return category, nil
}

func (uc *CategoryUseCase) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		uc.log.Warnf("Use Case: Attempted update for category %s with empty name", category.ID)
		return nil, domain.Validation("category name cannot be empty")
	}

	if err := uc.categoryRepo.UpdateCategory(ctx, category); err != nil {
		uc.log.Errorf("Use Case: Repository failed to update category ID %s: %v", category.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Category updated successfully for ID %s", category.ID)
	return category, nil
}

func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %s: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Category deleted successfully for ID %s", id)
	return nil
}

func (uc *CategoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.categoryRepo.ListCategories(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list categories: %v", err)
		return nil, err
	}
	uc.log.Debugf("Use Case: Retrieved %d categories", len(categories))
	return categories, nil
}

func (uc *CategoryUseCase) CreateSubCategory(ctx context.Context, sub *domain.SubCategory) (*domain.SubCategory, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" {
		return nil, domain.Validation("subcategory name cannot be empty")
	}
	if sub.CategoryID == uuid.Nil {
		return nil, domain.Validation("category_id is required")
	}

	if err := uc.categoryRepo.CreateSubCategory(ctx, sub); err != nil {
		uc.log.Errorf("Use Case: Repository failed to create subcategory '%s': %v", sub.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Subcategory '%s' created with ID %s under category %s", sub.Name, sub.ID, sub.CategoryID)
	return sub, nil
}

func (uc *CategoryUseCase) GetSubCategory(ctx context.Context, id uuid.UUID) (*domain.SubCategory, error) {
	return uc.categoryRepo.GetSubCategoryByID(ctx, id)
}

func (uc *CategoryUseCase) UpdateSubCategory(ctx context.Context, sub *domain.SubCategory) (*domain.SubCategory, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" {
		return nil, domain.Validation("subcategory name cannot be empty")
	}
	if sub.CategoryID == uuid.Nil {
		current, err := uc.categoryRepo.GetSubCategoryByID(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		sub.CategoryID = current.CategoryID
	}

	if err := uc.categoryRepo.UpdateSubCategory(ctx, sub); err != nil {
		uc.log.Errorf("Use Case: Repository failed to update subcategory ID %s: %v", sub.ID, err)
		return nil, err
	}
	return sub, nil
}

func (uc *CategoryUseCase) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	if err := uc.categoryRepo.DeleteSubCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete subcategory ID %s: %v", id, err)
		return err
	}
	return nil
}

func (uc *CategoryUseCase) ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]domain.SubCategory, error) {
	return uc.categoryRepo.ListSubCategories(ctx, categoryID)
}
