package usecase

import (
	"context"
	"strings"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var _ domain.ProductUseCase = (*ProductUseCase)(nil)

type ProductUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	log          *logrus.Logger
}

func NewProductUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, logger *logrus.Logger) *ProductUseCase {
	return &ProductUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		log:          logger,
	}
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return domain.Validation("product price cannot be negative")
	}
	if !price.Equal(price.Round(2)) {
		return domain.Validation("product price must have at most two decimal places")
	}
	return nil
}

// resolveCategory fills in the category of a subcategory and rejects a
// subcategory that belongs to a different category.
func (uc *ProductUseCase) resolveCategory(ctx context.Context, categoryID, subCategoryID *uuid.UUID) (*uuid.UUID, error) {
	if subCategoryID == nil {
		return categoryID, nil
	}
	sub, err := uc.categoryRepo.GetSubCategoryByID(ctx, *subCategoryID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.Validation("subcategory with id %s does not exist", *subCategoryID)
		}
		return nil, err
	}
	if categoryID != nil && *categoryID != sub.CategoryID {
		return nil, domain.Validation("subcategory %s does not belong to category %s", sub.ID, *categoryID)
	}
	return &sub.CategoryID, nil
}

func (uc *ProductUseCase) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		uc.log.Warn("Use Case: Attempted to create product with empty name")
		return nil, domain.Validation("product name cannot be empty")
	}
	if err := validatePrice(product.Price); err != nil {
		return nil, err
	}
	if product.StockQuantity < 0 {
		return nil, domain.Validation("product stock cannot be negative")
	}

	categoryID, err := uc.resolveCategory(ctx, product.CategoryID, product.SubCategoryID)
	if err != nil {
		uc.log.Warnf("Use Case: Category check failed for product '%s': %v", product.Name, err)
		return nil, err
	}
	product.CategoryID = categoryID

	uc.log.Infof("Use Case: Attempting to create product '%s'", product.Name)
	if err := uc.productRepo.CreateProduct(ctx, product); err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", product.Name, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Product '%s' created successfully with ID %s", product.Name, product.ID)
	return product, nil
}

func (uc *ProductUseCase) GetProduct(ctx context.Context, id uuid.UUID, includeInactive bool) (*domain.Product, error) {
	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %s: %v", id, err)
		return nil, err
	}
	if !product.IsActive && !includeInactive {
		return nil, domain.NotFound("product with id %s not found", id)
	}
	return product, nil
}

func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	if update.IsEmpty() {
		uc.log.Infof("Use Case: No fields provided for product update ID %s", id)
		return uc.productRepo.GetProductByID(ctx, id)
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.Validation("product name cannot be empty")
		}
		update.Name = &name
	}
	if update.Price != nil {
		if err := validatePrice(*update.Price); err != nil {
			return nil, err
		}
	}
	if update.SubCategoryID != nil {
		// moving to a subcategory also moves the product to its category
		resolved, err := uc.resolveCategory(ctx, update.CategoryID, update.SubCategoryID)
		if err != nil {
			return nil, err
		}
		update.CategoryID = resolved
	}

	product, err := uc.productRepo.UpdateProduct(ctx, id, update)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update product ID %s: %v", id, err)
		return nil, err
	}
	uc.log.Infof("Use Case: Product updated successfully for ID %s", id)
	return product, nil
}

func (uc *ProductUseCase) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := uc.productRepo.DeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %s: %v", id, err)
		return err
	}
	uc.log.Infof("Use Case: Product deleted successfully for ID %s", id)
	return nil
}

func (uc *ProductUseCase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if !domain.IsValidOrdering(filter.Ordering) {
		return nil, domain.Validation("invalid ordering '%s'", filter.Ordering)
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domain.Validation("min_price cannot be greater than max_price")
	}
	filter.Limit, filter.Offset = domain.NormalizePage(filter.Limit, filter.Offset)

	products, err := uc.productRepo.ListProducts(ctx, filter)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, err
	}
	uc.log.Debugf("Use Case: Retrieved %d products (limit %d, offset %d)", len(products), filter.Limit, filter.Offset)
	return products, nil
}

// AdjustStock moves stock by delta through the conditional update, so a
// negative delta can never take stock below zero.
func (uc *ProductUseCase) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	if delta == 0 {
		return nil, domain.Validation("stock delta cannot be zero")
	}

	var (
		remaining int
		err       error
	)
	if delta < 0 {
		remaining, err = uc.productRepo.DecrementStock(ctx, id, -delta)
	} else {
		remaining, err = uc.productRepo.IncrementStock(ctx, id, delta)
	}
	if err != nil {
		uc.log.Warnf("Use Case: Stock adjustment of %d failed for product %s: %v", delta, id, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Stock for product %s adjusted by %d to %d", id, delta, remaining)
	return uc.productRepo.GetProductByID(ctx, id)
}
