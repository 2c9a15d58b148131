package memory

import (
	"context"
	"sort"
	"strings"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

func (s *Store) CreateCategory(ctx context.Context, category *domain.Category) error {
	return s.do(ctx, func(st *state) error {
		for _, c := range st.categories {
			if strings.EqualFold(c.Name, category.Name) {
				return domain.Conflict("category with name '%s' already exists", category.Name)
			}
		}
		if category.ID == uuid.Nil {
			category.ID = uuid.New()
		}
		now := s.now()
		category.CreatedAt, category.UpdatedAt = now, now
		st.categories[category.ID] = *category
		return nil
	})
}

func (s *Store) GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	var found *domain.Category
	err := s.do(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return domain.NotFound("category with id %s not found", id)
		}
		found = &c
		return nil
	})
	return found, err
}

func (s *Store) UpdateCategory(ctx context.Context, category *domain.Category) error {
	return s.do(ctx, func(st *state) error {
		existing, ok := st.categories[category.ID]
		if !ok {
			return domain.NotFound("category with id %s not found", category.ID)
		}
		for _, c := range st.categories {
			if c.ID != category.ID && strings.EqualFold(c.Name, category.Name) {
				return domain.Conflict("category with name '%s' already exists", category.Name)
			}
		}
		category.CreatedAt = existing.CreatedAt
		category.UpdatedAt = s.now()
		st.categories[category.ID] = *category
		return nil
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return domain.NotFound("category with id %s not found", id)
		}
		delete(st.categories, id)
		removedSubs := make(map[uuid.UUID]bool)
		for subID, sub := range st.subcategories {
			if sub.CategoryID == id {
				removedSubs[subID] = true
				delete(st.subcategories, subID)
			}
		}
		for pid, p := range st.products {
			changed := false
			if p.CategoryID != nil && *p.CategoryID == id {
				p.CategoryID = nil
				changed = true
			}
			if p.SubCategoryID != nil && removedSubs[*p.SubCategoryID] {
				p.SubCategoryID = nil
				changed = true
			}
			if changed {
				st.products[pid] = p
			}
		}
		return nil
	})
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.do(ctx, func(st *state) error {
		categories = make([]domain.Category, 0, len(st.categories))
		for _, c := range st.categories {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
		return nil
	})
	return categories, err
}

func (s *Store) CreateSubCategory(ctx context.Context, sub *domain.SubCategory) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.categories[sub.CategoryID]; !ok {
			return domain.Validation("category with id %s does not exist", sub.CategoryID)
		}
		for _, existing := range st.subcategories {
			if existing.CategoryID == sub.CategoryID && strings.EqualFold(existing.Name, sub.Name) {
				return domain.Conflict("subcategory '%s' already exists in this category", sub.Name)
			}
		}
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		now := s.now()
		sub.CreatedAt, sub.UpdatedAt = now, now
		st.subcategories[sub.ID] = *sub
		return nil
	})
}

func (s *Store) GetSubCategoryByID(ctx context.Context, id uuid.UUID) (*domain.SubCategory, error) {
	var found *domain.SubCategory
	err := s.do(ctx, func(st *state) error {
		sub, ok := st.subcategories[id]
		if !ok {
			return domain.NotFound("subcategory with id %s not found", id)
		}
		found = &sub
		return nil
	})
	return found, err
}

func (s *Store) UpdateSubCategory(ctx context.Context, sub *domain.SubCategory) error {
	return s.do(ctx, func(st *state) error {
		existing, ok := st.subcategories[sub.ID]
		if !ok {
			return domain.NotFound("subcategory with id %s not found", sub.ID)
		}
		if _, ok := st.categories[sub.CategoryID]; !ok {
			return domain.Validation("category with id %s does not exist", sub.CategoryID)
		}
		for _, other := range st.subcategories {
			if other.ID != sub.ID && other.CategoryID == sub.CategoryID && strings.EqualFold(other.Name, sub.Name) {
				return domain.Conflict("subcategory '%s' already exists in this category", sub.Name)
			}
		}
		sub.CreatedAt = existing.CreatedAt
		sub.UpdatedAt = s.now()
		st.subcategories[sub.ID] = *sub
		return nil
	})
}

func (s *Store) DeleteSubCategory(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.subcategories[id]; !ok {
			return domain.NotFound("subcategory with id %s not found", id)
		}
		delete(st.subcategories, id)
		for pid, p := range st.products {
			if p.SubCategoryID != nil && *p.SubCategoryID == id {
				p.SubCategoryID = nil
				st.products[pid] = p
			}
		}
		return nil
	})
}

func (s *Store) ListSubCategories(ctx context.Context, categoryID *uuid.UUID) ([]domain.SubCategory, error) {
	var subs []domain.SubCategory
	err := s.do(ctx, func(st *state) error {
		subs = make([]domain.SubCategory, 0)
		for _, sub := range st.subcategories {
			if categoryID != nil && sub.CategoryID != *categoryID {
				continue
			}
			subs = append(subs, sub)
		}
		sort.Slice(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
		return nil
	})
	return subs, err
}

func (st *state) checkProductRefs(categoryID, subCategoryID *uuid.UUID) error {
	if categoryID != nil {
		if _, ok := st.categories[*categoryID]; !ok {
			return domain.Validation("category with id %s does not exist", *categoryID)
		}
	}
	if subCategoryID != nil {
		if _, ok := st.subcategories[*subCategoryID]; !ok {
			return domain.Validation("subcategory with id %s does not exist", *subCategoryID)
		}
	}
	return nil
}

func (s *Store) CreateProduct(ctx context.Context, product *domain.Product) error {
	return s.do(ctx, func(st *state) error {
		if err := st.checkProductRefs(product.CategoryID, product.SubCategoryID); err != nil {
			return err
		}
		if product.ID == uuid.Nil {
			product.ID = uuid.New()
		}
		now := s.now()
		product.CreatedAt, product.UpdatedAt = now, now
		st.products[product.ID] = *product
		return nil
	})
}

func (s *Store) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var found *domain.Product
	err := s.do(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product with id %s not found", id)
		}
		found = &p
		return nil
	})
	return found, err
}

func (s *Store) UpdateProduct(ctx context.Context, id uuid.UUID, update domain.ProductUpdate) (*domain.Product, error) {
	var updated *domain.Product
	err := s.do(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product with id %s not found", id)
		}
		if err := st.checkProductRefs(update.CategoryID, update.SubCategoryID); err != nil {
			return err
		}
		if update.Name != nil {
			p.Name = *update.Name
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.Price != nil {
			p.Price = *update.Price
		}
		if update.CategoryID != nil {
			p.CategoryID = update.CategoryID
		}
		if update.SubCategoryID != nil {
			p.SubCategoryID = update.SubCategoryID
		}
		if update.IsActive != nil {
			p.IsActive = *update.IsActive
		}
		if !update.IsEmpty() {
			p.UpdatedAt = s.now()
		}
		st.products[id] = p
		updated = &p
		return nil
	})
	return updated, err
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.NotFound("product with id %s not found", id)
		}
		for _, item := range st.orderItems {
			if item.ProductID == id {
				return domain.Conflict("product %s is referenced by existing orders", id)
			}
		}
		delete(st.products, id)
		for itemID, item := range st.cartItems {
			if item.ProductID == id {
				delete(st.cartItems, itemID)
			}
		}
		for reviewID, r := range st.reviews {
			if r.ProductID == id {
				delete(st.reviews, reviewID)
			}
		}
		for _, items := range st.wishlistItems {
			delete(items, id)
		}
		return nil
	})
}

func (s *Store) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var products []domain.Product
	err := s.do(ctx, func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		matched := make([]domain.Product, 0)
		for _, p := range st.products {
			if !filter.IncludeInactive && !p.IsActive {
				continue
			}
			if filter.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *filter.CategoryID) {
				continue
			}
			if filter.SubCategoryID != nil && (p.SubCategoryID == nil || *p.SubCategoryID != *filter.SubCategoryID) {
				continue
			}
			if filter.MinPrice != nil && p.Price.LessThan(*filter.MinPrice) {
				continue
			}
			if filter.MaxPrice != nil && p.Price.GreaterThan(*filter.MaxPrice) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) {
				continue
			}
			matched = append(matched, p)
		}
		sortProducts(matched, filter.Ordering)
		products = paginate(matched, filter.Limit, filter.Offset)
		return nil
	})
	return products, err
}

func sortProducts(products []domain.Product, ordering string) {
	less := func(i, j int) bool {
		if !products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		}
		return products[i].ID.String() < products[j].ID.String()
	}
	switch ordering {
	case domain.OrderingPrice:
		less = func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) }
	case domain.OrderingPriceDesc:
		less = func(i, j int) bool { return products[i].Price.GreaterThan(products[j].Price) }
	case domain.OrderingCreatedAt:
		less = func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) }
	case domain.OrderingName:
		less = func(i, j int) bool { return products[i].Name < products[j].Name }
	}
	sort.SliceStable(products, less)
}

func paginate[T any](items []T, limit, offset int) []T {
	limit, offset = domain.NormalizePage(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (s *Store) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var remaining int
	err := s.do(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product with id %s not found", id)
		}
		if p.StockQuantity < quantity {
			return &domain.InsufficientStockError{ProductID: id, Requested: quantity, Available: p.StockQuantity}
		}
		p.StockQuantity -= quantity
		p.UpdatedAt = s.now()
		st.products[id] = p
		remaining = p.StockQuantity
		return nil
	})
	return remaining, err
}

func (s *Store) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var remaining int
	err := s.do(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product with id %s not found", id)
		}
		p.StockQuantity += quantity
		p.UpdatedAt = s.now()
		st.products[id] = p
		remaining = p.StockQuantity
		return nil
	})
	return remaining, err
}
