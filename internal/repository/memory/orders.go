package memory

import (
	"context"
	"sort"

	"shoplit/internal/domain"

	"github.com/google/uuid"
)

func (st *state) loadOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, 0)
	for _, item := range st.orderItems {
		if item.OrderID == o.ID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	o.Items = items
	o.RecalculateTotal()
	return o
}

func (s *Store) CreateOrder(ctx context.Context, order *domain.Order) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.users[order.UserID]; !ok {
			return domain.Validation("user with id %d does not exist", order.UserID)
		}
		now := s.now()
		order.ID = st.nextID()
		order.CreatedAt, order.UpdatedAt = now, now
		stored := *order
		stored.Items = nil
		st.orders[order.ID] = stored
		return nil
	})
}

func (s *Store) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	var found *domain.Order
	err := s.do(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NotFound("order with id %d not found", id)
		}
		loaded := st.loadOrder(o)
		found = &loaded
		return nil
	})
	return found, err
}

func (s *Store) GetOrderForUser(ctx context.Context, id, userID int64) (*domain.Order, error) {
	var found *domain.Order
	err := s.do(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok || o.UserID != userID {
			return domain.NotFound("order with id %d not found", id)
		}
		loaded := st.loadOrder(o)
		found = &loaded
		return nil
	})
	return found, err
}

func (s *Store) ListOrdersByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.do(ctx, func(st *state) error {
		matched := make([]domain.Order, 0)
		for _, o := range st.orders {
			if o.UserID == userID {
				matched = append(matched, o)
			}
		}
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
		page := paginate(matched, limit, offset)
		orders = make([]domain.Order, 0, len(page))
		for _, o := range page {
			orders = append(orders, st.loadOrder(o))
		}
		return nil
	})
	return orders, err
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	return s.do(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return domain.NotFound("order with id %d not found", id)
		}
		o.Status = status
		o.UpdatedAt = s.now()
		st.orders[id] = o
		return nil
	})
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return domain.NotFound("order with id %d not found", id)
		}
		delete(st.orders, id)
		for itemID, item := range st.orderItems {
			if item.OrderID == id {
				delete(st.orderItems, itemID)
			}
		}
		for paymentID, p := range st.payments {
			if p.OrderID != nil && *p.OrderID == id {
				delete(st.payments, paymentID)
			}
		}
		return nil
	})
}

func (s *Store) FindOrderItem(ctx context.Context, orderID int64, productID uuid.UUID) (*domain.OrderItem, error) {
	var found *domain.OrderItem
	err := s.do(ctx, func(st *state) error {
		for _, item := range st.orderItems {
			if item.OrderID == orderID && item.ProductID == productID {
				it := item
				found = &it
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (s *Store) CreateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.orders[item.OrderID]; !ok {
			return domain.Validation("order with id %d does not exist", item.OrderID)
		}
		if _, ok := st.products[item.ProductID]; !ok {
			return domain.Validation("product with id %s does not exist", item.ProductID)
		}
		for _, existing := range st.orderItems {
			if existing.OrderID == item.OrderID && existing.ProductID == item.ProductID {
				return domain.Conflict("order %d already contains product %s", item.OrderID, item.ProductID)
			}
		}
		now := s.now()
		item.ID = st.nextID()
		item.CreatedAt, item.UpdatedAt = now, now
		st.orderItems[item.ID] = *item
		return nil
	})
}

func (s *Store) UpdateOrderItem(ctx context.Context, item *domain.OrderItem) error {
	return s.do(ctx, func(st *state) error {
		existing, ok := st.orderItems[item.ID]
		if !ok {
			return domain.NotFound("order item with id %d not found", item.ID)
		}
		existing.Quantity = item.Quantity
		existing.Price = item.Price
		existing.UpdatedAt = s.now()
		st.orderItems[item.ID] = existing
		*item = existing
		return nil
	})
}
