package usecase

import (
	"context"
	"sort"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var _ domain.OrderUseCase = (*OrderUseCase)(nil)

type OrderUseCase struct {
	tx          domain.Transactor
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	paymentRepo domain.PaymentRepository
	notifier    domain.Notifier
	log         *logrus.Logger
}

func NewOrderUseCase(
	tx domain.Transactor,
	orderRepo domain.OrderRepository,
	productRepo domain.ProductRepository,
	paymentRepo domain.PaymentRepository,
	notifier domain.Notifier,
	logger *logrus.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		tx:          tx,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		paymentRepo: paymentRepo,
		notifier:    notifier,
		log:         logger,
	}
}

// mergeLines folds repeated products into one line with the summed quantity.
// Lines come back in product id order so concurrent orders lock product rows
// in the same sequence.
func mergeLines(lines []domain.OrderLine) ([]domain.OrderLine, error) {
	if len(lines) == 0 {
		return nil, domain.Validation("order must contain at least one item")
	}
	quantities := make(map[uuid.UUID]int, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, domain.Validation("item %d: product_id is required", i)
		}
		if line.Quantity <= 0 {
			return nil, domain.Validation("item %d (product %s): quantity must be positive", i, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
	}
	merged := make([]domain.OrderLine, 0, len(quantities))
	for productID, quantity := range quantities {
		merged = append(merged, domain.OrderLine{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged, nil
}

// applyLines brings every line of the order to the requested quantity.
// Creation and later edits both go through here: a new product reserves its
// full quantity, an existing one reserves or releases only the difference and
// is repriced at the line's unit price snapshot. Must run inside a transaction.
func (uc *OrderUseCase) applyLines(ctx context.Context, orderID int64, lines []domain.OrderLine) error {
	for _, line := range lines {
		product, err := uc.productRepo.GetProductByID(ctx, line.ProductID)
		if err != nil {
			uc.log.Warnf("Use Case: Product %s lookup failed for order %d: %v", line.ProductID, orderID, err)
			return err
		}

		existing, err := uc.orderRepo.FindOrderItem(ctx, orderID, line.ProductID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := uc.createOrderItem(ctx, orderID, product, line.Quantity); err != nil {
				return err
			}
			continue
		}

		delta := line.Quantity - existing.Quantity
		switch {
		case delta > 0:
			if !product.IsActive {
				return domain.Validation("product %s is not available", product.ID)
			}
			if _, err := uc.productRepo.DecrementStock(ctx, product.ID, delta); err != nil {
				uc.log.Warnf("Use Case: Could not reserve %d more of product %s for order %d: %v", delta, product.ID, orderID, err)
				return err
			}
		case delta < 0:
			if _, err := uc.productRepo.IncrementStock(ctx, product.ID, -delta); err != nil {
				return err
			}
		default:
			continue
		}

		existing.Quantity = line.Quantity
		existing.Price = existing.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if err := uc.orderRepo.UpdateOrderItem(ctx, existing); err != nil {
			uc.log.Errorf("Use Case: Failed to update item for product %s in order %d: %v", product.ID, orderID, err)
			return err
		}
		uc.log.Infof("Use Case: Order %d product %s quantity changed by %d", orderID, product.ID, delta)
	}
	return nil
}

// createOrderItem reserves stock with a single conditional decrement and
// snapshots the line price at the current unit price.
func (uc *OrderUseCase) createOrderItem(ctx context.Context, orderID int64, product *domain.Product, quantity int) error {
	if !product.IsActive {
		return domain.Validation("product %s is not available", product.ID)
	}
	if _, err := uc.productRepo.DecrementStock(ctx, product.ID, quantity); err != nil {
		uc.log.Warnf("Use Case: Stock reservation failed for product %s (requested %d): %v", product.ID, quantity, err)
		return err
	}

	item := &domain.OrderItem{
		OrderID:   orderID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Price:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
	if err := uc.orderRepo.CreateOrderItem(ctx, item); err != nil {
		uc.log.Errorf("Use Case: Failed to insert item for product %s in order %d: %v", product.ID, orderID, err)
		return err
	}
	return nil
}

func (uc *OrderUseCase) CreateOrder(ctx context.Context, userID int64, lines []domain.OrderLine) (*domain.Order, error) {
	if userID <= 0 {
		return nil, domain.Validation("invalid user ID")
	}
	merged, err := mergeLines(lines)
	if err != nil {
		uc.log.Warnf("Use Case: Rejected order for user %d: %v", userID, err)
		return nil, err
	}

	var created *domain.Order
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		order := &domain.Order{UserID: userID, Status: domain.StatusCreated}
		if err := uc.orderRepo.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := uc.applyLines(ctx, order.ID, merged); err != nil {
			return err
		}
		loaded, err := uc.orderRepo.GetOrderByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if err := uc.notifier.NotifyOrderCreated(ctx, loaded); err != nil {
			return err
		}
		created = loaded
		return nil
	})
	if err != nil {
		uc.log.Warnf("Use Case: Order creation for user %d rolled back: %v", userID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Order %d created for user %d with %d items, total %s", created.ID, userID, len(created.Items), created.TotalAmount.StringFixed(2))
	return created, nil
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, userID, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.Validation("invalid order ID")
	}
	order, err := uc.orderRepo.GetOrderForUser(ctx, id, userID)
	if err != nil {
		uc.log.Warnf("Use Case: Order %d lookup for user %d failed: %v", id, userID, err)
		return nil, err
	}
	return order, nil
}

func (uc *OrderUseCase) ListOrders(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	limit, offset = domain.NormalizePage(limit, offset)
	orders, err := uc.orderRepo.ListOrdersByUserID(ctx, userID, limit, offset)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to list orders for user %d: %v", userID, err)
		return nil, err
	}
	return orders, nil
}

func (uc *OrderUseCase) UpdateOrderItems(ctx context.Context, userID, id int64, lines []domain.OrderLine) (*domain.Order, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	var updated *domain.Order
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.GetOrderForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if !order.Status.IsOpen() {
			return domain.Conflict("order %d can no longer be modified (status: %s)", id, order.Status)
		}
		if err := uc.checkNoPaymentInFlight(ctx, order.ID, "modified"); err != nil {
			return err
		}
		if err := uc.applyLines(ctx, order.ID, merged); err != nil {
			return err
		}
		updated, err = uc.orderRepo.GetOrderByID(ctx, order.ID)
		return err
	})
	if err != nil {
		uc.log.Warnf("Use Case: Update of order %d for user %d rolled back: %v", id, userID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Order %d items updated, total %s", id, updated.TotalAmount.StringFixed(2))
	return updated, nil
}

// checkNoPaymentInFlight refuses changes to an order whose payment was
// initialized but not yet verified; the gateway amount is fixed at that point.
func (uc *OrderUseCase) checkNoPaymentInFlight(ctx context.Context, orderID int64, action string) error {
	payment, err := uc.paymentRepo.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return err
	}
	if payment.Status == domain.PaymentStatusInitiated {
		return domain.Conflict("order %d cannot be %s while payment %s is awaiting verification", orderID, action, payment.Reference)
	}
	return nil
}

func (uc *OrderUseCase) restoreStock(ctx context.Context, order *domain.Order) error {
	for _, item := range order.Items {
		if _, err := uc.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			if domain.IsNotFound(err) {
				uc.log.Warnf("Use Case: Product %s of order %d no longer exists, stock not restored", item.ProductID, order.ID)
				continue
			}
			return err
		}
	}
	uc.log.Infof("Use Case: Stock restored for %d items of order %d", len(order.Items), order.ID)
	return nil
}

func checkTransition(from, to domain.OrderStatus) error {
	switch {
	case from == domain.StatusCancelled:
		return domain.Conflict("cannot change status of a cancelled order")
	case from == domain.StatusDelivered:
		return domain.Conflict("cannot change status of a delivered order")
	case to == domain.StatusCancelled && from == domain.StatusPaid:
		return domain.Conflict("cannot cancel a paid order")
	}
	return nil
}

func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if id <= 0 {
		return nil, domain.Validation("invalid order ID for status update")
	}
	if !domain.IsValidStatus(status) {
		return nil, domain.Validation("invalid target order status: %s", status)
	}

	var updated *domain.Order
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == status {
			updated = order
			return nil
		}
		if err := checkTransition(order.Status, status); err != nil {
			return err
		}

		if status == domain.StatusCancelled {
			if err := uc.checkNoPaymentInFlight(ctx, order.ID, "cancelled"); err != nil {
				return err
			}
			if err := uc.restoreStock(ctx, order); err != nil {
				return err
			}
		}
		if err := uc.orderRepo.UpdateOrderStatus(ctx, id, status); err != nil {
			return err
		}
		order.Status = status
		if status == domain.StatusDelivered {
			if err := uc.notifier.NotifyOrderDelivered(ctx, order); err != nil {
				return err
			}
		}
		updated = order
		return nil
	})
	if err != nil {
		uc.log.Warnf("Use Case: Status update of order %d to '%s' failed: %v", id, status, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Order %d status is now '%s'", id, updated.Status)
	return updated, nil
}

func (uc *OrderUseCase) DeleteOrder(ctx context.Context, userID, id int64) error {
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := uc.orderRepo.GetOrderForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusPaid || order.Status == domain.StatusDelivered {
			return domain.Conflict("cannot delete a %s order", order.Status)
		}
		if err := uc.checkNoPaymentInFlight(ctx, order.ID, "deleted"); err != nil {
			return err
		}
		if order.Status != domain.StatusCancelled {
			if err := uc.restoreStock(ctx, order); err != nil {
				return err
			}
		}
		return uc.orderRepo.DeleteOrder(ctx, id)
	})
	if err != nil {
		uc.log.Warnf("Use Case: Deleting order %d for user %d failed: %v", id, userID, err)
		return err
	}
	uc.log.Infof("Use Case: Order %d deleted by user %d", id, userID)
	return nil
}
