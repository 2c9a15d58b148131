package memory

import (
	"context"
	"sort"

	"shoplit/internal/domain"
)

func (st *state) checkPaymentUnique(p *domain.Payment) error {
	for _, existing := range st.payments {
		if existing.ID == p.ID {
			continue
		}
		if existing.Reference == p.Reference {
			return domain.Conflict("payment reference %s already exists", p.Reference)
		}
		if p.OrderID != nil && existing.OrderID != nil && *existing.OrderID == *p.OrderID {
			return domain.Conflict("order %d already has a payment", *p.OrderID)
		}
	}
	return nil
}

func (s *Store) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	return s.do(ctx, func(st *state) error {
		if err := st.checkPaymentUnique(payment); err != nil {
			return err
		}
		now := s.now()
		payment.ID = st.nextID()
		payment.CreatedAt, payment.UpdatedAt = now, now
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (s *Store) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	return s.do(ctx, func(st *state) error {
		existing, ok := st.payments[payment.ID]
		if !ok {
			return domain.NotFound("payment with id %d not found", payment.ID)
		}
		if err := st.checkPaymentUnique(payment); err != nil {
			return err
		}
		payment.CreatedAt = existing.CreatedAt
		payment.UpdatedAt = s.now()
		st.payments[payment.ID] = *payment
		return nil
	})
}

func (s *Store) GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	var found *domain.Payment
	err := s.do(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.Reference == reference {
				payment := p
				found = &payment
				return nil
			}
		}
		return domain.NotFound("payment with reference %s not found", reference)
	})
	return found, err
}

func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	var found *domain.Payment
	err := s.do(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.OrderID != nil && *p.OrderID == orderID {
				payment := p
				found = &payment
				return nil
			}
		}
		return domain.NotFound("payment for order %d not found", orderID)
	})
	return found, err
}

func (s *Store) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	exists := false
	err := s.do(ctx, func(st *state) error {
		for _, p := range st.payments {
			if p.Reference == reference {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (s *Store) ListPaymentsByUserID(ctx context.Context, userID int64) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := s.do(ctx, func(st *state) error {
		payments = make([]domain.Payment, 0)
		for _, p := range st.payments {
			if p.UserID == userID {
				payments = append(payments, p)
			}
		}
		sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
		return nil
	})
	return payments, err
}
