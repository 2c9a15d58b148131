package repository

import (
	"context"

	"shoplit/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var _ domain.PaymentRepository = (*PostgresPaymentRepository)(nil)

type PostgresPaymentRepository struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func NewPostgresPaymentRepository(db *sqlx.DB, logger *logrus.Logger) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db:  db,
		log: logger,
	}
}

const paymentColumns = `id, user_id, order_id, reference, email, amount, status, verified, created_at, updated_at`

func (r *PostgresPaymentRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
        INSERT INTO payments (user_id, order_id, reference, email, amount, status, verified)
        VALUES (:user_id, :order_id, :reference, :email, :amount, :status, :verified)
        RETURNING id, created_at, updated_at`
	rows, err := sqlx.NamedQueryContext(ctx, conn(ctx, r.db), query, payment)
	if err != nil {
		r.log.Errorf("Repository: Failed to create payment %s: %v", payment.Reference, err)
		if pqCode(err) == pqUniqueViolation {
			return domain.Conflict("payment for reference %s or its order already exists", payment.Reference)
		}
		return translate(err, "payment")
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
			return translate(err, "payment")
		}
	}
	if err := rows.Err(); err != nil {
		return translate(err, "payment")
	}
	r.log.Infof("Repository: Payment %d created with reference %s", payment.ID, payment.Reference)
	return nil
}

func (r *PostgresPaymentRepository) UpdatePayment(ctx context.Context, payment *domain.Payment) error {
	query := `
        UPDATE payments
        SET order_id = $2, reference = $3, email = $4, amount = $5, status = $6, verified = $7, updated_at = NOW()
        WHERE id = $1
        RETURNING created_at, updated_at`
	err := conn(ctx, r.db).QueryRowxContext(ctx, query,
		payment.ID, payment.OrderID, payment.Reference, payment.Email, payment.Amount, payment.Status, payment.Verified,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		r.log.Errorf("Repository: Failed to update payment %d: %v", payment.ID, err)
		if pqCode(err) == pqUniqueViolation {
			return domain.Conflict("payment reference %s already exists", payment.Reference)
		}
		return translate(err, "payment")
	}
	return nil
}

func (r *PostgresPaymentRepository) getPayment(ctx context.Context, where string, arg interface{}) (*domain.Payment, error) {
	var payment domain.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where + lockSuffix(ctx)
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &payment, query, arg); err != nil {
		return nil, translate(err, "payment")
	}
	return &payment, nil
}

func (r *PostgresPaymentRepository) GetPaymentByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	return r.getPayment(ctx, `reference = $1`, reference)
}

func (r *PostgresPaymentRepository) GetPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return r.getPayment(ctx, `order_id = $1`, orderID)
}

func (r *PostgresPaymentRepository) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM payments WHERE reference = $1)`, reference).Scan(&exists)
	if err != nil {
		return false, translate(err, "payment")
	}
	return exists, nil
}

func (r *PostgresPaymentRepository) ListPaymentsByUserID(ctx context.Context, userID int64) ([]domain.Payment, error) {
	payments := make([]domain.Payment, 0)
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY id DESC`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &payments, query, userID); err != nil {
		r.log.Errorf("Repository: Failed to list payments for user %d: %v", userID, err)
		return nil, translate(err, "payment")
	}
	return payments, nil
}
