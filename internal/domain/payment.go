package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	OrderID   *int64          `json:"order_id" db:"order_id"`
	Reference string          `json:"reference" db:"reference"`
	Email     string          `json:"email" db:"email"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Status    PaymentStatus   `json:"status" db:"status"`
	Verified  bool            `json:"verified" db:"verified"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// PaymentSession is what a caller needs to complete checkout on the
// gateway's hosted page.
type PaymentSession struct {
	Payment    *Payment `json:"payment"`
	PaymentURL string   `json:"payment_url"`
	AccessCode string   `json:"access_code"`
}

// ToMinorUnits converts a major-unit amount into the integer minor units
// the gateway expects.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type InitializeTransactionRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
}

type InitializeTransactionResult struct {
	Status           bool
	Message          string
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

type VerifyTransactionResult struct {
	Status            bool
	Message           string
	Reference         string
	TransactionStatus string
	AmountMinor       int64
}

// PaymentGateway returns an error wrapping ErrGatewayUnavailable on transport
// failures. A gateway that answered but declined reports Status=false.
type PaymentGateway interface {
	InitializeTransaction(ctx context.Context, req InitializeTransactionRequest) (*InitializeTransactionResult, error)
	VerifyTransaction(ctx context.Context, reference string) (*VerifyTransactionResult, error)
}

type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

const WebhookChargeSuccess = "charge.success"

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *Payment) error
	UpdatePayment(ctx context.Context, payment *Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ListPaymentsByUserID(ctx context.Context, userID int64) ([]Payment, error)
}

type PaymentUseCase interface {
	InitializePayment(ctx context.Context, userID, orderID int64) (*PaymentSession, error)
	VerifyPayment(ctx context.Context, userID int64, reference string) (*Payment, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) error
	ListPayments(ctx context.Context, userID int64) ([]Payment, error)
}
