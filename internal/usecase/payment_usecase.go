package usecase

import (
	"context"
	"errors"

	"shoplit/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var _ domain.PaymentUseCase = (*PaymentUseCase)(nil)

const (
	maxReferenceAttempts = 5
	gatewaySuccessStatus = "success"
)

type PaymentUseCase struct {
	tx           domain.Transactor
	paymentRepo  domain.PaymentRepository
	orderRepo    domain.OrderRepository
	userRepo     domain.UserRepository
	gateway      domain.PaymentGateway
	notifier     domain.Notifier
	newReference func() string
	callbackURL  string
	log          *logrus.Logger
}

func NewPaymentUseCase(
	tx domain.Transactor,
	paymentRepo domain.PaymentRepository,
	orderRepo domain.OrderRepository,
	userRepo domain.UserRepository,
	gateway domain.PaymentGateway,
	notifier domain.Notifier,
	logger *logrus.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		tx:           tx,
		paymentRepo:  paymentRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		notifier:     notifier,
		newReference: uuid.NewString,
		log:          logger,
	}
}

// WithReferenceGenerator replaces the reference source.
func (uc *PaymentUseCase) WithReferenceGenerator(gen func() string) *PaymentUseCase {
	uc.newReference = gen
	return uc
}

// WithCallbackURL sets where the gateway redirects the customer after checkout.
func (uc *PaymentUseCase) WithCallbackURL(callbackURL string) *PaymentUseCase {
	uc.callbackURL = callbackURL
	return uc
}

func (uc *PaymentUseCase) generateReference(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		reference := uc.newReference()
		exists, err := uc.paymentRepo.ReferenceExists(ctx, reference)
		if err != nil {
			return "", err
		}
		if !exists {
			return reference, nil
		}
		uc.log.Warnf("Use Case: Payment reference collision on attempt %d", attempt)
	}
	return "", domain.Internal(nil, "could not generate a unique payment reference")
}

func gatewayError(err error) error {
	if errors.Is(err, domain.ErrGatewayUnavailable) {
		return domain.ExternalService(err, "payment gateway unavailable")
	}
	return domain.Internal(err, "payment gateway call failed")
}

// InitializePayment opens a gateway transaction for the order total. The
// gateway is called at most once; a rejection is returned with the gateway's
// message and nothing is persisted. The order status is not touched here.
func (uc *PaymentUseCase) InitializePayment(ctx context.Context, userID, orderID int64) (*domain.PaymentSession, error) {
	order, err := uc.orderRepo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if !order.Status.AwaitsPayment() {
		return nil, domain.Conflict("order %d cannot be paid (status: %s)", orderID, order.Status)
	}
	if !order.TotalAmount.IsPositive() {
		return nil, domain.Validation("order %d has nothing to pay", orderID)
	}

	existing, err := uc.paymentRepo.GetPaymentByOrderID(ctx, orderID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	if existing != nil && existing.Verified {
		return nil, domain.Conflict("order %d has already been paid", orderID)
	}

	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reference, err := uc.generateReference(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Reference generation for order %d failed: %v", orderID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Initializing payment for order %d, amount %s, reference %s", orderID, order.TotalAmount.StringFixed(2), reference)
	result, err := uc.gateway.InitializeTransaction(ctx, domain.InitializeTransactionRequest{
		Email:       user.Email,
		AmountMinor: domain.ToMinorUnits(order.TotalAmount),
		Reference:   reference,
		CallbackURL: uc.callbackURL,
	})
	if err != nil {
		uc.log.Errorf("Use Case: Gateway initialization for order %d failed: %v", orderID, err)
		return nil, gatewayError(err)
	}
	if !result.Status {
		uc.log.Warnf("Use Case: Gateway rejected initialization for order %d: %s", orderID, result.Message)
		return nil, domain.PaymentRejected(result.Message)
	}
	if result.Reference != "" {
		reference = result.Reference
	}

	var payment *domain.Payment
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Order before payment, the same lock order as item edits.
		locked, err := uc.orderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !locked.Status.AwaitsPayment() || !locked.TotalAmount.Equal(order.TotalAmount) {
			return domain.Conflict("order %d changed while the payment was being initialized", orderID)
		}
		current, err := uc.paymentRepo.GetPaymentByOrderID(ctx, orderID)
		if err != nil && !domain.IsNotFound(err) {
			return err
		}
		if current != nil && current.Verified {
			return domain.Conflict("order %d has already been paid", orderID)
		}

		if current == nil {
			payment = &domain.Payment{UserID: userID, OrderID: &order.ID}
		} else {
			payment = current
		}
		payment.Reference = reference
		payment.Email = user.Email
		payment.Amount = order.TotalAmount
		payment.Status = domain.PaymentStatusInitiated
		payment.Verified = false

		if current == nil {
			return uc.paymentRepo.CreatePayment(ctx, payment)
		}
		return uc.paymentRepo.UpdatePayment(ctx, payment)
	})
	if err != nil {
		uc.log.Errorf("Use Case: Persisting payment %s for order %d failed: %v", reference, orderID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: Payment %s initialized for order %d", reference, orderID)
	return &domain.PaymentSession{
		Payment:    payment,
		PaymentURL: result.AuthorizationURL,
		AccessCode: result.AccessCode,
	}, nil
}

func (uc *PaymentUseCase) VerifyPayment(ctx context.Context, userID int64, reference string) (*domain.Payment, error) {
	if reference == "" {
		return nil, domain.Validation("payment reference is required")
	}
	payment, err := uc.paymentRepo.GetPaymentByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment.UserID != userID {
		return nil, domain.NotFound("payment with reference %s not found", reference)
	}
	if payment.Verified {
		uc.log.Infof("Use Case: Payment %s already verified", reference)
		return payment, nil
	}
	return uc.verify(ctx, payment)
}

// verificationFailure returns nil when the gateway outcome settles the
// payment in full. The order total is compared too, so an order edited after
// initialization can never be marked paid for the old amount.
func verificationFailure(result *domain.VerifyTransactionResult, payment *domain.Payment, order *domain.Order) error {
	expected := domain.ToMinorUnits(payment.Amount)
	switch {
	case !result.Status:
		return domain.PaymentRejected(result.Message)
	case result.TransactionStatus != gatewaySuccessStatus:
		return domain.PaymentFailed("payment was not successful (status: %s)", result.TransactionStatus)
	case result.AmountMinor != expected:
		return domain.PaymentFailed("paid amount %d does not match expected amount %d", result.AmountMinor, expected)
	case order != nil && !order.TotalAmount.Equal(payment.Amount):
		return domain.PaymentFailed("order total %s no longer matches the initialized amount %s",
			order.TotalAmount.StringFixed(2), payment.Amount.StringFixed(2))
	}
	return nil
}

// verify asks the gateway for the transaction outcome and records it. A
// failure marks the payment failed and leaves the order alone; repeating a
// failure changes nothing and is not notified twice. A success only moves an
// order that is still waiting for payment.
func (uc *PaymentUseCase) verify(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	result, err := uc.gateway.VerifyTransaction(ctx, payment.Reference)
	if err != nil {
		uc.log.Errorf("Use Case: Gateway verification of %s failed: %v", payment.Reference, err)
		return nil, gatewayError(err)
	}

	var (
		recorded *domain.Payment
		failure  error
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var order *domain.Order
		if payment.OrderID != nil {
			loaded, err := uc.orderRepo.GetOrderByID(ctx, *payment.OrderID)
			if err != nil && !domain.IsNotFound(err) {
				return err
			}
			order = loaded
		}
		current, err := uc.paymentRepo.GetPaymentByReference(ctx, payment.Reference)
		if err != nil {
			return err
		}
		recorded = current
		if current.Verified {
			return nil
		}

		if failure = verificationFailure(result, current, order); failure != nil {
			if current.Status == domain.PaymentStatusFailed {
				return nil
			}
			current.Status = domain.PaymentStatusFailed
			if err := uc.paymentRepo.UpdatePayment(ctx, current); err != nil {
				return err
			}
			return uc.notifier.NotifyPaymentFailed(ctx, current)
		}

		current.Status = domain.PaymentStatusPaid
		current.Verified = true
		if err := uc.paymentRepo.UpdatePayment(ctx, current); err != nil {
			return err
		}
		switch {
		case order == nil:
			uc.log.Warnf("Use Case: Payment %s verified but its order no longer exists", current.Reference)
		case order.Status.AwaitsPayment():
			if err := uc.orderRepo.UpdateOrderStatus(ctx, order.ID, domain.StatusPaid); err != nil {
				return err
			}
		default:
			uc.log.Errorf("Use Case: Payment %s verified but order %d is '%s', order left unchanged",
				current.Reference, order.ID, order.Status)
		}
		return uc.notifier.NotifyPaymentSucceeded(ctx, current)
	})
	if err != nil {
		uc.log.Errorf("Use Case: Recording verification of %s failed: %v", payment.Reference, err)
		return nil, err
	}
	if recorded.Verified {
		uc.log.Infof("Use Case: Payment %s verified", payment.Reference)
		return recorded, nil
	}

	uc.log.Warnf("Use Case: Payment %s failed verification: %v", payment.Reference, failure)
	return nil, failure
}

// HandleWebhook re-verifies the referenced payment with the gateway rather
// than trusting the event payload.
func (uc *PaymentUseCase) HandleWebhook(ctx context.Context, event domain.WebhookEvent) error {
	if event.Event != domain.WebhookChargeSuccess {
		uc.log.Infof("Use Case: Ignoring webhook event '%s'", event.Event)
		return nil
	}
	payment, err := uc.paymentRepo.GetPaymentByReference(ctx, event.Data.Reference)
	if err != nil {
		if domain.IsNotFound(err) {
			uc.log.Warnf("Use Case: Webhook for unknown reference %s", event.Data.Reference)
			return nil
		}
		return err
	}
	if payment.Verified {
		return nil
	}
	_, err = uc.verify(ctx, payment)
	return err
}

func (uc *PaymentUseCase) ListPayments(ctx context.Context, userID int64) ([]domain.Payment, error) {
	return uc.paymentRepo.ListPaymentsByUserID(ctx, userID)
}
