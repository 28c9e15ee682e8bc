package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dynamo/internal/gateways"
	"dynamo/internal/models/db_models"
	"dynamo/internal/models/request_models"
	"dynamo/internal/models/response_models"
	"dynamo/internal/repositories"
	"dynamo/pkg/middleware"
	"dynamo/pkg/utils"
)

type PaymentService interface {
	// CreateOrder produces a provider order plus a local pending ledger
	// entry and returns the approval URL for the redirect. accountID is
	// nil for guest checkouts.
	CreateOrder(ctx context.Context, accountID *uuid.UUID, req request_models.CreateOrderRequest) (*response_models.CreateOrderResponse, error)
	// Capture finalizes an approved provider order and reconciles the
	// ledger. Safe to call any number of times for the same order; the
	// manual recovery endpoint is just another caller.
	Capture(ctx context.Context, providerOrderID, sessionToken string) (*response_models.CaptureResult, error)
	GetOrderStatus(ctx context.Context, providerOrderID string) (*response_models.OrderStatusResponse, error)
}

type paymentService struct {
	orders   repositories.OrderRepository
	txns     repositories.TransactionRepository
	plans    repositories.IPlanRepository
	gateway  gateways.PaymentGateway
	sessions SessionResolver
	notifier NotificationPublisher
	logger   *zap.Logger
}

func NewPaymentService(
	orders repositories.OrderRepository,
	txns repositories.TransactionRepository,
	plans repositories.IPlanRepository,
	gateway gateways.PaymentGateway,
	sessions SessionResolver,
	notifier NotificationPublisher,
	logger *zap.Logger,
) PaymentService {
	return &paymentService{
		orders:   orders,
		txns:     txns,
		plans:    plans,
		gateway:  gateway,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
	}
}

func (p *paymentService) CreateOrder(ctx context.Context, accountID *uuid.UUID, req request_models.CreateOrderRequest) (*response_models.CreateOrderResponse, error) {
	plan, err := p.plans.GetActivePlanById(ctx, req.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if plan == nil {
		return nil, utils.ErrPlanNotFound
	}

	// The client-supplied amount is display-only. The charge is always the
	// stored plan price; a disagreement means a stale page or tampering.
	amountMinor := int64(math.Round(req.Amount * 100))
	if amountMinor != plan.PriceMinor || !strings.EqualFold(req.Currency, plan.Currency) {
		return nil, utils.ErrAmountMismatch
	}

	description := fmt.Sprintf("Dynamo Wireless plan %s", plan.Code)
	gwOrder, err := p.gateway.CreateOrder(ctx, plan.PriceMinor, plan.Currency, description, req.ReturnURL, req.CancelURL)
	if err != nil {
		return nil, err
	}

	order := &db_models.Order{
		ProviderOrderID: gwOrder.ProviderOrderID,
		AccountID:       accountID,
		PlanID:          plan.ID,
		AmountMinor:     plan.PriceMinor,
		Currency:        plan.Currency,
		Status:          db_models.OrderStatusPending,
		CustomerEmail:   req.CustomerEmail,
	}
	if err := p.orders.Insert(ctx, order); err != nil {
		// The provider order now exists with no local row. Log enough to
		// reconcile it by hand; a silent drop would strand the payment.
		p.logger.Error("provider order created but local persist failed",
			zap.String("provider_order_id", gwOrder.ProviderOrderID),
			zap.String("plan_code", plan.Code),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: provider order %s not recorded locally", utils.ErrReconciliation, gwOrder.ProviderOrderID)
	}

	return &response_models.CreateOrderResponse{
		OrderID:     gwOrder.ProviderOrderID,
		ApprovalURL: gwOrder.ApprovalURL,
	}, nil
}

func (p *paymentService) Capture(ctx context.Context, providerOrderID, sessionToken string) (*response_models.CaptureResult, error) {
	var identity *uuid.UUID
	if id, ok := p.sessions.Resolve(sessionToken); ok {
		identity = &id
	}

	order, err := p.orders.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}

	// An authenticated caller that is not the recorded owner gets nothing,
	// settled or not. The error is the same either way so the caller cannot
	// probe which field mismatched.
	if identity != nil && order.AccountID != nil && *order.AccountID != *identity {
		return nil, utils.ErrOwnershipMismatch
	}

	// Idempotency short-circuit: a settled order is reported as-is without
	// another provider call. completeLedger repairs any half-finished
	// reconciliation (missing owner or receipt) left by an earlier fault.
	if order.Status == db_models.OrderStatusPaid && order.ProviderPaymentID != "" {
		if err := p.completeLedger(ctx, order, identity, order.ProviderPaymentID); err != nil {
			return nil, err
		}
		return &response_models.CaptureResult{
			Success:           true,
			Status:            string(db_models.OrderStatusPaid),
			PaymentID:         order.ProviderPaymentID,
			AlreadyReconciled: true,
		}, nil
	}
	if order.Status == db_models.OrderStatusFailed {
		return &response_models.CaptureResult{
			Success:           false,
			Status:            string(db_models.OrderStatusFailed),
			AlreadyReconciled: true,
		}, nil
	}

	capture, err := p.gateway.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		return nil, err
	}

	if !capture.Completed {
		if _, err := p.orders.MarkFailed(ctx, providerOrderID); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
		}
		p.logger.Warn("provider declined capture",
			zap.String("provider_order_id", providerOrderID),
			zap.String("provider_status", capture.RawStatus),
		)
		middleware.RecordPaymentProcessed(string(db_models.OrderStatusFailed))
		return &response_models.CaptureResult{
			Success: false,
			Status:  string(db_models.OrderStatusFailed),
		}, nil
	}

	// Money has moved. Everything below must either land in the ledger or
	// surface as a reconciliation fault that the recovery endpoint can
	// replay later.
	owner := order.AccountID
	if owner == nil {
		owner = identity // guest checkout converging on a login
	}

	flipped, err := p.orders.MarkCaptured(ctx, providerOrderID, owner, capture.PaymentID)
	if err != nil {
		p.logger.Error("captured at provider but order update failed",
			zap.String("provider_order_id", providerOrderID),
			zap.String("provider_payment_id", capture.PaymentID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: order %s payment %s", utils.ErrReconciliation, providerOrderID, capture.PaymentID)
	}

	if owner != nil {
		created, err := p.txns.CreateIfAbsent(ctx, &db_models.Transaction{
			AccountID:         *owner,
			PlanID:            order.PlanID,
			AmountMinor:       order.AmountMinor,
			Currency:          order.Currency,
			ProviderOrderID:   providerOrderID,
			ProviderPaymentID: capture.PaymentID,
			Status:            db_models.TxnStatusCompleted,
			PaymentMethod:     "paypal",
		})
		if err != nil {
			p.logger.Error("captured at provider but receipt insert failed",
				zap.String("provider_order_id", providerOrderID),
				zap.String("provider_payment_id", capture.PaymentID),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: order %s payment %s", utils.ErrReconciliation, providerOrderID, capture.PaymentID)
		}
		if created {
			p.notifyCompleted(order, *owner, capture.PaymentID)
		}
	} else {
		p.logger.Info("guest order captured without identity, receipt deferred until attribution",
			zap.String("provider_order_id", providerOrderID),
		)
	}

	middleware.RecordPaymentProcessed(string(db_models.OrderStatusPaid))
	return &response_models.CaptureResult{
		Success:           true,
		Status:            string(db_models.OrderStatusPaid),
		PaymentID:         capture.PaymentID,
		AlreadyReconciled: !flipped,
	}, nil
}

// completeLedger finishes reconciliation for an order that is already paid:
// backfills a missing owner from the current identity and inserts the receipt
// if an earlier call crashed between the order update and the insert. All
// operations are no-ops on a fully settled order.
func (p *paymentService) completeLedger(ctx context.Context, order *db_models.Order, identity *uuid.UUID, paymentID string) error {
	owner := order.AccountID
	if owner == nil {
		if identity == nil {
			return nil // still unattributable, nothing more to do
		}
		owner = identity
		if err := p.orders.BackfillOwner(ctx, order.ProviderOrderID, *identity); err != nil {
			return fmt.Errorf("%w: order %s owner backfill", utils.ErrReconciliation, order.ProviderOrderID)
		}
	}

	created, err := p.txns.CreateIfAbsent(ctx, &db_models.Transaction{
		AccountID:         *owner,
		PlanID:            order.PlanID,
		AmountMinor:       order.AmountMinor,
		Currency:          order.Currency,
		ProviderOrderID:   order.ProviderOrderID,
		ProviderPaymentID: paymentID,
		Status:            db_models.TxnStatusCompleted,
		PaymentMethod:     "paypal",
	})
	if err != nil {
		p.logger.Error("receipt insert failed during ledger completion",
			zap.String("provider_order_id", order.ProviderOrderID),
			zap.String("provider_payment_id", paymentID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: order %s payment %s", utils.ErrReconciliation, order.ProviderOrderID, paymentID)
	}
	if created {
		p.notifyCompleted(order, *owner, paymentID)
	}

	return nil
}

// notifyCompleted hands the receipt to the notification collaborator in the
// background. The ledger is already committed; a publish failure is only
// logged.
func (p *paymentService) notifyCompleted(order *db_models.Order, accountID uuid.UUID, paymentID string) {
	event := PaymentCompletedEvent{
		ProviderOrderID:   order.ProviderOrderID,
		ProviderPaymentID: paymentID,
		AccountID:         accountID,
		PlanID:            order.PlanID,
		AmountMinor:       order.AmountMinor,
		Currency:          order.Currency,
		OccurredAt:        time.Now().Unix(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.notifier.PaymentCompleted(ctx, event); err != nil {
			p.logger.Warn("payment notification failed",
				zap.String("provider_order_id", event.ProviderOrderID),
				zap.Error(err),
			)
		}
	}()
}

func (p *paymentService) GetOrderStatus(ctx context.Context, providerOrderID string) (*response_models.OrderStatusResponse, error) {
	order, err := p.orders.FindByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrDatabaseError, err)
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}

	resp := &response_models.OrderStatusResponse{
		OrderID: order.ProviderOrderID,
		Status:  string(order.Status),
		Success: order.Status == db_models.OrderStatusPaid,
	}
	if order.Status == db_models.OrderStatusPaid {
		resp.PaymentID = order.ProviderPaymentID
	}

	return resp, nil
}
