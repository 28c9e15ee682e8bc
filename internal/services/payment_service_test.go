package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"dynamo/internal/gateways"
	"dynamo/internal/models/db_models"
	"dynamo/internal/models/request_models"
	"dynamo/pkg/utils"
)

// In-memory fakes mirroring the repository contracts, including the
// storage-level guards (conditional order update, unique receipt insert).

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]*db_models.Order
	insertErr error
	updateErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*db_models.Order{}}
}

func (f *fakeOrderRepo) Insert(ctx context.Context, order *db_models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *order
	f.orders[order.ProviderOrderID] = &cp
	return nil
}

func (f *fakeOrderRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[providerOrderID]
	if !ok {
		return nil, nil
	}
	cp := *order
	return &cp, nil
}

func (f *fakeOrderRepo) MarkCaptured(ctx context.Context, providerOrderID string, accountID *uuid.UUID, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return false, f.updateErr
	}
	order, ok := f.orders[providerOrderID]
	if !ok || order.Status != db_models.OrderStatusPending {
		return false, nil
	}
	order.Status = db_models.OrderStatusPaid
	order.ProviderPaymentID = paymentID
	if accountID != nil {
		id := *accountID
		order.AccountID = &id
	}
	return true, nil
}

func (f *fakeOrderRepo) MarkFailed(ctx context.Context, providerOrderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[providerOrderID]
	if !ok || order.Status != db_models.OrderStatusPending {
		return false, nil
	}
	order.Status = db_models.OrderStatusFailed
	return true, nil
}

func (f *fakeOrderRepo) BackfillOwner(ctx context.Context, providerOrderID string, accountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[providerOrderID]
	if ok && order.AccountID == nil {
		id := accountID
		order.AccountID = &id
	}
	return nil
}

func (f *fakeOrderRepo) get(providerOrderID string) *db_models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	order := f.orders[providerOrderID]
	if order == nil {
		return nil
	}
	cp := *order
	return &cp
}

type fakeTxnRepo struct {
	mu        sync.Mutex
	txns      map[string]*db_models.Transaction
	insertErr error
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{txns: map[string]*db_models.Transaction{}}
}

func (f *fakeTxnRepo) CreateIfAbsent(ctx context.Context, txn *db_models.Transaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if _, exists := f.txns[txn.ProviderOrderID]; exists {
		return false, nil
	}
	cp := *txn
	f.txns[txn.ProviderOrderID] = &cp
	return true, nil
}

func (f *fakeTxnRepo) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	txn, ok := f.txns[providerOrderID]
	if !ok {
		return nil, nil
	}
	cp := *txn
	return &cp, nil
}

func (f *fakeTxnRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Transaction
	for _, txn := range f.txns {
		if txn.AccountID == accountID {
			out = append(out, *txn)
		}
	}
	return out, nil
}

func (f *fakeTxnRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txns)
}

type fakePlanRepo struct {
	plans map[string]*db_models.Plan
}

func (f *fakePlanRepo) GetPlanInfoById(ctx context.Context, planID string) (*db_models.Plan, error) {
	if plan, ok := f.plans[planID]; ok {
		return plan, nil
	}
	return nil, nil
}

func (f *fakePlanRepo) GetActivePlanById(ctx context.Context, planID string) (*db_models.Plan, error) {
	if plan, ok := f.plans[planID]; ok && plan.IsActive {
		return plan, nil
	}
	return nil, nil
}

func (f *fakePlanRepo) GetAllActivePlans(ctx context.Context) ([]db_models.Plan, error) {
	var out []db_models.Plan
	for _, plan := range f.plans {
		if plan.IsActive {
			out = append(out, *plan)
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu           sync.Mutex
	createCalls  int
	captureCalls int
	orderID      string
	paymentID    string
	completed    bool
	captureErr   error
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, description, returnURL, cancelURL string) (*gateways.GatewayOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	return &gateways.GatewayOrder{
		ProviderOrderID: f.orderID,
		ApprovalURL:     "https://provider.example/approve/" + f.orderID,
	}, nil
}

func (f *fakeGateway) CaptureOrder(ctx context.Context, providerOrderID string) (*gateways.GatewayCapture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureCalls++
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	status := "COMPLETED"
	if !f.completed {
		status = "DECLINED"
	}
	return &gateways.GatewayCapture{
		Completed: f.completed,
		PaymentID: f.paymentID,
		RawStatus: status,
	}, nil
}

func (f *fakeGateway) captures() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.captureCalls
}

type fakeResolver struct {
	sessions map[string]uuid.UUID
}

func (f *fakeResolver) Resolve(token string) (uuid.UUID, bool) {
	id, ok := f.sessions[token]
	return id, ok
}

type fakePublisher struct {
	mu          sync.Mutex
	events      []PaymentCompletedEvent
	resetEvents []PasswordResetEvent
	done        chan struct{}
	resetDone   chan struct{}
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{
		done:      make(chan struct{}, 16),
		resetDone: make(chan struct{}, 16),
	}
}

func (f *fakePublisher) PaymentCompleted(ctx context.Context, event PaymentCompletedEvent) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakePublisher) PasswordReset(ctx context.Context, event PasswordResetEvent) error {
	f.mu.Lock()
	f.resetEvents = append(f.resetEvents, event)
	f.mu.Unlock()
	f.resetDone <- struct{}{}
	return nil
}

type paymentFixture struct {
	svc      PaymentService
	orders   *fakeOrderRepo
	txns     *fakeTxnRepo
	plans    *fakePlanRepo
	gateway  *fakeGateway
	sessions *fakeResolver
	pub      *fakePublisher
	planID   uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	planID := uuid.New()
	plans := &fakePlanRepo{plans: map[string]*db_models.Plan{
		planID.String(): {
			BaseModel:  db_models.BaseModel{ID: planID},
			Code:       "unlimited",
			Name:       "Unlimited",
			PriceMinor: 2500,
			Currency:   "USD",
			IsActive:   true,
		},
	}}

	orders := newFakeOrderRepo()
	txns := newFakeTxnRepo()
	gateway := &fakeGateway{orderID: "X", paymentID: "PAY-1", completed: true}
	resolver := &fakeResolver{sessions: map[string]uuid.UUID{}}
	pub := newFakePublisher()

	svc := NewPaymentService(orders, txns, plans, gateway, resolver, pub, zaptest.NewLogger(t))

	return &paymentFixture{
		svc:      svc,
		orders:   orders,
		txns:     txns,
		plans:    plans,
		gateway:  gateway,
		sessions: resolver,
		pub:      pub,
		planID:   planID,
	}
}

func (fx *paymentFixture) resolver() *fakeResolver {
	return fx.sessions
}

func (fx *paymentFixture) createRequest() request_models.CreateOrderRequest {
	return request_models.CreateOrderRequest{
		PlanID:    fx.planID.String(),
		Amount:    25.00,
		Currency:  "USD",
		ReturnURL: "https://dynamo.example/return",
		CancelURL: "https://dynamo.example/cancel",
	}
}

func TestCreateOrderPersistsPendingOrder(t *testing.T) {
	fx := newPaymentFixture(t)

	resp, err := fx.svc.CreateOrder(context.Background(), nil, fx.createRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if resp.OrderID != "X" {
		t.Errorf("order id = %q, want X", resp.OrderID)
	}
	if !strings.Contains(resp.ApprovalURL, "approve") {
		t.Errorf("approval url = %q", resp.ApprovalURL)
	}

	order := fx.orders.get("X")
	if order == nil {
		t.Fatal("pending order was not persisted")
	}
	if order.Status != db_models.OrderStatusPending {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if order.AmountMinor != 2500 || order.Currency != "USD" {
		t.Errorf("amount = %d %s, want 2500 USD", order.AmountMinor, order.Currency)
	}
	if order.AccountID != nil {
		t.Errorf("guest order should have no owner, got %v", order.AccountID)
	}
}

func TestCreateOrderUnknownPlan(t *testing.T) {
	fx := newPaymentFixture(t)

	req := fx.createRequest()
	req.PlanID = uuid.NewString()

	_, err := fx.svc.CreateOrder(context.Background(), nil, req)
	if !errors.Is(err, utils.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
	if fx.gateway.createCalls != 0 {
		t.Errorf("gateway called %d times for unknown plan", fx.gateway.createCalls)
	}
}

func TestCreateOrderRejectsTamperedAmount(t *testing.T) {
	fx := newPaymentFixture(t)

	req := fx.createRequest()
	req.Amount = 0.01

	_, err := fx.svc.CreateOrder(context.Background(), nil, req)
	if !errors.Is(err, utils.ErrAmountMismatch) {
		t.Fatalf("err = %v, want ErrAmountMismatch", err)
	}
	if fx.gateway.createCalls != 0 {
		t.Error("provider order must not be created for a tampered amount")
	}
}

func TestCreateOrderPersistFailureIsReconciliationGap(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.orders.insertErr = errors.New("connection reset")

	_, err := fx.svc.CreateOrder(context.Background(), nil, fx.createRequest())
	if !errors.Is(err, utils.ErrReconciliation) {
		t.Fatalf("err = %v, want ErrReconciliation", err)
	}
	if !strings.Contains(err.Error(), "X") {
		t.Errorf("error should carry the orphaned provider order id: %v", err)
	}
}

func TestCaptureEndToEnd(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	result, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !result.Success || result.Status != "paid" || result.PaymentID != "PAY-1" {
		t.Fatalf("result = %+v", result)
	}
	if result.AlreadyReconciled {
		t.Error("first capture should report that it performed the reconciliation")
	}

	order := fx.orders.get("X")
	if order.Status != db_models.OrderStatusPaid || order.ProviderPaymentID != "PAY-1" {
		t.Errorf("order = %+v", order)
	}

	txn, _ := fx.txns.FindByProviderOrderID(context.Background(), "X")
	if txn == nil {
		t.Fatal("transaction was not created")
	}
	if txn.AmountMinor != 2500 || txn.ProviderPaymentID != "PAY-1" || txn.AccountID != user {
		t.Errorf("txn = %+v", txn)
	}

	// Replay: identical result, no second transaction, no provider call.
	again, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatalf("repeat Capture: %v", err)
	}
	if !again.Success || again.PaymentID != "PAY-1" {
		t.Fatalf("repeat result = %+v", again)
	}
	if !again.AlreadyReconciled {
		t.Error("repeat capture should report already reconciled")
	}
	if fx.txns.count() != 1 {
		t.Errorf("transaction count = %d, want 1", fx.txns.count())
	}
	if fx.gateway.captures() != 1 {
		t.Errorf("provider capture calls = %d, want 1", fx.gateway.captures())
	}
}

func TestCaptureIdempotentUnderRepeats(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		result, err := fx.svc.Capture(context.Background(), "X", "tok")
		if err != nil {
			t.Fatalf("capture %d: %v", i, err)
		}
		if result.PaymentID != "PAY-1" {
			t.Fatalf("capture %d payment id = %q", i, result.PaymentID)
		}
	}

	if fx.txns.count() != 1 {
		t.Errorf("transaction count = %d, want 1", fx.txns.count())
	}
}

func TestConcurrentCapturesCreateExactlyOneTransaction(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	results := make([]*struct {
		paymentID string
		err       error
	}, 2)
	for i := 0; i < 2; i++ {
		results[i] = &struct {
			paymentID string
			err       error
		}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := fx.svc.Capture(context.Background(), "X", "tok")
			results[i].err = err
			if r != nil {
				results[i].paymentID = r.PaymentID
			}
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r.err != nil {
			t.Fatalf("capture %d failed: %v", i, r.err)
		}
		if r.paymentID != "PAY-1" {
			t.Errorf("capture %d payment id = %q, want PAY-1", i, r.paymentID)
		}
	}
	if fx.txns.count() != 1 {
		t.Errorf("transaction count = %d, want exactly 1", fx.txns.count())
	}
}

func TestCaptureUnknownOrderHasNoSideEffects(t *testing.T) {
	fx := newPaymentFixture(t)

	_, err := fx.svc.Capture(context.Background(), "never-created", "")
	if !errors.Is(err, utils.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
	if fx.gateway.captures() != 0 {
		t.Error("provider must not be contacted for an unknown order")
	}
	if fx.txns.count() != 0 {
		t.Error("no transaction may be created for an unknown order")
	}
}

func TestCaptureBackfillsGuestOwner(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	// Guest checkout: no identity at creation time.
	if _, err := fx.svc.CreateOrder(context.Background(), nil, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	result, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}

	order := fx.orders.get("X")
	if order.AccountID == nil || *order.AccountID != user {
		t.Errorf("order owner = %v, want %s", order.AccountID, user)
	}
	txn, _ := fx.txns.FindByProviderOrderID(context.Background(), "X")
	if txn == nil || txn.AccountID != user {
		t.Errorf("txn = %+v, want owner %s", txn, user)
	}
}

func TestCaptureRejectsForeignOwner(t *testing.T) {
	fx := newPaymentFixture(t)
	owner := uuid.New()
	intruder := uuid.New()
	fx.resolver().sessions["intruder"] = intruder

	if _, err := fx.svc.CreateOrder(context.Background(), &owner, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	_, err := fx.svc.Capture(context.Background(), "X", "intruder")
	if !errors.Is(err, utils.ErrOwnershipMismatch) {
		t.Fatalf("err = %v, want ErrOwnershipMismatch", err)
	}
	if fx.gateway.captures() != 0 {
		t.Error("provider must not be contacted on an ownership mismatch")
	}
	if fx.txns.count() != 0 {
		t.Error("no transaction may be created on an ownership mismatch")
	}
	if order := fx.orders.get("X"); order.Status != db_models.OrderStatusPending {
		t.Errorf("order status = %q, want pending (unchanged)", order.Status)
	}
}

func TestCaptureProviderDecline(t *testing.T) {
	fx := newPaymentFixture(t)
	fx.gateway.completed = false
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	result, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if result.Success || result.Status != "failed" {
		t.Fatalf("result = %+v", result)
	}
	if order := fx.orders.get("X"); order.Status != db_models.OrderStatusFailed {
		t.Errorf("order status = %q, want failed", order.Status)
	}
	if fx.txns.count() != 0 {
		t.Error("declined capture must not create a transaction")
	}

	// Failed is terminal: a replay reports the recorded outcome without
	// another provider call.
	again, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatal(err)
	}
	if again.Success || !again.AlreadyReconciled {
		t.Errorf("replay = %+v", again)
	}
	if fx.gateway.captures() != 1 {
		t.Errorf("provider capture calls = %d, want 1", fx.gateway.captures())
	}
}

func TestInvalidSessionTokenIsGuestCapture(t *testing.T) {
	fx := newPaymentFixture(t)
	owner := uuid.New()

	if _, err := fx.svc.CreateOrder(context.Background(), &owner, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	// Session did not survive the redirect; the recorded owner still gets
	// the transaction.
	result, err := fx.svc.Capture(context.Background(), "X", "garbage-token")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	txn, _ := fx.txns.FindByProviderOrderID(context.Background(), "X")
	if txn == nil || txn.AccountID != owner {
		t.Errorf("txn = %+v, want owner %s", txn, owner)
	}
}

func TestRecoveryAttributesGuestOrderAfterSettlement(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	// Order created and captured with no identity at all: it settles but
	// the receipt is deferred because there is no owner to book it under.
	if _, err := fx.svc.CreateOrder(context.Background(), nil, fx.createRequest()); err != nil {
		t.Fatal(err)
	}
	result, err := fx.svc.Capture(context.Background(), "X", "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success {
		t.Fatalf("result = %+v", result)
	}
	if fx.txns.count() != 0 {
		t.Fatal("ownerless capture must not invent a transaction owner")
	}

	// The user later logs in and replays the order id through recovery:
	// the owner is backfilled and exactly one receipt appears.
	recovered, err := fx.svc.Capture(context.Background(), "X", "tok")
	if err != nil {
		t.Fatalf("recovery capture: %v", err)
	}
	if !recovered.Success || !recovered.AlreadyReconciled || recovered.PaymentID != "PAY-1" {
		t.Fatalf("recovery result = %+v", recovered)
	}
	if fx.gateway.captures() != 1 {
		t.Errorf("provider capture calls = %d, want 1", fx.gateway.captures())
	}

	order := fx.orders.get("X")
	if order.AccountID == nil || *order.AccountID != user {
		t.Errorf("order owner = %v, want %s", order.AccountID, user)
	}
	txn, _ := fx.txns.FindByProviderOrderID(context.Background(), "X")
	if txn == nil || txn.AccountID != user {
		t.Errorf("txn = %+v, want owner %s", txn, user)
	}
}

func TestCaptureReconciliationFailureSurfaces(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}
	fx.orders.updateErr = errors.New("disk full")

	_, err := fx.svc.Capture(context.Background(), "X", "tok")
	if !errors.Is(err, utils.ErrReconciliation) {
		t.Fatalf("err = %v, want ErrReconciliation", err)
	}
	if !strings.Contains(err.Error(), "PAY-1") {
		t.Errorf("reconciliation error should carry the payment id: %v", err)
	}
}

func TestCaptureNotifiesOnceOnCompletion(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.svc.Capture(context.Background(), "X", "tok"); err != nil {
		t.Fatal(err)
	}

	<-fx.pub.done
	if _, err := fx.svc.Capture(context.Background(), "X", "tok"); err != nil {
		t.Fatal(err)
	}

	fx.pub.mu.Lock()
	defer fx.pub.mu.Unlock()
	if len(fx.pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(fx.pub.events))
	}
	event := fx.pub.events[0]
	if event.ProviderOrderID != "X" || event.ProviderPaymentID != "PAY-1" || event.AccountID != user {
		t.Errorf("event = %+v", event)
	}
}

func TestGetOrderStatus(t *testing.T) {
	fx := newPaymentFixture(t)
	user := uuid.New()
	fx.resolver().sessions["tok"] = user

	if _, err := fx.svc.CreateOrder(context.Background(), &user, fx.createRequest()); err != nil {
		t.Fatal(err)
	}

	status, err := fx.svc.GetOrderStatus(context.Background(), "X")
	if err != nil {
		t.Fatal(err)
	}
	if status.Status != "pending" || status.Success || status.PaymentID != "" {
		t.Errorf("pending status = %+v", status)
	}

	if _, err := fx.svc.Capture(context.Background(), "X", "tok"); err != nil {
		t.Fatal(err)
	}

	status, err = fx.svc.GetOrderStatus(context.Background(), "X")
	if err != nil {
		t.Fatal(err)
	}
	if !status.Success || status.PaymentID != "PAY-1" {
		t.Errorf("paid status = %+v", status)
	}

	if _, err := fx.svc.GetOrderStatus(context.Background(), "nope"); !errors.Is(err, utils.ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}
