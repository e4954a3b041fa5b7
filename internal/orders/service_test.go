package orders

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pintuan-backend/internal/notifications"
	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

type stubOrdersRepo struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]models.IndividualOrder
	findErr   error
	updateErr error
	// raced simulates another writer changing the row between read and write.
	raced bool
}

func newStubOrdersRepo(orders ...models.IndividualOrder) *stubOrdersRepo {
	repo := &stubOrdersRepo{orders: map[uuid.UUID]models.IndividualOrder{}}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubOrdersRepo) Create(_ context.Context, order *models.IndividualOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = *order
	return nil
}

func (s *stubOrdersRepo) FindByID(_ context.Context, id uuid.UUID) (*models.IndividualOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &order, nil
}

func (s *stubOrdersRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.IndividualOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var list []models.IndividualOrder
	for _, order := range s.orders {
		if order.UserID == userID {
			list = append(list, order)
		}
	}
	return list, nil
}

func (s *stubOrdersRepo) UpdateIfStatus(_ context.Context, id uuid.UUID, from enums.IndividualOrderStatus, updates map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return false, s.updateErr
	}
	order, ok := s.orders[id]
	if !ok || order.Status != from || s.raced {
		return false, nil
	}
	for key, value := range updates {
		switch key {
		case "status":
			order.Status = value.(enums.IndividualOrderStatus)
		case "delivery_type":
			deliveryType := value.(enums.DeliveryType)
			order.DeliveryType = &deliveryType
		case "delivery_carrier":
			order.DeliveryCarrier = optionalString(value)
		case "delivery_tracking_no":
			order.DeliveryTrackingNo = optionalString(value)
		case "shipped_at":
			at := value.(time.Time)
			order.ShippedAt = &at
		case "confirm_receipt_at":
			at := value.(time.Time)
			order.ConfirmReceiptAt = &at
		case "refund_price":
			price := value.(decimal.Decimal)
			order.RefundPrice = &price
		case "refund_reason":
			reason := value.(string)
			order.RefundReason = &reason
		case "refund_refuse_reason":
			if value == nil {
				order.RefundRefuseReason = nil
				continue
			}
			reason := value.(string)
			order.RefundRefuseReason = &reason
		}
	}
	s.orders[id] = order
	return true, nil
}

func optionalString(value any) *string {
	if value == nil {
		return nil
	}
	v := value.(string)
	return &v
}

func (s *stubOrdersRepo) get(id uuid.UUID) models.IndividualOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

type recordingNotifier struct {
	tasks []notifications.Task
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, task notifications.Task) error {
	r.tasks = append(r.tasks, task)
	return r.err
}

var fixedNow = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository, notifier notifications.Notifier) *service {
	t.Helper()
	svc, err := NewService(repo, notifier, logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard}))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return fixedNow }
	return impl
}

func paidOrder(userID uuid.UUID, status enums.IndividualOrderStatus, price string) models.IndividualOrder {
	groupID := uuid.New()
	return models.IndividualOrder{
		ID:           uuid.New(),
		GroupOrderID: &groupID,
		UserID:       userID,
		Paid:         true,
		TotalPrice:   decimal.RequireFromString(price),
		Status:       status,
	}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, code), "expected %s, got %v", code, err)
}

func TestMarkShippedExpress(t *testing.T) {
	order := paidOrder(uuid.New(), enums.IndividualOrderStatusAwaitingShipment, "19.90")
	repo := newStubOrdersRepo(order)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)

	err := svc.MarkShipped(context.Background(), order.ID, DeliveryInput{
		Type:           enums.DeliveryTypeExpress,
		Carrier:        " SF Express ",
		TrackingNumber: "SF1234567890",
	})
	require.NoError(t, err)

	stored := repo.get(order.ID)
	assert.Equal(t, enums.IndividualOrderStatusShipped, stored.Status)
	require.NotNil(t, stored.DeliveryType)
	assert.Equal(t, enums.DeliveryTypeExpress, *stored.DeliveryType)
	require.NotNil(t, stored.DeliveryCarrier)
	assert.Equal(t, "SF Express", *stored.DeliveryCarrier)
	require.NotNil(t, stored.DeliveryTrackingNo)
	assert.Equal(t, "SF1234567890", *stored.DeliveryTrackingNo)
	require.NotNil(t, stored.ShippedAt)
	assert.True(t, stored.ShippedAt.Equal(fixedNow))

	require.Len(t, notifier.tasks, 1)
	task := notifier.tasks[0]
	assert.Equal(t, enums.NotificationTypeOrderShipped, task.Kind)
	assert.Equal(t, "SF Express", task.Carrier)
	require.NoError(t, task.Validate())
}

func TestMarkShippedThenConfirmReceipt(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusAwaitingShipment, "8.00")
	repo := newStubOrdersRepo(order)
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	require.NoError(t, svc.MarkShipped(ctx, order.ID, DeliveryInput{Type: enums.DeliveryTypePickup}))
	stored := repo.get(order.ID)
	assert.Nil(t, stored.DeliveryCarrier)
	assert.Nil(t, stored.DeliveryTrackingNo)

	require.NoError(t, svc.ConfirmReceipt(ctx, userID, order.ID))
	assert.Equal(t, enums.IndividualOrderStatusAwaitingComment, repo.get(order.ID).Status)
}

func TestMarkShippedRejections(t *testing.T) {
	awaiting := paidOrder(uuid.New(), enums.IndividualOrderStatusAwaitingShipment, "5.00")
	shipped := paidOrder(uuid.New(), enums.IndividualOrderStatusShipped, "5.00")
	refunding := paidOrder(uuid.New(), enums.IndividualOrderStatusRefundApplying, "5.00")
	repo := newStubOrdersRepo(awaiting, shipped, refunding)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)
	ctx := context.Background()
	express := DeliveryInput{Type: enums.DeliveryTypeExpress, Carrier: "YTO", TrackingNumber: "YT1"}

	requireCode(t, svc.MarkShipped(ctx, awaiting.ID, DeliveryInput{Type: "drone"}), pkgerrors.CodeValidation)
	requireCode(t, svc.MarkShipped(ctx, awaiting.ID, DeliveryInput{Type: enums.DeliveryTypeExpress, Carrier: "YTO"}), pkgerrors.CodeValidation)
	requireCode(t, svc.MarkShipped(ctx, awaiting.ID, DeliveryInput{Type: enums.DeliveryTypePickup, TrackingNumber: "YT1"}), pkgerrors.CodeValidation)
	requireCode(t, svc.MarkShipped(ctx, shipped.ID, express), pkgerrors.CodeStateConflict)
	requireCode(t, svc.MarkShipped(ctx, refunding.ID, express), pkgerrors.CodeStateConflict)
	requireCode(t, svc.MarkShipped(ctx, uuid.New(), express), pkgerrors.CodeNotFound)
	requireCode(t, svc.MarkShipped(ctx, uuid.Nil, express), pkgerrors.CodeValidation)

	assert.Equal(t, enums.IndividualOrderStatusAwaitingShipment, repo.get(awaiting.ID).Status)
	assert.Empty(t, notifier.tasks)

	repo.raced = true
	requireCode(t, svc.MarkShipped(ctx, awaiting.ID, express), pkgerrors.CodeStateConflict)
	assert.Empty(t, notifier.tasks)
}

func TestConfirmReceipt(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusShipped, "19.90")
	repo := newStubOrdersRepo(order)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)

	require.NoError(t, svc.ConfirmReceipt(context.Background(), userID, order.ID))

	stored := repo.get(order.ID)
	assert.Equal(t, enums.IndividualOrderStatusAwaitingComment, stored.Status)
	require.NotNil(t, stored.ConfirmReceiptAt)
	assert.True(t, stored.ConfirmReceiptAt.Equal(fixedNow))

	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, enums.NotificationTypeReceiptConfirmed, notifier.tasks[0].Kind)
	assert.Equal(t, order.ID, notifier.tasks[0].IndividualOrderID)
}

func TestConfirmReceiptRejections(t *testing.T) {
	userID := uuid.New()
	shipped := paidOrder(userID, enums.IndividualOrderStatusShipped, "5.00")
	pending := paidOrder(userID, enums.IndividualOrderStatusAwaitingShipment, "5.00")
	repo := newStubOrdersRepo(shipped, pending)
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	requireCode(t, svc.ConfirmReceipt(ctx, uuid.New(), shipped.ID), pkgerrors.CodeForbidden)
	requireCode(t, svc.ConfirmReceipt(ctx, userID, pending.ID), pkgerrors.CodeStateConflict)
	requireCode(t, svc.ConfirmReceipt(ctx, userID, uuid.New()), pkgerrors.CodeNotFound)
	requireCode(t, svc.ConfirmReceipt(ctx, uuid.Nil, shipped.ID), pkgerrors.CodeUnauthorized)
	requireCode(t, svc.ConfirmReceipt(ctx, userID, uuid.Nil), pkgerrors.CodeValidation)

	assert.Equal(t, enums.IndividualOrderStatusShipped, repo.get(shipped.ID).Status)
}

func TestConfirmReceiptConcurrentChange(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusShipped, "5.00")
	repo := newStubOrdersRepo(order)
	repo.raced = true
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)

	requireCode(t, svc.ConfirmReceipt(context.Background(), userID, order.ID), pkgerrors.CodeStateConflict)
	assert.Empty(t, notifier.tasks)
}

func TestConfirmReceiptNotificationFailureIsBestEffort(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusShipped, "5.00")
	repo := newStubOrdersRepo(order)
	svc := newTestService(t, repo, &recordingNotifier{err: errors.New("push down")})

	require.NoError(t, svc.ConfirmReceipt(context.Background(), userID, order.ID))
	assert.Equal(t, enums.IndividualOrderStatusAwaitingComment, repo.get(order.ID).Status)
}

func TestConfirmReceiptDependencyFailure(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusShipped, "5.00")
	repo := newStubOrdersRepo(order)
	repo.updateErr = errors.New("connection reset")
	svc := newTestService(t, repo, nil)

	requireCode(t, svc.ConfirmReceipt(context.Background(), userID, order.ID), pkgerrors.CodeDependency)
}

func TestRequestRefund(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusAwaitingShipment, "30.00")
	repo := newStubOrdersRepo(order)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)

	err := svc.RequestRefund(context.Background(), RefundRequestInput{
		UserID:  userID,
		OrderID: order.ID,
		Reason:  "  damaged on arrival ",
		Amount:  decimal.RequireFromString("12.50"),
	})
	require.NoError(t, err)

	stored := repo.get(order.ID)
	assert.Equal(t, enums.IndividualOrderStatusRefundApplying, stored.Status)
	require.NotNil(t, stored.RefundPrice)
	assert.Equal(t, "12.50", stored.RefundPrice.StringFixed(2))
	require.NotNil(t, stored.RefundReason)
	assert.Equal(t, "damaged on arrival", *stored.RefundReason)

	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, enums.NotificationTypeRefundRequested, notifier.tasks[0].Kind)
	assert.True(t, notifier.tasks[0].Amount.Equal(decimal.RequireFromString("12.50")))
}

func TestRequestRefundFullAmountAllowed(t *testing.T) {
	userID := uuid.New()
	order := paidOrder(userID, enums.IndividualOrderStatusShipped, "30.00")
	repo := newStubOrdersRepo(order)
	svc := newTestService(t, repo, nil)

	require.NoError(t, svc.RequestRefund(context.Background(), RefundRequestInput{
		UserID: userID, OrderID: order.ID, Reason: "wrong size", Amount: decimal.RequireFromString("30.00"),
	}))
}

func TestRequestRefundRejections(t *testing.T) {
	userID := uuid.New()
	paid := paidOrder(userID, enums.IndividualOrderStatusAwaitingShipment, "30.00")
	unpaid := paidOrder(userID, enums.IndividualOrderStatusUnpaid, "30.00")
	unpaid.Paid = false
	refunding := paidOrder(userID, enums.IndividualOrderStatusRefundApplying, "30.00")
	refunded := paidOrder(userID, enums.IndividualOrderStatusRefundFinished, "30.00")
	repo := newStubOrdersRepo(paid, unpaid, refunding, refunded)
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	input := func(orderID uuid.UUID, amount string) RefundRequestInput {
		return RefundRequestInput{UserID: userID, OrderID: orderID, Reason: "late", Amount: decimal.RequireFromString(amount)}
	}

	requireCode(t, svc.RequestRefund(ctx, input(paid.ID, "0")), pkgerrors.CodeValidation)
	requireCode(t, svc.RequestRefund(ctx, input(paid.ID, "-1")), pkgerrors.CodeValidation)
	requireCode(t, svc.RequestRefund(ctx, input(paid.ID, "30.01")), pkgerrors.CodeValidation)
	requireCode(t, svc.RequestRefund(ctx, input(unpaid.ID, "1")), pkgerrors.CodeStateConflict)
	requireCode(t, svc.RequestRefund(ctx, input(refunding.ID, "1")), pkgerrors.CodeStateConflict)
	requireCode(t, svc.RequestRefund(ctx, input(refunded.ID, "1")), pkgerrors.CodeStateConflict)

	other := input(paid.ID, "1")
	other.UserID = uuid.New()
	requireCode(t, svc.RequestRefund(ctx, other), pkgerrors.CodeForbidden)

	blank := input(paid.ID, "1")
	blank.Reason = "   "
	requireCode(t, svc.RequestRefund(ctx, blank), pkgerrors.CodeValidation)

	assert.Equal(t, enums.IndividualOrderStatusAwaitingShipment, repo.get(paid.ID).Status)
}

func TestApproveRefund(t *testing.T) {
	order := paidOrder(uuid.New(), enums.IndividualOrderStatusRefundApplying, "30.00")
	price := decimal.RequireFromString("10.00")
	order.RefundPrice = &price
	repo := newStubOrdersRepo(order)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)

	require.NoError(t, svc.ApproveRefund(context.Background(), order.ID))
	assert.Equal(t, enums.IndividualOrderStatusRefundFinished, repo.get(order.ID).Status)
	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, enums.NotificationTypeRefundApproved, notifier.tasks[0].Kind)
	assert.True(t, notifier.tasks[0].Amount.Equal(price))

	requireCode(t, svc.ApproveRefund(context.Background(), order.ID), pkgerrors.CodeStateConflict)
}

func TestRejectRefund(t *testing.T) {
	order := paidOrder(uuid.New(), enums.IndividualOrderStatusRefundApplying, "30.00")
	repo := newStubOrdersRepo(order)
	notifier := &recordingNotifier{}
	svc := newTestService(t, repo, notifier)
	ctx := context.Background()

	requireCode(t, svc.RejectRefund(ctx, order.ID, ""), pkgerrors.CodeValidation)
	require.NoError(t, svc.RejectRefund(ctx, order.ID, "item already shipped"))

	stored := repo.get(order.ID)
	assert.Equal(t, enums.IndividualOrderStatusAwaitingShipment, stored.Status)
	require.NotNil(t, stored.RefundRefuseReason)
	assert.Equal(t, "item already shipped", *stored.RefundRefuseReason)
	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, "item already shipped", notifier.tasks[0].Reason)

	requireCode(t, svc.RejectRefund(ctx, order.ID, "again"), pkgerrors.CodeStateConflict)
	requireCode(t, svc.RejectRefund(ctx, uuid.New(), "missing"), pkgerrors.CodeNotFound)
}

func TestListOrders(t *testing.T) {
	userID := uuid.New()
	shipped := paidOrder(userID, enums.IndividualOrderStatusShipped, "1.00")
	commented := paidOrder(userID, enums.IndividualOrderStatusCommented, "1.00")
	repo := newStubOrdersRepo(shipped, commented, paidOrder(uuid.New(), enums.IndividualOrderStatusShipped, "1.00"))
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	list, err := svc.ListOrders(ctx, userID, OrderTypeAwaitingReceipt)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, shipped.ID, list[0].ID)

	all, err := svc.ListOrders(ctx, userID, OrderTypeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.ListOrders(ctx, userID, OrderType(9))
	requireCode(t, err, pkgerrors.CodeValidation)

	repo.findErr = errors.New("timeout")
	_, err = svc.ListOrders(ctx, userID, OrderTypeAll)
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, logger.New(logger.Options{Output: io.Discard}))
	require.Error(t, err)
	_, err = NewService(newStubOrdersRepo(), nil, nil)
	require.Error(t, err)
}
