package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pintuan-backend/internal/notifications"
	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

const (
	maxReasonLength   = 500
	maxDeliveryLength = 100
)

// Service defines the individual order lifecycle after payment.
type Service interface {
	ListOrders(ctx context.Context, userID uuid.UUID, orderType OrderType) ([]models.IndividualOrder, error)
	MarkShipped(ctx context.Context, orderID uuid.UUID, delivery DeliveryInput) error
	ConfirmReceipt(ctx context.Context, userID, orderID uuid.UUID) error
	RequestRefund(ctx context.Context, input RefundRequestInput) error
	ApproveRefund(ctx context.Context, orderID uuid.UUID) error
	RejectRefund(ctx context.Context, orderID uuid.UUID, reason string) error
}

// RefundRequestInput carries a shopper's refund request.
type RefundRequestInput struct {
	UserID  uuid.UUID
	OrderID uuid.UUID
	Reason  string
	Amount  decimal.Decimal
}

// DeliveryInput describes how an order left the warehouse. Carrier and
// tracking number are required for express shipments and rejected otherwise.
type DeliveryInput struct {
	Type           enums.DeliveryType
	Carrier        string
	TrackingNumber string
}

type service struct {
	repo     Repository
	notifier notifications.Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the order lifecycle service. Notifications are
// best-effort; a nil notifier disables them.
func NewService(repo Repository, notifier notifications.Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		notifier: notifier,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, orderType OrderType) ([]models.IndividualOrder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !orderType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order type").
			WithDetails(map[string]string{"orderType": fmt.Sprintf("must be between %d and %d", OrderTypeAll, OrderTypeRefundFinished)})
	}
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return FilterByOrderType(list, orderType), nil
}

func (s *service) MarkShipped(ctx context.Context, orderID uuid.UUID, delivery DeliveryInput) error {
	delivery, err := normalizeDelivery(delivery)
	if err != nil {
		return err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Paid || order.Status != enums.IndividualOrderStatusAwaitingShipment {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting shipment")
	}

	updates := map[string]any{
		"delivery_type":        delivery.Type,
		"delivery_carrier":     nil,
		"delivery_tracking_no": nil,
		"shipped_at":           s.now().UTC(),
	}
	if delivery.Type.RequiresTracking() {
		updates["delivery_carrier"] = delivery.Carrier
		updates["delivery_tracking_no"] = delivery.TrackingNumber
	}
	if err := s.transition(ctx, order, enums.IndividualOrderStatusShipped, updates); err != nil {
		return err
	}
	s.notify(ctx, notifications.Task{
		Kind:              enums.NotificationTypeOrderShipped,
		UserID:            order.UserID,
		GroupOrderID:      order.GroupOrderID,
		IndividualOrderID: order.ID,
		Amount:            order.TotalPrice,
		DeliveryType:      delivery.Type,
		Carrier:           delivery.Carrier,
		TrackingNumber:    delivery.TrackingNumber,
	})
	return nil
}

func (s *service) ConfirmReceipt(ctx context.Context, userID, orderID uuid.UUID) error {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.IndividualOrderStatusShipped {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been shipped")
	}

	confirmedAt := s.now().UTC()
	err = s.transition(ctx, order, enums.IndividualOrderStatusAwaitingComment, map[string]any{
		"confirm_receipt_at": confirmedAt,
	})
	if err != nil {
		return err
	}
	s.notify(ctx, notifications.Task{
		Kind:              enums.NotificationTypeReceiptConfirmed,
		UserID:            order.UserID,
		GroupOrderID:      order.GroupOrderID,
		IndividualOrderID: order.ID,
		Amount:            order.TotalPrice,
	})
	return nil
}

func (s *service) RequestRefund(ctx context.Context, input RefundRequestInput) error {
	reason := strings.TrimSpace(input.Reason)
	if err := validateReason(reason); err != nil {
		return err
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	order, err := s.loadOwned(ctx, input.UserID, input.OrderID)
	if err != nil {
		return err
	}
	if !order.Paid || order.Status == enums.IndividualOrderStatusUnpaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been paid")
	}
	if order.Status.InRefund() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "refund already requested")
	}
	if input.Amount.GreaterThan(order.TotalPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "refund amount exceeds order total").
			WithDetails(map[string]string{"amount": "must not exceed " + order.TotalPrice.StringFixed(2)})
	}

	amount := input.Amount.Round(2)
	err = s.transition(ctx, order, enums.IndividualOrderStatusRefundApplying, map[string]any{
		"refund_price":         amount,
		"refund_reason":        reason,
		"refund_refuse_reason": nil,
	})
	if err != nil {
		return err
	}
	s.notify(ctx, notifications.Task{
		Kind:              enums.NotificationTypeRefundRequested,
		UserID:            order.UserID,
		GroupOrderID:      order.GroupOrderID,
		IndividualOrderID: order.ID,
		Amount:            amount,
		Reason:            reason,
	})
	return nil
}

func (s *service) ApproveRefund(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.loadRefunding(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.transition(ctx, order, enums.IndividualOrderStatusRefundFinished, nil); err != nil {
		return err
	}
	amount := order.TotalPrice
	if order.RefundPrice != nil {
		amount = *order.RefundPrice
	}
	s.notify(ctx, notifications.Task{
		Kind:              enums.NotificationTypeRefundApproved,
		UserID:            order.UserID,
		GroupOrderID:      order.GroupOrderID,
		IndividualOrderID: order.ID,
		Amount:            amount,
	})
	return nil
}

func (s *service) RejectRefund(ctx context.Context, orderID uuid.UUID, reason string) error {
	reason = strings.TrimSpace(reason)
	if err := validateReason(reason); err != nil {
		return err
	}
	order, err := s.loadRefunding(ctx, orderID)
	if err != nil {
		return err
	}
	err = s.transition(ctx, order, enums.IndividualOrderStatusAwaitingShipment, map[string]any{
		"refund_refuse_reason": reason,
	})
	if err != nil {
		return err
	}
	s.notify(ctx, notifications.Task{
		Kind:              enums.NotificationTypeRefundRejected,
		UserID:            order.UserID,
		GroupOrderID:      order.GroupOrderID,
		IndividualOrderID: order.ID,
		Reason:            reason,
	})
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.IndividualOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadOwned(ctx context.Context, userID, orderID uuid.UUID) (*models.IndividualOrder, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) loadRefunding(ctx context.Context, orderID uuid.UUID) (*models.IndividualOrder, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.IndividualOrderStatusRefundApplying {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no pending refund for order")
	}
	return order, nil
}

// transition moves order to status, guarded on the status it was loaded with.
func (s *service) transition(ctx context.Context, order *models.IndividualOrder, status enums.IndividualOrderStatus, updates map[string]any) error {
	values := map[string]any{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	applied, err := s.repo.UpdateIfStatus(ctx, order.ID, order.Status, values)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"individual_order_id": order.ID.String(),
		"from":                order.Status.String(),
		"to":                  status.String(),
	}), "individual order transitioned")
	order.Status = status
	return nil
}

func (s *service) notify(ctx context.Context, task notifications.Task) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, task); err != nil {
		ctx = s.logg.WithUserID(ctx, task.UserID.String())
		s.logg.Error(s.logg.WithField(ctx, "kind", string(task.Kind)), "order notification failed", err)
	}
}

func normalizeDelivery(in DeliveryInput) (DeliveryInput, error) {
	out := DeliveryInput{
		Type:           in.Type,
		Carrier:        strings.TrimSpace(in.Carrier),
		TrackingNumber: strings.TrimSpace(in.TrackingNumber),
	}
	if !out.Type.IsValid() {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery type").
			WithDetails(map[string]string{"deliveryType": "must be one of express, local_delivery, pickup"})
	}

	details := map[string]string{}
	if out.Type.RequiresTracking() {
		if out.Carrier == "" {
			details["carrier"] = "is required for express delivery"
		}
		if out.TrackingNumber == "" {
			details["trackingNumber"] = "is required for express delivery"
		}
	} else {
		if out.Carrier != "" {
			details["carrier"] = "only allowed for express delivery"
		}
		if out.TrackingNumber != "" {
			details["trackingNumber"] = "only allowed for express delivery"
		}
	}
	if len([]rune(out.Carrier)) > maxDeliveryLength {
		details["carrier"] = fmt.Sprintf("must be at most %d characters", maxDeliveryLength)
	}
	if len([]rune(out.TrackingNumber)) > maxDeliveryLength {
		details["trackingNumber"] = fmt.Sprintf("must be at most %d characters", maxDeliveryLength)
	}
	if len(details) > 0 {
		return out, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery").WithDetails(details)
	}
	return out, nil
}

func validateReason(reason string) error {
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is required")
	}
	if len([]rune(reason)) > maxReasonLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason is too long").
			WithDetails(map[string]string{"reason": fmt.Sprintf("must be at most %d characters", maxReasonLength)})
	}
	return nil
}
