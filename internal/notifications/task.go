package notifications

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
)

// Notifier delivers one notification. Delivery is best-effort: callers log and
// count the returned error and move on.
type Notifier interface {
	Notify(ctx context.Context, task Task) error
}

// Task is a notification to deliver to one user about one individual order.
type Task struct {
	Kind              enums.NotificationType `json:"kind" validate:"required"`
	UserID            uuid.UUID              `json:"userId" validate:"required"`
	GroupOrderID      *uuid.UUID             `json:"groupOrderId,omitempty"`
	IndividualOrderID uuid.UUID              `json:"individualOrderId" validate:"required"`
	MemberCount       int                    `json:"memberCount,omitempty" validate:"gte=0"`
	Amount            decimal.Decimal        `json:"amount" validate:"-"`
	Reason            string                 `json:"reason,omitempty" validate:"max=500"`
	DeliveryType      enums.DeliveryType     `json:"deliveryType,omitempty"`
	Carrier           string                 `json:"carrier,omitempty" validate:"max=100"`
	TrackingNumber    string                 `json:"trackingNumber,omitempty" validate:"max=100"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Validate rejects tasks that cannot be rendered or addressed.
func (t Task) Validate() error {
	if err := validate.Struct(t); err != nil {
		return formatValidationErrors(err)
	}
	if !t.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"kind": fmt.Sprintf("unknown notification kind %q", t.Kind)})
	}
	if t.Kind == enums.NotificationTypeOrderShipped && !t.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"deliveryType": fmt.Sprintf("unknown delivery type %q", t.DeliveryType)})
	}
	if t.Kind == enums.NotificationTypeGroupClosed {
		details := map[string]string{}
		if t.GroupOrderID == nil || *t.GroupOrderID == uuid.Nil {
			details["groupOrderId"] = "is required"
		}
		if t.MemberCount < 1 {
			details["memberCount"] = "must be at least 1"
		}
		if len(details) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
		}
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}
