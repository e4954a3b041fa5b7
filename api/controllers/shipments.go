package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/api/responses"
	"github.com/angelmondragon/pintuan-backend/internal/orders"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

// ShipmentRecorder moves paid orders into shipped.
type ShipmentRecorder interface {
	MarkShipped(ctx context.Context, orderID uuid.UUID, delivery orders.DeliveryInput) error
}

type markShippedRequest struct {
	DeliveryType   string `json:"deliveryType"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

func MarkShipped(svc ShipmentRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req markShippedRequest
		if err := decodeJSON(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "individual_order_id", orderID.String())
		delivery := orders.DeliveryInput{
			Type:           enums.DeliveryType(req.DeliveryType),
			Carrier:        req.Carrier,
			TrackingNumber: req.TrackingNumber,
		}
		if err := svc.MarkShipped(ctx, orderID, delivery); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"orderId":      orderID.String(),
			"status":       string(enums.IndividualOrderStatusShipped),
			"deliveryType": req.DeliveryType,
		})
	}
}
