package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pintuan-backend/pkg/errors"
	"github.com/angelmondragon/pintuan-backend/pkg/logger"
)

const maxBodyBytes = 16 << 10

// RefundReviewer is the operator side of the order lifecycle.
type RefundReviewer interface {
	ApproveRefund(ctx context.Context, orderID uuid.UUID) error
	RejectRefund(ctx context.Context, orderID uuid.UUID, reason string) error
}

type rejectRefundRequest struct {
	Reason string `json:"reason"`
}

func ApproveRefund(svc RefundReviewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "individual_order_id", orderID.String())
		if err := svc.ApproveRefund(ctx, orderID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"orderId": orderID.String(), "status": "refund_finished"})
	}
}

func RejectRefund(svc RefundReviewer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectRefundRequest
		if err := decodeJSON(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithField(r.Context(), "individual_order_id", orderID.String())
		if err := svc.RejectRefund(ctx, orderID, req.Reason); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"orderId": orderID.String(), "status": "awaiting_shipment"})
	}
}

func orderIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id").
			WithDetails(map[string]string{"orderID": "must be a uuid"})
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid json body")
	}
	return nil
}
