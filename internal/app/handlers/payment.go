package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/checkout-service/internal/domain/models"
	"github.com/linemk/checkout-service/internal/gateway"
	"github.com/linemk/checkout-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/checkout-service/internal/service"
	"github.com/linemk/checkout-service/internal/storage"
)

// InitiatePaymentRequest is the shipping address supplied at checkout.
// house_no is the only optional field.
type InitiatePaymentRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	City     string `json:"city" validate:"required"`
	SubCity  string `json:"sub_city" validate:"required"`
	Street   string `json:"street" validate:"required"`
	HouseNo  string `json:"house_no"`
}

// InitiatePaymentResponse points the customer at the provider checkout page.
type InitiatePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
	TxRef      string `json:"tx_ref"`
}

// CallbackResponse reports a materialized order.
type CallbackResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
	TxRef   string `json:"tx_ref"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// InitiatePaymentHandler handles POST /api/payment/initiate.
func InitiatePaymentHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.InitiatePaymentHandler"
		logger := log.With(slog.String("op", op))

		var req InitiatePaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request"})
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation error", Details: err.Error()})
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}

		result, err := checkoutService.InitiatePayment(r.Context(), userID, models.AddressSnapshot{
			FullName: req.FullName,
			Phone:    req.Phone,
			City:     req.City,
			SubCity:  req.SubCity,
			Street:   req.Street,
			HouseNo:  req.HouseNo,
		})
		if err != nil {
			logger.Error("failed to initiate payment", slog.Any("error", err))
			writeJSON(w, initiateErrorStatus(err), errorResponse{Error: "failed to initiate payment", Details: errDetails(err)})
			return
		}

		writeJSON(w, http.StatusOK, InitiatePaymentResponse{
			PaymentURL: result.PaymentURL,
			TxRef:      result.TxRef,
		})
	}
}

// PaymentCallbackHandler handles GET /api/payment/callback?trx_ref=...,
// called by the payment provider (or via the customer redirect).
func PaymentCallbackHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentCallbackHandler"
		logger := log.With(slog.String("op", op))

		txRef := r.URL.Query().Get("trx_ref")
		if txRef == "" {
			logger.Error("trx_ref parameter is missing")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "trx_ref parameter is required"})
			return
		}

		orderID, err := checkoutService.HandleCallback(r.Context(), txRef)
		if err != nil {
			logger.Error("failed to handle callback", slog.Any("error", err), slog.String("txRef", txRef))
			switch {
			case errors.Is(err, storage.ErrPendingNotFound):
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "no pending payment for reference", Details: txRef})
			case errors.Is(err, service.ErrPaymentNotCompleted):
				writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: "payment not completed", Details: errDetails(err)})
			case isGatewayError(err):
				writeJSON(w, http.StatusBadGateway, errorResponse{Error: "payment gateway error", Details: errDetails(err)})
			default:
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save order", Details: errDetails(err)})
			}
			return
		}

		writeJSON(w, http.StatusOK, CallbackResponse{
			Message: "order successfully placed and paid",
			OrderID: orderID,
			TxRef:   txRef,
		})
	}
}

func initiateErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		return http.StatusBadRequest
	case isGatewayError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func isGatewayError(err error) bool {
	var transportErr *gateway.TransportError
	var apiErr *gateway.APIError
	return errors.As(err, &transportErr) || errors.As(err, &apiErr)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
