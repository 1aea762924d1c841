package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linemk/checkout-service/internal/app/handlers"
	"github.com/linemk/checkout-service/internal/domain/models"
	"github.com/linemk/checkout-service/internal/gateway"
	"github.com/linemk/checkout-service/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/checkout-service/internal/service"
	"github.com/linemk/checkout-service/internal/storage"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withUserID injects the authenticated user the way the JWT middleware does.
func withUserID(r *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(r.Context(), jwtmiddleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(_ context.Context, _, _ string) (string, error) {
	return f.token, f.err
}

type fakeCheckoutService struct {
	result      *service.InitiateResult
	initErr     error
	gotUserID   int64
	gotAddress  models.AddressSnapshot
	orderID     int64
	callbackErr error
	gotTxRef    string
}

func (f *fakeCheckoutService) InitiatePayment(_ context.Context, userID int64, address models.AddressSnapshot) (*service.InitiateResult, error) {
	f.gotUserID = userID
	f.gotAddress = address
	if f.initErr != nil {
		return nil, f.initErr
	}
	return f.result, nil
}

func (f *fakeCheckoutService) HandleCallback(_ context.Context, txRef string) (int64, error) {
	f.gotTxRef = txRef
	if f.callbackErr != nil {
		return 0, f.callbackErr
	}
	return f.orderID, nil
}

type fakeCartService struct {
	addErr error
	cart   *service.CartResponse
	getErr error
}

func (f *fakeCartService) AddItem(_ context.Context, _, _ int64, _ int) error { return f.addErr }

func (f *fakeCartService) GetCart(_ context.Context, _ int64) (*service.CartResponse, error) {
	return f.cart, f.getErr
}

func TestAuthHandler_Success(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{token: "jwt-token"})

	body := `{"email": "user@example.com", "password": "password1"}`
	req := httptest.NewRequest("POST", "/api/auth", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp handlers.AuthResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token", resp.Token)
}

func TestAuthHandler_MalformedBody(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{token: "jwt-token"})

	req := httptest.NewRequest("POST", "/api/auth", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_ValidationError(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{token: "jwt-token"})

	// password below the 8 character minimum
	body := `{"email": "user@example.com", "password": "short"}`
	req := httptest.NewRequest("POST", "/api/auth", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthHandler_InvalidCredentials(t *testing.T) {
	handler := handlers.AuthHandler(testLogger(), &fakeAuthService{err: errors.New("invalid credentials")})

	body := `{"email": "user@example.com", "password": "password1"}`
	req := httptest.NewRequest("POST", "/api/auth", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

const initiateBody = `{
	"full_name": "John Doe",
	"phone": "+251911000000",
	"city": "Addis Ababa",
	"sub_city": "Bole",
	"street": "Africa Avenue",
	"house_no": "Apt 101"
}`

func TestInitiatePaymentHandler_Success(t *testing.T) {
	svc := &fakeCheckoutService{result: &service.InitiateResult{
		PaymentURL: "https://checkout.example.com/pay/abc",
		TxRef:      "tx-123",
	}}
	handler := handlers.InitiatePaymentHandler(testLogger(), svc)

	req := withUserID(httptest.NewRequest("POST", "/api/payment/initiate", strings.NewReader(initiateBody)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp handlers.InitiatePaymentResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "https://checkout.example.com/pay/abc", resp.PaymentURL)
	assert.Equal(t, "tx-123", resp.TxRef)

	assert.Equal(t, int64(7), svc.gotUserID)
	assert.Equal(t, "John Doe", svc.gotAddress.FullName)
	assert.Equal(t, "Bole", svc.gotAddress.SubCity)
}

func TestInitiatePaymentHandler_MissingAddressField(t *testing.T) {
	handler := handlers.InitiatePaymentHandler(testLogger(), &fakeCheckoutService{})

	// city is required
	body := `{"full_name": "John Doe", "phone": "+251911000000", "sub_city": "Bole", "street": "Africa Avenue"}`
	req := withUserID(httptest.NewRequest("POST", "/api/payment/initiate", strings.NewReader(body)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInitiatePaymentHandler_NoUserInContext(t *testing.T) {
	handler := handlers.InitiatePaymentHandler(testLogger(), &fakeCheckoutService{})

	req := httptest.NewRequest("POST", "/api/payment/initiate", strings.NewReader(initiateBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInitiatePaymentHandler_EmptyCart(t *testing.T) {
	svc := &fakeCheckoutService{initErr: fmt.Errorf("op: %w", service.ErrEmptyCart)}
	handler := handlers.InitiatePaymentHandler(testLogger(), svc)

	req := withUserID(httptest.NewRequest("POST", "/api/payment/initiate", strings.NewReader(initiateBody)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInitiatePaymentHandler_GatewayDown(t *testing.T) {
	svc := &fakeCheckoutService{initErr: fmt.Errorf("op: %w",
		&gateway.TransportError{Op: "initialize", Err: errors.New("connection refused")})}
	handler := handlers.InitiatePaymentHandler(testLogger(), svc)

	req := withUserID(httptest.NewRequest("POST", "/api/payment/initiate", strings.NewReader(initiateBody)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestPaymentCallbackHandler_Success(t *testing.T) {
	svc := &fakeCheckoutService{orderID: 21}
	handler := handlers.PaymentCallbackHandler(testLogger(), svc)

	req := httptest.NewRequest("GET", "/api/payment/callback?trx_ref=tx-abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp handlers.CallbackResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(21), resp.OrderID)
	assert.Equal(t, "tx-abc", resp.TxRef)
	assert.Equal(t, "tx-abc", svc.gotTxRef)
}

func TestPaymentCallbackHandler_MissingReference(t *testing.T) {
	handler := handlers.PaymentCallbackHandler(testLogger(), &fakeCheckoutService{})

	req := httptest.NewRequest("GET", "/api/payment/callback", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentCallbackHandler_UnknownReference(t *testing.T) {
	svc := &fakeCheckoutService{callbackErr: fmt.Errorf("op: %w", storage.ErrPendingNotFound)}
	handler := handlers.PaymentCallbackHandler(testLogger(), svc)

	req := httptest.NewRequest("GET", "/api/payment/callback?trx_ref=tx-missing", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPaymentCallbackHandler_PaymentNotCompleted(t *testing.T) {
	svc := &fakeCheckoutService{callbackErr: fmt.Errorf("op: %w", service.ErrPaymentNotCompleted)}
	handler := handlers.PaymentCallbackHandler(testLogger(), svc)

	req := httptest.NewRequest("GET", "/api/payment/callback?trx_ref=tx-abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusPaymentRequired, rr.Code)
}

func TestPaymentCallbackHandler_GatewayError(t *testing.T) {
	svc := &fakeCheckoutService{callbackErr: fmt.Errorf("op: %w",
		&gateway.APIError{Op: "verify", StatusCode: http.StatusServiceUnavailable})}
	handler := handlers.PaymentCallbackHandler(testLogger(), svc)

	req := httptest.NewRequest("GET", "/api/payment/callback?trx_ref=tx-abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestPaymentCallbackHandler_MaterializeFailure(t *testing.T) {
	svc := &fakeCheckoutService{callbackErr: errors.New("failed to create order")}
	handler := handlers.PaymentCallbackHandler(testLogger(), svc)

	req := httptest.NewRequest("GET", "/api/payment/callback?trx_ref=tx-abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestAddToCartHandler_Success(t *testing.T) {
	handler := handlers.AddToCartHandler(testLogger(), &fakeCartService{})

	body := `{"product_id": 10, "quantity": 2}`
	req := withUserID(httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(body)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAddToCartHandler_NonPositiveQuantity(t *testing.T) {
	handler := handlers.AddToCartHandler(testLogger(), &fakeCartService{})

	body := `{"product_id": 10, "quantity": 0}`
	req := withUserID(httptest.NewRequest("POST", "/api/cart/items", strings.NewReader(body)), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetCartHandler_Success(t *testing.T) {
	cart := &service.CartResponse{
		Items: []*models.CartItem{
			{ID: 1, ProductID: 10, ProductName: "Coffee Beans 1kg", Quantity: 2, UnitPrice: 10.00},
		},
		TotalItems: 2,
		TotalPrice: 20.00,
	}
	handler := handlers.GetCartHandler(testLogger(), &fakeCartService{cart: cart})

	req := withUserID(httptest.NewRequest("GET", "/api/cart", nil), 7)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp service.CartResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalItems)
	assert.Equal(t, 20.00, resp.TotalPrice)
}

func TestGetCartHandler_NoUserInContext(t *testing.T) {
	handler := handlers.GetCartHandler(testLogger(), &fakeCartService{})

	req := httptest.NewRequest("GET", "/api/cart", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
