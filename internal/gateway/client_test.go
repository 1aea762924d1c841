package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/linemk/checkout-service/internal/gateway"
	"github.com/stretchr/testify/assert"
)

func TestInitialize_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","message":"Hosted Link","data":{"checkout_url":"https://checkout.example.com/pay/abc"}}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	checkoutURL, err := client.Initialize(context.Background(), gateway.InitializeRequest{
		Amount:   25.00,
		Currency: "ETB",
		TxRef:    "tx-123",
		Customer: gateway.Customer{
			Email:    "buyer@example.com",
			FullName: "John Doe",
			Phone:    "+251911000000",
		},
		CallbackURL: "http://localhost:8080/api/payment/callback",
		ReturnURL:   "http://localhost:3000/payment/success",
	})

	assert.NoError(t, err)
	assert.Equal(t, "https://checkout.example.com/pay/abc", checkoutURL)
	assert.Equal(t, "Bearer sk-test", gotAuth, "secret key must be sent as a bearer token")
	assert.Equal(t, "25.00", gotBody["amount"], "amount is formatted with two decimals")
	assert.Equal(t, "ETB", gotBody["currency"])
	assert.Equal(t, "tx-123", gotBody["tx_ref"])
	assert.Equal(t, "buyer@example.com", gotBody["email"])
	assert.Equal(t, "http://localhost:8080/api/payment/callback", gotBody["callback_url"])
}

func TestInitialize_ApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"failed","message":"Invalid currency"}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	checkoutURL, err := client.Initialize(context.Background(), gateway.InitializeRequest{
		Amount: 10, Currency: "XXX", TxRef: "tx-1",
	})

	assert.Error(t, err)
	assert.Empty(t, checkoutURL)

	var apiErr *gateway.APIError
	assert.ErrorAs(t, err, &apiErr, "an http error body must map to APIError")
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "failed", apiErr.Status)
}

func TestInitialize_SuccessStatusWithoutCheckoutURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	_, err := client.Initialize(context.Background(), gateway.InitializeRequest{Amount: 10, Currency: "ETB", TxRef: "tx-1"})

	var apiErr *gateway.APIError
	assert.ErrorAs(t, err, &apiErr, "a success body without checkout_url is malformed")
}

func TestInitialize_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	_, err := client.Initialize(context.Background(), gateway.InitializeRequest{Amount: 10, Currency: "ETB", TxRef: "tx-1"})

	var transportErr *gateway.TransportError
	assert.ErrorAs(t, err, &transportErr, "a connection failure must map to TransportError")
}

func TestInitialize_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 20*time.Millisecond)
	_, err := client.Initialize(context.Background(), gateway.InitializeRequest{Amount: 10, Currency: "ETB", TxRef: "tx-1"})

	var transportErr *gateway.TransportError
	assert.ErrorAs(t, err, &transportErr, "a timeout must map to TransportError")
}

func TestVerify_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/tx-123", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":"success","data":{"status":"success"}}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	result, err := client.Verify(context.Background(), "tx-123")

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "success", result.Status)
	assert.NotEmpty(t, result.Raw, "raw payload must be preserved")
}

func TestVerify_PaymentFailed(t *testing.T) {
	// HTTP 200 with an inner failed status is a decline, not a client error
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{"status":"failed"}}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	result, err := client.Verify(context.Background(), "tx-456")

	assert.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "failed", result.Status)
}

func TestVerify_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	result, err := client.Verify(context.Background(), "tx-789")

	assert.Nil(t, result)
	var apiErr *gateway.APIError
	assert.ErrorAs(t, err, &apiErr, "a malformed body must map to APIError")
}

func TestVerify_UnknownReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"failed","message":"transaction not found"}`))
	}))
	defer srv.Close()

	client := gateway.NewClient(srv.URL, "sk-test", 5*time.Second)
	result, err := client.Verify(context.Background(), "tx-missing")

	assert.Nil(t, result)
	var apiErr *gateway.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
