package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const statusSuccess = "success"

// Customer is the payer contact info passed to the provider at initiation.
type Customer struct {
	Email    string
	FullName string
	Phone    string
}

// InitializeRequest describes a transaction to open with the provider.
type InitializeRequest struct {
	Amount      float64
	Currency    string
	TxRef       string
	Customer    Customer
	CallbackURL string
	ReturnURL   string
}

// VerifyResult is the provider's server-side view of a transaction.
// Raw keeps the untouched payload for auditing.
type VerifyResult struct {
	Success bool
	Status  string
	Raw     json.RawMessage
}

// Client talks to the external payment provider. Both calls are pure
// request/response; the transaction reference is the correlation id.
type Client interface {
	// Initialize opens a remote transaction and returns the checkout URL the
	// customer must be redirected to.
	Initialize(ctx context.Context, req InitializeRequest) (string, error)
	// Verify asks the provider whether the transaction actually succeeded.
	// Client-supplied success flags are never trusted, only this call is.
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}

type paymentClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a provider client with a bounded request timeout.
func NewClient(baseURL, secretKey string, timeout time.Duration) Client {
	return &paymentClient{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type initializeBody struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url,omitempty"`
}

type initializeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

type verifyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status string `json:"status"`
	} `json:"data"`
}

func (c *paymentClient) Initialize(ctx context.Context, req InitializeRequest) (string, error) {
	const op = "gateway.Initialize"

	body := initializeBody{
		Amount:      fmt.Sprintf("%.2f", req.Amount),
		Currency:    req.Currency,
		Email:       req.Customer.Email,
		FullName:    req.Customer.FullName,
		PhoneNumber: req.Customer.Phone,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	raw, statusCode, err := c.do(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Op: op, Err: err}
	}

	var resp initializeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &APIError{Op: op, StatusCode: statusCode, Message: "malformed response body"}
	}
	if statusCode != http.StatusOK || resp.Status != statusSuccess {
		return "", &APIError{Op: op, StatusCode: statusCode, Status: resp.Status, Message: resp.Message}
	}
	if resp.Data.CheckoutURL == "" {
		return "", &APIError{Op: op, StatusCode: statusCode, Status: resp.Status, Message: "missing checkout_url"}
	}

	return resp.Data.CheckoutURL, nil
}

func (c *paymentClient) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	const op = "gateway.Verify"

	raw, statusCode, err := c.do(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	var resp verifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Op: op, StatusCode: statusCode, Message: "malformed response body"}
	}
	if statusCode != http.StatusOK || resp.Status != statusSuccess {
		return nil, &APIError{Op: op, StatusCode: statusCode, Status: resp.Status, Message: resp.Message}
	}

	// HTTP 200 with a non-success inner status is an application-level
	// decline, not an error: the caller decides what to do with it.
	return &VerifyResult{
		Success: resp.Data.Status == statusSuccess,
		Status:  resp.Data.Status,
		Raw:     raw,
	}, nil
}

// do performs the request and returns the raw body; any network or body-read
// failure is a transport concern and is reported as a plain error.
func (c *paymentClient) do(ctx context.Context, method, url string, body io.Reader) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}
