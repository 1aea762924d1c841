package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/checkout-service/internal/config"
	"github.com/linemk/checkout-service/internal/domain/models"
	"github.com/linemk/checkout-service/internal/gateway"
	"github.com/linemk/checkout-service/internal/storage"
)

var (
	// ErrEmptyCart rejects initiation for a cart with no items.
	ErrEmptyCart = errors.New("cannot initiate payment for an empty cart")
	// ErrPaymentNotCompleted means the provider verified the transaction as not successful.
	ErrPaymentNotCompleted = errors.New("payment not completed")
)

// InitiateResult is returned to the caller after a successful initiation.
type InitiateResult struct {
	PaymentURL string
	TxRef      string
}

// CheckoutService owns the payment reconciliation state machine: it stages a
// cart snapshot under a fresh transaction reference, and later converts that
// staged payload into a real order once the provider confirms payment.
type CheckoutService interface {
	InitiatePayment(ctx context.Context, userID int64, address models.AddressSnapshot) (*InitiateResult, error)
	HandleCallback(ctx context.Context, txRef string) (int64, error)
}

type checkoutService struct {
	log         *slog.Logger
	db          *sql.DB
	userRepo    storage.UserStorage
	cartRepo    storage.CartStorage
	pendingRepo storage.PendingPaymentStorage
	orderRepo   storage.OrderStorage
	gateway     gateway.Client
	cfg         config.GatewayConfig
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	userRepo storage.UserStorage,
	cartRepo storage.CartStorage,
	pendingRepo storage.PendingPaymentStorage,
	orderRepo storage.OrderStorage,
	gatewayClient gateway.Client,
	cfg config.GatewayConfig,
) CheckoutService {
	return &checkoutService{
		log:         log,
		db:          db,
		userRepo:    userRepo,
		cartRepo:    cartRepo,
		pendingRepo: pendingRepo,
		orderRepo:   orderRepo,
		gateway:     gatewayClient,
		cfg:         cfg,
	}
}

// InitiatePayment snapshots the cart at this instant, stages it as a pending
// payment keyed by a fresh transaction reference and opens a transaction with
// the provider. The pending row is written before the gateway call; if the
// call fails, the row is removed best-effort so the reference is not reused.
func (s *checkoutService) InitiatePayment(ctx context.Context, userID int64, address models.AddressSnapshot) (*InitiateResult, error) {
	const op = "service.CheckoutService.InitiatePayment"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("initiating payment")

	items, err := s.cartRepo.GetItemsByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to read cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to read cart: %w", op, err)
	}
	if len(items) == 0 {
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	// Freeze quantities and unit prices right now; the order recorded later
	// must match what the customer is charged, not a future catalog price.
	snapshot := make([]models.SnapshotItem, 0, len(items))
	var totalPrice float64
	for _, item := range items {
		snapshot = append(snapshot, models.SnapshotItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
		totalPrice += item.UnitPrice * float64(item.Quantity)
	}

	txRef := "tx-" + uuid.NewString()

	pending := &models.PendingPayment{
		TxRef:      txRef,
		UserID:     userID,
		TotalPrice: totalPrice,
		Details: models.OrderDetails{
			Address: address,
			Items:   snapshot,
		},
	}
	if err := s.pendingRepo.Create(ctx, pending); err != nil {
		logger.Error("failed to stage pending payment", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to stage pending payment: %w", op, err)
	}

	checkoutURL, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Amount:   totalPrice,
		Currency: s.cfg.Currency,
		TxRef:    txRef,
		Customer: gateway.Customer{
			Email:    user.Email,
			FullName: address.FullName,
			Phone:    address.Phone,
		},
		CallbackURL: s.cfg.CallbackURL,
		ReturnURL:   s.cfg.ReturnURL,
	})
	if err != nil {
		// No money moved and no order exists; drop the staged row so the
		// reference is not left orphaned. Cleanup failure is only logged.
		if delErr := s.pendingRepo.Delete(ctx, txRef); delErr != nil {
			logger.Error("failed to clean up pending payment after gateway error", slog.Any("error", delErr))
		}
		logger.Error("gateway initialization failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: gateway initialization failed: %w", op, err)
	}

	logger.Info("payment initiated", slog.String("txRef", txRef), slog.Float64("totalPrice", totalPrice))
	return &InitiateResult{PaymentURL: checkoutURL, TxRef: txRef}, nil
}

// HandleCallback reconciles an asynchronous provider callback against the
// staged pending payment. Verification happens server-side; on success the
// address, order, order items, cart clearing and the pending-row deletion all
// commit in one transaction or not at all. A reference whose row is already
// consumed reports storage.ErrPendingNotFound.
func (s *checkoutService) HandleCallback(ctx context.Context, txRef string) (int64, error) {
	const op = "service.CheckoutService.HandleCallback"
	logger := s.log.With(slog.String("op", op), slog.String("txRef", txRef))
	logger.Info("handling payment callback")

	pending, err := s.pendingRepo.GetByTxRef(ctx, txRef)
	if err != nil {
		if errors.Is(err, storage.ErrPendingNotFound) {
			logger.Warn("no pending payment for reference")
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		logger.Error("failed to get pending payment", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to get pending payment: %w", op, err)
	}

	verification, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		logger.Error("gateway verification failed", slog.Any("error", err))
		return 0, fmt.Errorf("%s: gateway verification failed: %w", op, err)
	}
	if !verification.Success {
		// Not an error of ours: the pending row stays for a later retry.
		logger.Warn("payment not completed", slog.String("status", verification.Status))
		return 0, fmt.Errorf("%s: %w (status %q)", op, ErrPaymentNotCompleted, verification.Status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Consuming the pending row first is the idempotency gate: of two
	// concurrent callbacks for the same reference only one sees a deleted row.
	consumed, err := s.pendingRepo.DeleteTx(ctx, tx, txRef)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to consume pending payment", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to consume pending payment: %w", op, err)
	}
	if !consumed {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("pending payment already consumed")
		return 0, fmt.Errorf("%s: %w", op, storage.ErrPendingNotFound)
	}

	addressID, err := s.orderRepo.CreateAddressTx(ctx, tx, &models.OrderAddress{
		UserID:   pending.UserID,
		FullName: pending.Details.Address.FullName,
		Phone:    pending.Details.Address.Phone,
		City:     pending.Details.Address.City,
		SubCity:  pending.Details.Address.SubCity,
		Street:   pending.Details.Address.Street,
		HouseNo:  pending.Details.Address.HouseNo,
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order address", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to create order address: %w", op, err)
	}

	orderID, err := s.orderRepo.CreateOrderTx(ctx, tx, &models.Order{
		UserID:     pending.UserID,
		AddressID:  addressID,
		TotalPrice: pending.TotalPrice,
		IsPaid:     true,
		Status:     models.OrderStatusCompleted,
		TxRef:      txRef,
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	if err := s.orderRepo.CreateOrderItemsTx(ctx, tx, orderID, pending.Details.Items); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order items", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to create order items: %w", op, err)
	}

	if err := s.cartRepo.ClearByUserIDTx(ctx, tx, pending.UserID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return 0, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("order materialized", slog.Int64("orderID", orderID))
	return orderID, nil
}
