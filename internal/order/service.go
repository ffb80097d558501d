package order

import (
	"context"
	"database/sql"
	"sort"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/cart"
	"bookstore-be/internal/db"
	"bookstore-be/internal/logger"
	"bookstore-be/internal/metrics"

	"go.uber.org/zap"
)

// CartLedger is the part of the cart that takes part in checkout.
type CartLedger interface {
	LockForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]cart.LockedItem, error)
	DeleteItemsTx(ctx context.Context, tx *sql.Tx, ids []int64) error
}

type Service interface {
	Checkout(ctx context.Context, actor auth.Identity) (CheckoutResult, error)
	ReviewSale(ctx context.Context, actor auth.Identity, saleID int64, action ReviewAction) (Sale, error)
	ListSales(ctx context.Context, actor auth.Identity) ([]Sale, error)
	ListAllSales(ctx context.Context, actor auth.Identity) ([]Sale, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	cart    CartLedger
	metrics *metrics.Registry
}

func NewService(conn *sql.DB, repo Repository, ledger CartLedger, m *metrics.Registry) Service {
	return &service{db: conn, repo: repo, cart: ledger, metrics: m}
}

// Checkout turns the actor's cart into one Pending sale per line. Stock is
// checked against the locked rows, so either every line is sold or nothing
// changes.
func (s *service) Checkout(ctx context.Context, actor auth.Identity) (CheckoutResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
	)

	if err := actor.RequireUser(); err != nil {
		return CheckoutResult{}, err
	}

	timer := metrics.StartTimer()
	var result CheckoutResult

	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		result = CheckoutResult{}

		items, err := s.cart.LockForCheckoutTx(ctx, tx, actor.UserID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		bookIDs := make([]int64, 0, len(items))
		for _, it := range items {
			bookIDs = append(bookIDs, it.BookID)
		}
		sort.Slice(bookIDs, func(i, j int) bool { return bookIDs[i] < bookIDs[j] })

		books, err := s.repo.LockBooksTx(ctx, tx, bookIDs)
		if err != nil {
			return err
		}

		for _, it := range items {
			b, ok := books[it.BookID]
			if !ok {
				return ErrBookNotFound
			}
			if it.Quantity > b.Stock {
				return &apperror.InsufficientStockError{
					BookID:    b.ID,
					Title:     b.Title,
					Requested: it.Quantity,
					Available: b.Stock,
				}
			}
		}

		itemIDs := make([]int64, 0, len(items))
		var total float64
		for _, it := range items {
			b := books[it.BookID]
			if err := s.repo.DecrementStockTx(ctx, tx, b.ID, it.Quantity); err != nil {
				return err
			}

			sale, err := s.repo.InsertSaleTx(ctx, tx, Sale{
				UserID:     actor.UserID,
				BookID:     b.ID,
				Quantity:   it.Quantity,
				TotalPrice: cart.Round2(float64(it.Quantity) * b.Price),
				Status:     SaleStatusPending,
			})
			if err != nil {
				return err
			}

			total += sale.TotalPrice
			itemIDs = append(itemIDs, it.ID)
			result.SaleIDs = append(result.SaleIDs, sale.ID)
			result.Sales = append(result.Sales, sale)
		}
		result.TotalPrice = cart.Round2(total)

		return s.cart.DeleteItemsTx(ctx, tx, itemIDs)
	})
	s.metrics.ObserveMillis("checkout", timer)

	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindInsufficientStock:
			s.metrics.Inc("checkout_insufficient_stock")
			log.Info("checkout refused", zap.Error(err))
		case apperror.KindInternal:
			s.metrics.Inc("checkout_failed")
			log.Error("checkout failed", zap.Error(err))
		}
		return CheckoutResult{}, err
	}

	s.metrics.Inc("checkout_succeeded")
	log.Info("checkout completed",
		zap.Int("sales", len(result.SaleIDs)),
		zap.Float64("total_price", result.TotalPrice),
	)
	return result, nil
}

// ReviewSale approves or rejects a Pending sale. Rejecting puts the sold
// quantity back on the shelf.
func (s *service) ReviewSale(ctx context.Context, actor auth.Identity, saleID int64, action ReviewAction) (Sale, error) {
	if err := actor.RequireAdmin(); err != nil {
		return Sale{}, err
	}
	if _, err := ParseReviewAction(string(action)); err != nil {
		return Sale{}, err
	}

	var reviewed Sale
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		sale, err := s.repo.LockSaleTx(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if sale.Status != SaleStatusPending {
			return ErrSaleNotPending
		}

		next := SaleStatusApproved
		if action == ActionReject {
			next = SaleStatusRejected
			if err := s.repo.RestoreStockTx(ctx, tx, sale.BookID, sale.Quantity); err != nil {
				return err
			}
		}
		if err := s.repo.SetSaleStatusTx(ctx, tx, sale.ID, next); err != nil {
			return err
		}

		sale.Status = next
		reviewed = sale
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	logger.FromCtx(ctx).Info("sale reviewed",
		zap.String("layer", "service"),
		zap.Int64("sale_id", saleID),
		zap.String("status", string(reviewed.Status)),
	)
	return reviewed, nil
}

func (s *service) ListSales(ctx context.Context, actor auth.Identity) ([]Sale, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, actor.UserID)
}

func (s *service) ListAllSales(ctx context.Context, actor auth.Identity) ([]Sale, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx)
}
