package lending

import (
	"context"
	"database/sql"
	"time"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/db"
	"bookstore-be/internal/logger"
	"bookstore-be/internal/metrics"

	"go.uber.org/zap"
)

// Service runs the borrowing lifecycle:
//
//	Pending -> Approved -> Returned
//	Pending -> Rejected
//
// A copy is reserved when the request is made and released on reject or return.
type Service interface {
	RequestBorrow(ctx context.Context, actor auth.Identity, bookID int64) (Borrowing, error)
	ReviewBorrowing(ctx context.Context, actor auth.Identity, borrowingID int64, action ReviewAction) (Borrowing, error)
	ReturnBook(ctx context.Context, actor auth.Identity, borrowingID int64) (Borrowing, error)
	ListBorrowings(ctx context.Context, actor auth.Identity) ([]Borrowing, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	metrics *metrics.Registry
	now     func() time.Time
}

func NewService(conn *sql.DB, repo Repository, m *metrics.Registry) Service {
	return &service{db: conn, repo: repo, metrics: m, now: time.Now}
}

func (s *service) RequestBorrow(ctx context.Context, actor auth.Identity, bookID int64) (Borrowing, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RequestBorrow"),
		zap.Int64("book_id", bookID),
	)

	if err := actor.RequireUser(); err != nil {
		return Borrowing{}, err
	}
	if bookID <= 0 {
		return Borrowing{}, ErrInvalidBookID
	}

	var created Borrowing
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		available, err := s.repo.LockBookTx(ctx, tx, bookID)
		if err != nil {
			return err
		}
		if available <= 0 {
			return ErrNoCopiesAvailable
		}

		if err := s.repo.TakeCopyTx(ctx, tx, bookID); err != nil {
			return err
		}

		now := s.now().UTC()
		created, err = s.repo.InsertBorrowingTx(ctx, tx, Borrowing{
			UserID:       actor.UserID,
			BookID:       bookID,
			DateBorrowed: now,
			DueDate:      now.Add(LoanPeriod),
			Status:       StatusPending,
		})
		return err
	})
	if err != nil {
		if apperror.Is(err, apperror.KindNoCopiesAvailable) {
			s.metrics.Inc("borrow_no_copies")
		} else if apperror.Is(err, apperror.KindInternal) {
			log.Error("borrow request failed", zap.Error(err))
		}
		return Borrowing{}, err
	}

	s.metrics.Inc("borrow_requested")
	log.Info("borrow requested", zap.Int64("borrowing_id", created.ID))
	return created, nil
}

func (s *service) ReviewBorrowing(ctx context.Context, actor auth.Identity, borrowingID int64, action ReviewAction) (Borrowing, error) {
	if err := actor.RequireAdmin(); err != nil {
		return Borrowing{}, err
	}
	if _, err := ParseReviewAction(string(action)); err != nil {
		return Borrowing{}, err
	}

	var reviewed Borrowing
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		b, err := s.repo.LockBorrowingTx(ctx, tx, borrowingID)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return ErrNotPending
		}

		next := StatusApproved
		if action == ActionReject {
			next = StatusRejected
			if _, err := s.repo.ReleaseCopyTx(ctx, tx, b.BookID); err != nil {
				return err
			}
		}
		if err := s.repo.UpdateBorrowingTx(ctx, tx, b.ID, next, nil); err != nil {
			return err
		}

		b.Status = next
		reviewed = b
		return nil
	})
	if err != nil {
		return Borrowing{}, err
	}

	logger.FromCtx(ctx).Info("borrowing reviewed",
		zap.String("layer", "service"),
		zap.Int64("borrowing_id", borrowingID),
		zap.String("status", string(reviewed.Status)),
	)
	return reviewed, nil
}

func (s *service) ReturnBook(ctx context.Context, actor auth.Identity, borrowingID int64) (Borrowing, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ReturnBook"),
		zap.Int64("borrowing_id", borrowingID),
	)

	if err := actor.RequireUser(); err != nil {
		return Borrowing{}, err
	}

	var returned Borrowing
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		b, err := s.repo.LockBorrowingTx(ctx, tx, borrowingID)
		if err != nil {
			return err
		}
		if !actor.CanActFor(b.UserID) {
			return ErrNotBorrower
		}
		if b.Status != StatusApproved {
			return ErrNotApproved
		}

		now := s.now().UTC()
		if err := s.repo.UpdateBorrowingTx(ctx, tx, b.ID, StatusReturned, &now); err != nil {
			return err
		}
		released, err := s.repo.ReleaseCopyTx(ctx, tx, b.BookID)
		if err != nil {
			return err
		}
		if !released {
			log.Warn("copy not released, library book already at total_copies",
				zap.Int64("book_id", b.BookID))
		}

		b.Status = StatusReturned
		b.DateReturned = &now
		returned = b
		return nil
	})
	if err != nil {
		return Borrowing{}, err
	}

	s.metrics.Inc("borrow_returned")
	log.Info("book returned")
	return returned, nil
}

func (s *service) ListBorrowings(ctx context.Context, actor auth.Identity) ([]Borrowing, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, actor.UserID)
}
