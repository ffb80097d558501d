package cart

import "bookstore-be/internal/apperror"

var (
	ErrInvalidQuantity = apperror.New(apperror.KindInvalidArgument, "quantity must be at least 1")
	ErrInvalidBookID   = apperror.New(apperror.KindInvalidArgument, "book_id is required")
	ErrBookNotFound    = apperror.New(apperror.KindNotFound, "store book not found")
	ErrAccountGone     = apperror.New(apperror.KindUnauthenticated, "account no longer exists")
)
