package lending

import "bookstore-be/internal/apperror"

var (
	ErrInvalidBookID     = apperror.New(apperror.KindInvalidArgument, "book_id is required")
	ErrInvalidAction     = apperror.New(apperror.KindInvalidArgument, "action must be \"approve\" or \"reject\"")
	ErrNoCopiesAvailable = apperror.New(apperror.KindNoCopiesAvailable, "no available copies to borrow")
	ErrBookNotFound      = apperror.New(apperror.KindNotFound, "library book not found")
	ErrBorrowingNotFound = apperror.New(apperror.KindNotFound, "borrowing not found")
	ErrNotBorrower       = apperror.New(apperror.KindPermissionDenied, "only the borrower or an admin can return this book")
	ErrNotPending        = apperror.New(apperror.KindInvalidStateTransition, "only pending borrowings can be reviewed")
	ErrNotApproved       = apperror.New(apperror.KindInvalidStateTransition, "only approved borrowings can be returned")
)
