package order

import "bookstore-be/internal/apperror"

var (
	ErrCartEmpty      = apperror.New(apperror.KindInvalidArgument, "cart is empty")
	ErrInvalidAction  = apperror.New(apperror.KindInvalidArgument, "action must be \"approve\" or \"reject\"")
	ErrSaleNotFound   = apperror.New(apperror.KindNotFound, "sale not found")
	ErrBookNotFound   = apperror.New(apperror.KindNotFound, "store book not found")
	ErrSaleNotPending = apperror.New(apperror.KindInvalidStateTransition, "only pending sales can be reviewed")
)
