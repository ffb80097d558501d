package payment

import "bookstore-be/internal/apperror"

var (
	ErrInvalidAmount       = apperror.New(apperror.KindInvalidArgument, "amount must be greater than zero")
	ErrInvalidPhone        = apperror.New(apperror.KindInvalidArgument, "phone number must be a valid Kenyan mobile number")
	ErrTransactionNotFound = apperror.New(apperror.KindNotFound, "transaction not found")
	ErrGatewayUnavailable  = apperror.New(apperror.KindUpstream, "payment provider request failed")
)
