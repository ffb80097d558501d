package user

import "bookstore-be/internal/apperror"

var (
	ErrMissingFields      = apperror.New(apperror.KindInvalidArgument, "name, email, and password are required")
	ErrMissingCredentials = apperror.New(apperror.KindInvalidArgument, "email and password are required")
	ErrInvalidEmail       = apperror.New(apperror.KindInvalidArgument, "invalid email format")
	ErrPasswordTooLong    = apperror.New(apperror.KindInvalidArgument, "password must be at most 72 bytes")
	ErrEmailExists        = apperror.New(apperror.KindConflict, "email already in use")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthenticated, "invalid email or password")
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
)
