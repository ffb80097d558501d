package catalog

import "bookstore-be/internal/apperror"

var (
	ErrMissingFields       = apperror.New(apperror.KindInvalidArgument, "title, author, genre, and isbn are required")
	ErrMissingPrice        = apperror.New(apperror.KindInvalidArgument, "price is required")
	ErrInvalidPrice        = apperror.New(apperror.KindInvalidArgument, "price must be a non-negative number")
	ErrInvalidStock        = apperror.New(apperror.KindInvalidArgument, "stock must be non-negative")
	ErrInvalidCopies       = apperror.New(apperror.KindInvalidArgument, "copies must satisfy 0 <= available_copies <= total_copies")
	ErrEmptyField          = apperror.New(apperror.KindInvalidArgument, "title, author, genre, and isbn cannot be blank")
	ErrNoFieldsToUpdate    = apperror.New(apperror.KindInvalidArgument, "no fields to update")
	ErrDuplicateISBN       = apperror.New(apperror.KindConflict, "a book with this isbn already exists")
	ErrBookInUse           = apperror.New(apperror.KindConflict, "book is referenced by existing sales or borrowings")
	ErrStoreBookNotFound   = apperror.New(apperror.KindNotFound, "store book not found")
	ErrLibraryBookNotFound = apperror.New(apperror.KindNotFound, "library book not found")
)
