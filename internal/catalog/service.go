package catalog

import (
	"context"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

// Service exposes catalog maintenance to admins and browsing to signed-in users.
type Service interface {
	CreateStoreBook(ctx context.Context, actor auth.Identity, in CreateStoreBookInput) (StoreBook, error)
	UpdateStoreBook(ctx context.Context, actor auth.Identity, id int64, in UpdateStoreBookInput) (StoreBook, error)
	DeleteStoreBook(ctx context.Context, actor auth.Identity, id int64) error
	ListStoreBooks(ctx context.Context, actor auth.Identity) ([]StoreBook, error)
	BrowseStoreBooks(ctx context.Context, actor auth.Identity) ([]StoreBook, error)
	GetStoreBook(ctx context.Context, actor auth.Identity, id int64) (StoreBook, error)

	CreateLibraryBook(ctx context.Context, actor auth.Identity, in CreateLibraryBookInput) (LibraryBook, error)
	UpdateLibraryBook(ctx context.Context, actor auth.Identity, id int64, in UpdateLibraryBookInput) (LibraryBook, error)
	DeleteLibraryBook(ctx context.Context, actor auth.Identity, id int64) error
	ListLibraryBooks(ctx context.Context, actor auth.Identity) ([]LibraryBook, error)
	BrowseLibraryBooks(ctx context.Context, actor auth.Identity) ([]LibraryBook, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateStoreBook(ctx context.Context, actor auth.Identity, in CreateStoreBookInput) (StoreBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return StoreBook{}, err
	}
	if err := in.validate(); err != nil {
		return StoreBook{}, err
	}

	b, err := s.repo.InsertStoreBook(ctx, in)
	if err != nil {
		return StoreBook{}, err
	}

	logger.FromCtx(ctx).Info("store book created",
		zap.String("layer", "service"),
		zap.Int64("book_id", b.ID),
		zap.String("isbn", b.ISBN),
	)
	return b, nil
}

func (s *service) UpdateStoreBook(ctx context.Context, actor auth.Identity, id int64, in UpdateStoreBookInput) (StoreBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return StoreBook{}, err
	}
	if in.empty() {
		return StoreBook{}, ErrNoFieldsToUpdate
	}
	return s.repo.UpdateStoreBook(ctx, id, in)
}

func (s *service) DeleteStoreBook(ctx context.Context, actor auth.Identity, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := s.repo.DeleteStoreBook(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("store book deleted", zap.Int64("book_id", id))
	return nil
}

func (s *service) ListStoreBooks(ctx context.Context, actor auth.Identity) ([]StoreBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.ListStoreBooks(ctx)
}

func (s *service) BrowseStoreBooks(ctx context.Context, actor auth.Identity) ([]StoreBook, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	return s.repo.ListStoreBooks(ctx)
}

func (s *service) GetStoreBook(ctx context.Context, actor auth.Identity, id int64) (StoreBook, error) {
	if err := actor.RequireUser(); err != nil {
		return StoreBook{}, err
	}
	return s.repo.GetStoreBook(ctx, id)
}

func (s *service) CreateLibraryBook(ctx context.Context, actor auth.Identity, in CreateLibraryBookInput) (LibraryBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return LibraryBook{}, err
	}
	if err := in.validate(); err != nil {
		return LibraryBook{}, err
	}

	b, err := s.repo.InsertLibraryBook(ctx, in)
	if err != nil {
		return LibraryBook{}, err
	}

	logger.FromCtx(ctx).Info("library book created",
		zap.String("layer", "service"),
		zap.Int64("book_id", b.ID),
		zap.String("isbn", b.ISBN),
	)
	return b, nil
}

func (s *service) UpdateLibraryBook(ctx context.Context, actor auth.Identity, id int64, in UpdateLibraryBookInput) (LibraryBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return LibraryBook{}, err
	}
	if in.empty() {
		return LibraryBook{}, ErrNoFieldsToUpdate
	}
	return s.repo.UpdateLibraryBook(ctx, id, in)
}

func (s *service) DeleteLibraryBook(ctx context.Context, actor auth.Identity, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if err := s.repo.DeleteLibraryBook(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("library book deleted", zap.Int64("book_id", id))
	return nil
}

func (s *service) ListLibraryBooks(ctx context.Context, actor auth.Identity) ([]LibraryBook, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.ListLibraryBooks(ctx)
}

func (s *service) BrowseLibraryBooks(ctx context.Context, actor auth.Identity) ([]LibraryBook, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	return s.repo.ListLibraryBooks(ctx)
}
