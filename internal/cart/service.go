package cart

import (
	"context"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	AddToCart(ctx context.Context, actor auth.Identity, bookID int64, quantity int) (CartItem, error)
	ViewCart(ctx context.Context, actor auth.Identity) (Cart, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) AddToCart(ctx context.Context, actor auth.Identity, bookID int64, quantity int) (CartItem, error) {
	if err := actor.RequireUser(); err != nil {
		return CartItem{}, err
	}
	if bookID <= 0 {
		return CartItem{}, ErrInvalidBookID
	}
	if quantity < 1 {
		return CartItem{}, ErrInvalidQuantity
	}

	item, err := s.repo.Upsert(ctx, actor.UserID, bookID, quantity)
	if err != nil {
		return CartItem{}, err
	}

	logger.FromCtx(ctx).Info("book added to cart",
		zap.String("layer", "service"),
		zap.Int64("book_id", bookID),
		zap.Int("added", quantity),
		zap.Int("quantity", item.Quantity),
	)
	return item, nil
}

func (s *service) ViewCart(ctx context.Context, actor auth.Identity) (Cart, error) {
	if err := actor.RequireUser(); err != nil {
		return Cart{}, err
	}

	lines, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return Cart{}, err
	}

	var total float64
	for _, l := range lines {
		total += l.Subtotal
	}
	return Cart{Items: lines, Total: Round2(total)}, nil
}
