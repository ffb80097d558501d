package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/auth"
	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

const maxPasswordBytes = 72

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(id auth.Identity) (string, error)
}

type Service interface {
	Register(ctx context.Context, name, email, password string) (User, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ListUsers(ctx context.Context, actor auth.Identity) ([]User, error)
	GetUser(ctx context.Context, actor auth.Identity, id int64) (User, error)
	DeleteUser(ctx context.Context, actor auth.Identity, id int64) error
}

type service struct {
	repo   Repository
	hasher Hasher
	tokens TokenIssuer
}

func NewService(repo Repository, hasher Hasher, tokens TokenIssuer) Service {
	return &service{repo: repo, hasher: hasher, tokens: tokens}
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func (s *service) Register(ctx context.Context, name, email, password string) (User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return User{}, ErrMissingFields
	}
	if !ValidEmail(email) {
		return User{}, ErrInvalidEmail
	}
	if len(password) > maxPasswordBytes {
		return User{}, ErrPasswordTooLong
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, CreateUserParams{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			log.Info("email already registered", zap.String("email", email))
		}
		return User{}, err
	}

	log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}

	u, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login for unknown email")
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		log.Info("password mismatch", zap.Int64("user_id", u.ID))
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(auth.Identity{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin})
	if err != nil {
		log.Error("failed to issue token", zap.Error(err))
		return LoginResult{}, err
	}

	return LoginResult{AccessToken: token, User: u}, nil
}

func (s *service) ListUsers(ctx context.Context, actor auth.Identity) ([]User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *service) GetUser(ctx context.Context, actor auth.Identity, id int64) (User, error) {
	if err := actor.RequireAdmin(); err != nil {
		return User{}, err
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) DeleteUser(ctx context.Context, actor auth.Identity, id int64) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperror.New(apperror.KindInvalidArgument, "admins cannot delete their own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("user deleted",
		zap.String("layer", "service"),
		zap.Int64("deleted_user_id", id),
	)
	return nil
}
