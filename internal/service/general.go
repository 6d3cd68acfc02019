package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/backend"
	"github.com/Rogue-Bear-Innovations/privatenest-back/internal/domain"
)

var (
	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
)

type General struct {
	users  backend.Users
	logger *zap.SugaredLogger
}

func NewGeneral(users backend.Users, l *zap.SugaredLogger) *General {
	return &General{
		users:  users,
		logger: l,
	}
}

func (s *General) Register(ctx context.Context, email, pass string) (string, error) {
	hash, err := s.bcryptGen(pass)
	if err != nil {
		return "", errors.Wrap(err, "bcryptGen")
	}
	token := uuid.New().String()
	if _, err := s.users.Create(ctx, email, hash, token); err != nil {
		return "", errors.Wrap(err, "create user")
	}
	return token, nil
}

func (s *General) Login(ctx context.Context, email, pass string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrLoginUserNotFound
		}
		return "", err
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrLoginPasswordDoesNotMatch
	}

	token := uuid.New().String()
	if err := s.users.UpdateToken(ctx, user.ID, token); err != nil {
		return "", errors.Wrap(err, "update token")
	}

	return token, nil
}

// PrincipalByToken resolves a bearer token to the authenticated
// principal for the auth middleware.
func (s *General) PrincipalByToken(ctx context.Context, token string) (*domain.Principal, error) {
	user, err := s.users.FindByToken(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "find user by token")
	}
	return &domain.Principal{ID: user.ID, Email: user.Email}, nil
}

func (s *General) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), 14)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *General) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
