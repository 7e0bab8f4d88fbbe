package service

import (
	"context"
	"time"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/rs/zerolog"
)

// identityService resolves the caller of a request to an active user
type identityService struct {
	users repository.UserRepository
	now   func() time.Time
	log   zerolog.Logger
}

// NewIdentityService creates an IdentityService. now is used to check
// session expiry.
func NewIdentityService(users repository.UserRepository, now func() time.Time, log zerolog.Logger) IdentityService {
	if now == nil {
		now = time.Now
	}
	return &identityService{
		users: users,
		now:   now,
		log:   log.With().Str("service", "identity").Logger(),
	}
}

// Resolve identifies the caller by session token, or by personal barcode
// when no token was presented. A presented token that does not resolve
// fails even if a personal barcode is also supplied.
func (s *identityService) Resolve(ctx context.Context, token, personalBarcode string) (*models.User, error) {
	if token != "" {
		return s.Authenticate(ctx, token)
	}
	if personalBarcode == "" {
		return nil, ErrUnauthenticated("user authentication required")
	}

	user, err := s.users.GetActiveByBarcode(ctx, personalBarcode)
	if err != nil {
		return nil, errStorage("look up user barcode", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated("unknown or inactive personal barcode")
	}
	return user, nil
}

// Authenticate resolves a bearer session token to its active owner
func (s *identityService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated("authentication required")
	}

	user, err := s.users.GetActiveBySessionToken(ctx, token, s.now())
	if err != nil {
		return nil, errStorage("validate session", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated("invalid or expired token")
	}
	return user, nil
}
