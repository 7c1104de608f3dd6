package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
)

var (
	ErrTokenRequired   = fmt.Errorf("auth: %w: token is required", errs.ErrValidation)
	ErrUserRequired    = fmt.Errorf("auth: %w: user is required", errs.ErrValidation)
	ErrTTLInvalid      = fmt.Errorf("auth: %w: ttl must be positive", errs.ErrValidation)
	ErrSessionNotFound = fmt.Errorf("auth: session %w", errs.ErrNotFound)
)

type Token string

type Session struct {
	Token     Token
	UserID    user.ID
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token  Token
	UserID user.ID
	TTL    time.Duration
	Now    time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := strings.TrimSpace(string(params.Token))
	if token == "" {
		return nil, ErrTokenRequired
	}
	if strings.TrimSpace(string(params.UserID)) == "" {
		return nil, ErrUserRequired
	}
	if params.TTL <= 0 {
		return nil, ErrTTLInvalid
	}
	now := params.Now.UTC()
	return &Session{
		Token:     Token(token),
		UserID:    params.UserID,
		CreatedAt: now,
		ExpiresAt: now.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteByUser(ctx context.Context, userID user.ID) error
}
