package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"leasehub/internal/app/access"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainauth "leasehub/internal/domain/auth"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

var (
	ErrInvalidCredentials = fmt.Errorf("auth: %w: invalid credentials", errs.ErrForbidden)
	ErrPasswordTooShort   = fmt.Errorf("auth: %w: password must be at least 8 characters", errs.ErrValidation)
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service registers users and manages their bearer sessions.
type Service struct {
	UoWFactory uow.UoWFactory
	Sessions   domainauth.SessionStore
	Passwords  PasswordHasher
	Tokens     TokenGenerator
	Clock      clock.Clock
	SessionTTL time.Duration
	Logger     *slog.Logger
}

type RegisterParams struct {
	Email    string
	Name     string
	Phone    string
	Password string
	// AsOwner asks for the owner role. Owners act as owners only after an
	// admin approves them.
	AsOwner bool
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domainuser.User
	Token string
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, err
	}
	roles := []domainuser.Role{domainuser.RoleRenter}
	if params.AsOwner {
		roles = append(roles, domainuser.RoleOwner)
	}
	user, err := s.createUser(ctx, params.Email, params.Name, params.Phone, params.Password, roles, false)
	if err != nil {
		return nil, err
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", user.ID, "roles", user.Roles)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is taken.
func (s *Service) EnsureAdmin(ctx context.Context, email, name, password string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" {
		return nil
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	user, err := s.createUser(ctx, email, name, "", password, []domainuser.Role{domainuser.RoleAdmin}, true)
	if errors.Is(err, domainuser.ErrEmailAlreadyUsed) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("admin account created", "user_id", user.ID)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.userBy(ctx, func(ctx context.Context, repo domainuser.Repository) (*domainuser.User, error) {
		return repo.ByEmail(ctx, email)
	})
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	token, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID)
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

// ResolveToken maps a bearer token to the caller's identity. A session whose
// user no longer exists is dropped.
func (s *Service) ResolveToken(ctx context.Context, token string) (access.Identity, *domainuser.User, error) {
	if err := s.ensureDependencies(); err != nil {
		return access.Identity{}, nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return access.Identity{}, nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return access.Identity{}, nil, err
	}
	user, err := s.userBy(ctx, func(ctx context.Context, repo domainuser.Repository) (*domainuser.User, error) {
		return repo.ByID(ctx, session.UserID)
	})
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			_ = s.Sessions.Delete(ctx, session.Token)
			return access.Identity{}, nil, domainauth.ErrSessionNotFound
		}
		return access.Identity{}, nil, err
	}
	return access.IdentityOf(user), user, nil
}

func (s *Service) createUser(ctx context.Context, email, name, phone, password string, roles []domainuser.Role, approved bool) (*domainuser.User, error) {
	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Email:        email,
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	user.OwnerApproved = approved

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, errs.Storage(err)
	}
	execCtx := uow.Bind(ctx, unit)
	if _, err := unit.Users().ByEmail(execCtx, user.Email); err == nil {
		_ = unit.Rollback(execCtx)
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		_ = unit.Rollback(execCtx)
		return nil, err
	}
	if err := unit.Users().Save(execCtx, user); err != nil {
		_ = unit.Rollback(execCtx)
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, errs.Storage(err)
	}
	return user, nil
}

func (s *Service) userBy(ctx context.Context, load func(context.Context, domainuser.Repository) (*domainuser.User, error)) (*domainuser.User, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, s.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer release()
	return load(execCtx, unit.Users())
}

func (s *Service) issueSession(ctx context.Context, user *domainuser.User) (string, error) {
	token, err := s.Tokens.NewToken()
	if err != nil {
		return "", err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:  domainauth.Token(token),
		UserID: user.ID,
		TTL:    s.sessionTTL(),
		Now:    s.now(),
	})
	if err != nil {
		return "", err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) now() time.Time {
	return clock.OrSystem(s.Clock).Now()
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.UoWFactory == nil:
		return errors.New("auth: unit of work factory required")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
