package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/shared/events"
)

var (
	ErrIDRequired          = fmt.Errorf("user: %w: id is required", errs.ErrValidation)
	ErrEmailRequired       = fmt.Errorf("user: %w: email is required", errs.ErrValidation)
	ErrPasswordHashMissing = fmt.Errorf("user: %w: password hash is required", errs.ErrValidation)
	ErrNameRequired        = fmt.Errorf("user: %w: name is required", errs.ErrValidation)
	ErrInvalidRole         = fmt.Errorf("user: %w: invalid role", errs.ErrValidation)
	ErrEmailAlreadyUsed    = fmt.Errorf("user: %w: email already used", errs.ErrConflict)
	ErrNotFound            = fmt.Errorf("user: %w", errs.ErrNotFound)
	ErrNotOwner            = fmt.Errorf("user: %w: user did not register as an owner", errs.ErrValidation)
)

type ID string

type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Roles        []Role
	// OwnerApproved is set by an admin; owners act as owners only once approved.
	OwnerApproved bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	// Save inserts or updates with compare-and-swap on Version. A second
	// user with the same email fails with ErrEmailAlreadyUsed.
	Save(ctx context.Context, user *User) error
	Delete(ctx context.Context, user *User) error
	List(ctx context.Context) ([]*User, error)
}

type CreateParams struct {
	ID           ID
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	email := normalizeEmail(params.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	roles, err := normalizeRoles(params.Roles)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		roles = []Role{RoleRenter}
	}
	now := params.CreatedAt.UTC()
	return &User{
		ID:           ID(id),
		Email:        email,
		Name:         name,
		Phone:        strings.TrimSpace(params.Phone),
		PasswordHash: params.PasswordHash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) HasRole(role Role) bool {
	for _, current := range u.Roles {
		if current == role {
			return true
		}
	}
	return false
}

// ApproveOwner grants the owner capability. Approving twice is a no-op.
func (u *User) ApproveOwner(by ID, now time.Time) error {
	if !u.HasRole(RoleOwner) {
		return ErrNotOwner
	}
	if u.OwnerApproved {
		return nil
	}
	u.OwnerApproved = true
	u.UpdatedAt = now.UTC()
	u.Record(OwnerApproved{UserID: u.ID, ApprovedBy: by, At: u.UpdatedAt})
	return nil
}

// MarkDeleted records the deletion event; the repository performs the removal.
func (u *User) MarkDeleted(by ID, listingsRemoved, bookingsRemoved int, now time.Time) {
	u.Record(Deleted{UserID: u.ID, DeletedBy: by, ListingsRemoved: listingsRemoved, BookingsRemoved: bookingsRemoved, At: now.UTC()})
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Roles = append([]Role(nil), u.Roles...)
	out.Recorder = events.Recorder{}
	return &out
}

func ParseRole(raw string) (Role, error) {
	switch role := Role(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleRenter, RoleOwner, RoleAdmin:
		return role, nil
	}
	return "", ErrInvalidRole
}

func normalizeRoles(roles []Role) ([]Role, error) {
	seen := make(map[Role]struct{}, len(roles))
	normalized := make([]Role, 0, len(roles))
	for _, raw := range roles {
		role, err := ParseRole(string(raw))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
