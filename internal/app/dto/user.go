package dto

import (
	"time"

	domainuser "leasehub/internal/domain/user"
)

type UserProfile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Roles         []string  `json:"roles"`
	OwnerApproved bool      `json:"owner_approved"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UserCollection struct {
	Items []UserProfile `json:"items"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

// DeleteUserResult reports what a user deletion removed.
type DeleteUserResult struct {
	UserID           string   `json:"user_id"`
	ListingsRemoved  int      `json:"listings_removed"`
	BookingsRemoved  int      `json:"bookings_removed"`
	ListingsRestored []string `json:"listings_restored,omitempty"`
}

type DeleteListingResult struct {
	ListingID       string `json:"listing_id"`
	BookingsRemoved int    `json:"bookings_removed"`
	ArchiveKey      string `json:"archive_key,omitempty"`
}

func MapUserProfile(user *domainuser.User) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, string(role))
	}
	return UserProfile{
		ID:            string(user.ID),
		Email:         user.Email,
		Name:          user.Name,
		Phone:         user.Phone,
		Roles:         roles,
		OwnerApproved: user.OwnerApproved,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{User: MapUserProfile(user), Token: token}
}
