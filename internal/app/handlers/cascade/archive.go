package cascade

import (
	"context"
	"fmt"
	"time"

	"leasehub/internal/app/dto"
	domainlistings "leasehub/internal/domain/listings"
)

// Archiver stores a snapshot of a listing before it is removed.
type Archiver interface {
	Archive(ctx context.Context, key string, snapshot any) error
}

type ListingSnapshot struct {
	Listing   dto.Listing   `json:"listing"`
	Bookings  []dto.Booking `json:"bookings"`
	DeletedBy string        `json:"deleted_by"`
	DeletedAt time.Time     `json:"deleted_at"`
}

func archiveKey(id domainlistings.ListingID, at time.Time) string {
	return fmt.Sprintf("listings/%s/%d.json", id, at.UnixMilli())
}
