// Package memory keeps listings, bookings and users in process memory with
// the same optimistic-concurrency contract as the Mongo store: units stage
// their writes and apply them all or none at commit, failing with
// errs.ErrConcurrentUpdate when another unit committed a touched row first.
package memory

import (
	"sync"

	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	domainuser "leasehub/internal/domain/user"
)

// Store is the committed state shared by every unit of work.
type Store struct {
	mu       sync.RWMutex
	listings map[domainlistings.ListingID]*domainlistings.Listing
	bookings map[domainbooking.BookingID]*domainbooking.Booking
	users    map[domainuser.ID]*domainuser.User
}

func NewStore() *Store {
	return &Store{
		listings: make(map[domainlistings.ListingID]*domainlistings.Listing),
		bookings: make(map[domainbooking.BookingID]*domainbooking.Booking),
		users:    make(map[domainuser.ID]*domainuser.User),
	}
}

var (
	listingOps = versioned[*domainlistings.Listing]{
		clone:      (*domainlistings.Listing).Clone,
		version:    func(l *domainlistings.Listing) int64 { return l.Version },
		setVersion: func(l *domainlistings.Listing, v int64) { l.Version = v },
	}
	bookingOps = versioned[*domainbooking.Booking]{
		clone:      (*domainbooking.Booking).Clone,
		version:    func(b *domainbooking.Booking) int64 { return b.Version },
		setVersion: func(b *domainbooking.Booking, v int64) { b.Version = v },
	}
	userOps = versioned[*domainuser.User]{
		clone:      (*domainuser.User).Clone,
		version:    func(u *domainuser.User) int64 { return u.Version },
		setVersion: func(u *domainuser.User, v int64) { u.Version = v },
	}
)
