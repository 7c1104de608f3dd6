package memory

import (
	"context"
	"sort"
	"strings"

	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

type listingRepo struct{ u *Unit }

func (r listingRepo) ByID(_ context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var out *domainlistings.Listing
	err := r.u.read(func() error {
		l, ok := r.u.listings.lookup(listingOps, r.u.store.listings, id)
		if !ok {
			return domainlistings.ErrNotFound
		}
		out = l
		return nil
	})
	return out, err
}

func (r listingRepo) Save(_ context.Context, l *domainlistings.Listing) error {
	if l == nil || strings.TrimSpace(string(l.ID)) == "" {
		return errs.Validation("listing id is required")
	}
	return r.u.write(func() error {
		return r.u.listings.stage(listingOps, l.ID, l, false)
	})
}

func (r listingRepo) Delete(_ context.Context, l *domainlistings.Listing) error {
	if l == nil {
		return domainlistings.ErrNotFound
	}
	return r.u.write(func() error {
		return r.u.listings.stage(listingOps, l.ID, l, true)
	})
}

func (r listingRepo) ListByOwner(_ context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	var out []*domainlistings.Listing
	err := r.u.read(func() error {
		out = r.u.listings.overlay(listingOps, r.u.store.listings, func(l *domainlistings.Listing) bool {
			return l.Owner == owner
		})
		return nil
	})
	sortListings(out)
	return out, err
}

func (r listingRepo) Search(_ context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	opts := params.Normalized()
	var matched []*domainlistings.Listing
	err := r.u.read(func() error {
		matched = r.u.listings.overlay(listingOps, r.u.store.listings, opts.Matches)
		return nil
	})
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	sortListings(matched)
	total := len(matched)
	start := min(opts.Offset, total)
	end := min(start+opts.Limit, total)
	return domainlistings.SearchResult{Items: matched[start:end], Total: total}, nil
}

func sortListings(items []*domainlistings.Listing) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var out *domainbooking.Booking
	err := r.u.read(func() error {
		b, ok := r.u.bookings.lookup(bookingOps, r.u.store.bookings, id)
		if !ok {
			return domainbooking.ErrNotFound
		}
		out = b
		return nil
	})
	return out, err
}

func (r bookingRepo) Save(_ context.Context, b *domainbooking.Booking) error {
	if b == nil || strings.TrimSpace(string(b.ID)) == "" {
		return domainbooking.ErrIDRequired
	}
	return r.u.write(func() error {
		return r.u.bookings.stage(bookingOps, b.ID, b, false)
	})
}

func (r bookingRepo) Delete(_ context.Context, b *domainbooking.Booking) error {
	if b == nil {
		return domainbooking.ErrNotFound
	}
	return r.u.write(func() error {
		return r.u.bookings.stage(bookingOps, b.ID, b, true)
	})
}

func (r bookingRepo) ListByListing(_ context.Context, id domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.ListingID == id })
}

func (r bookingRepo) ListByRenter(_ context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.RenterID == renterID })
}

func (r bookingRepo) ListByOwner(_ context.Context, owner domainlistings.OwnerID) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.OwnerID == owner })
}

func (r bookingRepo) List(_ context.Context) ([]*domainbooking.Booking, error) {
	return r.filter(func(*domainbooking.Booking) bool { return true })
}

func (r bookingRepo) FindPending(ctx context.Context, renterID string, listingID domainlistings.ListingID) (*domainbooking.Booking, error) {
	items, err := r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listingID && b.RenterID == renterID && b.Status == domainbooking.StatusPending
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domainbooking.ErrNotFound
	}
	return items[0], nil
}

func (r bookingRepo) filter(keep func(*domainbooking.Booking) bool) ([]*domainbooking.Booking, error) {
	var out []*domainbooking.Booking
	err := r.u.read(func() error {
		out = r.u.bookings.overlay(bookingOps, r.u.store.bookings, keep)
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

type userRepo struct{ u *Unit }

func (r userRepo) ByID(_ context.Context, id domainuser.ID) (*domainuser.User, error) {
	var out *domainuser.User
	err := r.u.read(func() error {
		usr, ok := r.u.users.lookup(userOps, r.u.store.users, id)
		if !ok {
			return domainuser.ErrNotFound
		}
		out = usr
		return nil
	})
	return out, err
}

func (r userRepo) ByEmail(_ context.Context, email string) (*domainuser.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *domainuser.User
	err := r.u.read(func() error {
		found := r.u.users.overlay(userOps, r.u.store.users, func(usr *domainuser.User) bool {
			return usr.Email == email
		})
		if len(found) == 0 {
			return domainuser.ErrNotFound
		}
		out = found[0]
		return nil
	})
	return out, err
}

func (r userRepo) Save(_ context.Context, usr *domainuser.User) error {
	if usr == nil || strings.TrimSpace(string(usr.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	if strings.TrimSpace(usr.Email) == "" {
		return domainuser.ErrEmailRequired
	}
	return r.u.write(func() error {
		r.u.store.mu.RLock()
		taken := r.u.users.overlay(userOps, r.u.store.users, func(other *domainuser.User) bool {
			return other.ID != usr.ID && other.Email == usr.Email
		})
		r.u.store.mu.RUnlock()
		if len(taken) > 0 {
			return domainuser.ErrEmailAlreadyUsed
		}
		return r.u.users.stage(userOps, usr.ID, usr, false)
	})
}

func (r userRepo) Delete(_ context.Context, usr *domainuser.User) error {
	if usr == nil {
		return domainuser.ErrNotFound
	}
	return r.u.write(func() error {
		return r.u.users.stage(userOps, usr.ID, usr, true)
	})
}

func (r userRepo) List(_ context.Context) ([]*domainuser.User, error) {
	var out []*domainuser.User
	err := r.u.read(func() error {
		out = r.u.users.overlay(userOps, r.u.store.users, func(*domainuser.User) bool { return true })
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

var (
	_ domainlistings.Repository = listingRepo{}
	_ domainbooking.Repository  = bookingRepo{}
	_ domainuser.Repository     = userRepo{}
)
