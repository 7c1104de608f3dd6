package listings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/shared/events"
)

var (
	ErrNotFound            = fmt.Errorf("listings: %w", errs.ErrNotFound)
	ErrTitleRequired       = fmt.Errorf("listings: %w: title is required", errs.ErrValidation)
	ErrOwnerRequired       = fmt.Errorf("listings: %w: owner is required", errs.ErrValidation)
	ErrInvalidCategory     = fmt.Errorf("listings: %w: unknown category", errs.ErrValidation)
	ErrInvalidTransaction  = fmt.Errorf("listings: %w: unknown transaction type", errs.ErrValidation)
	ErrNegativePrice       = fmt.Errorf("listings: %w: price must be non-negative", errs.ErrValidation)
	ErrAddressRequired     = fmt.Errorf("listings: %w: street, city and country are required", errs.ErrValidation)
	ErrInvalidExtras       = fmt.Errorf("listings: %w: rooms and area must be non-negative", errs.ErrValidation)
	ErrAvailabilityManaged = fmt.Errorf("listings: %w: availability is derived from bookings and cannot be set", errs.ErrValidation)
	errIDRequired          = fmt.Errorf("listings: %w: id is required", errs.ErrValidation)
)

type ListingID string
type OwnerID string

type Category string

const (
	CategoryApartment Category = "apartment"
	CategoryHouse     Category = "house"
	CategoryRoom      Category = "room"
	CategoryStudio    Category = "studio"
	CategoryVilla     Category = "villa"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryApartment, CategoryHouse, CategoryRoom, CategoryStudio, CategoryVilla:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionRent TransactionType = "rent"
	TransactionSale TransactionType = "sale"
)

func (t TransactionType) Valid() bool {
	return t == TransactionRent || t == TransactionSale
}

type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

func (a Address) normalized() Address {
	return Address{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}

// Extras holds the free-form attributes shown on the listing page.
type Extras struct {
	Bedrooms         int
	Bathrooms        int
	AreaSquareMeters float64
	Parking          bool
	Furnished        bool
	PetsAllowed      bool
	Description      string
	Amenities        []string
}

func (e Extras) valid() bool {
	return e.Bedrooms >= 0 && e.Bathrooms >= 0 && e.AreaSquareMeters >= 0
}

func (e Extras) clone() Extras {
	e.Description = strings.TrimSpace(e.Description)
	e.Amenities = append([]string(nil), e.Amenities...)
	return e
}

type Contact struct {
	Phone string
	Email string
}

// Listing is a property advertisement. Available is derived from the booking
// ledger and only changes through SyncAvailability.
type Listing struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Category    Category
	Transaction TransactionType
	PriceCents  int64
	Address     Address
	Extras      Extras
	Contact     Contact
	Available   bool
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// Save inserts or updates the listing. It fails with errs.ErrConcurrentUpdate
	// when the stored version differs from listing.Version and bumps Version on success.
	Save(ctx context.Context, listing *Listing) error
	// Delete removes the listing if its stored version still equals listing.Version.
	Delete(ctx context.Context, listing *Listing) error
	ListByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type CreateParams struct {
	ID          ListingID
	Owner       OwnerID
	Title       string
	Category    Category
	Transaction TransactionType
	PriceCents  int64
	Address     Address
	Extras      Extras
	Contact     Contact
	Now         time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	listing := &Listing{
		ID:        params.ID,
		Owner:     params.Owner,
		Available: true,
		CreatedAt: params.Now.UTC(),
		UpdatedAt: params.Now.UTC(),
	}
	err := listing.assign(params.Title, params.Category, params.Transaction, params.PriceCents, params.Address, params.Extras, params.Contact)
	if err != nil {
		return nil, err
	}
	listing.Record(ListingCreated{ListingID: listing.ID, Owner: listing.Owner, At: listing.CreatedAt})
	return listing, nil
}

// Patch is a partial update requested by the owner. Nil fields are left
// untouched. Available exists only so a client attempt to set it is rejected.
type Patch struct {
	Title       *string
	Category    *Category
	Transaction *TransactionType
	PriceCents  *int64
	Address     *Address
	Extras      *Extras
	Contact     *Contact
	Available   *bool
}

func (l *Listing) ApplyPatch(p Patch, now time.Time) error {
	if p.Available != nil {
		return ErrAvailabilityManaged
	}
	title, category, transaction, price := l.Title, l.Category, l.Transaction, l.PriceCents
	address, extras, contact := l.Address, l.Extras, l.Contact
	if p.Title != nil {
		title = *p.Title
	}
	if p.Category != nil {
		category = *p.Category
	}
	if p.Transaction != nil {
		transaction = *p.Transaction
	}
	if p.PriceCents != nil {
		price = *p.PriceCents
	}
	if p.Address != nil {
		address = *p.Address
	}
	if p.Extras != nil {
		extras = *p.Extras
	}
	if p.Contact != nil {
		contact = *p.Contact
	}
	if err := l.assign(title, category, transaction, price, address, extras, contact); err != nil {
		return err
	}
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdated{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// SyncAvailability sets the derived flag and reports whether it changed.
func (l *Listing) SyncAvailability(available bool, now time.Time) bool {
	if l.Available == available {
		return false
	}
	l.Available = available
	l.UpdatedAt = now.UTC()
	l.Record(AvailabilityChanged{ListingID: l.ID, Available: available, At: l.UpdatedAt})
	return true
}

// MarkDeleted records the deletion event; the repository performs the removal.
func (l *Listing) MarkDeleted(by string, bookingsRemoved int, now time.Time) {
	l.Record(ListingDeleted{ListingID: l.ID, Owner: l.Owner, DeletedBy: by, BookingsRemoved: bookingsRemoved, At: now.UTC()})
}

func (l *Listing) assign(title string, category Category, transaction TransactionType, price int64, address Address, extras Extras, contact Contact) error {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		return ErrTitleRequired
	case !category.Valid():
		return ErrInvalidCategory
	case !transaction.Valid():
		return ErrInvalidTransaction
	case price < 0:
		return ErrNegativePrice
	case !address.Valid():
		return ErrAddressRequired
	case !extras.valid():
		return ErrInvalidExtras
	}
	l.Title = title
	l.Category = category
	l.Transaction = transaction
	l.PriceCents = price
	l.Address = address.normalized()
	l.Extras = extras.clone()
	l.Contact = Contact{Phone: strings.TrimSpace(contact.Phone), Email: strings.ToLower(strings.TrimSpace(contact.Email))}
	return nil
}

// Clone returns a deep copy without pending events.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	out := *l
	out.Recorder = events.Recorder{}
	out.Extras = l.Extras.clone()
	return &out
}
