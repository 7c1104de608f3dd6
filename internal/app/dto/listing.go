package dto

import (
	"time"

	domainlistings "leasehub/internal/domain/listings"
)

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Country string `json:"country" validate:"required"`
}

type Extras struct {
	Bedrooms         int      `json:"bedrooms" validate:"gte=0"`
	Bathrooms        int      `json:"bathrooms" validate:"gte=0"`
	AreaSquareMeters float64  `json:"area_sqm" validate:"gte=0"`
	Parking          bool     `json:"parking"`
	Furnished        bool     `json:"furnished"`
	PetsAllowed      bool     `json:"pets_allowed"`
	Description      string   `json:"description,omitempty"`
	Amenities        []string `json:"amenities,omitempty"`
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type Listing struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Transaction string    `json:"transaction"`
	PriceCents  int64     `json:"price_cents"`
	Address     Address   `json:"address"`
	Extras      Extras    `json:"extras"`
	Contact     Contact   `json:"contact"`
	Available   bool      `json:"available"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items  []Listing `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Category:    string(l.Category),
		Transaction: string(l.Transaction),
		PriceCents:  l.PriceCents,
		Address: Address{
			Street:  l.Address.Street,
			City:    l.Address.City,
			State:   l.Address.State,
			ZipCode: l.Address.ZipCode,
			Country: l.Address.Country,
		},
		Extras: Extras{
			Bedrooms:         l.Extras.Bedrooms,
			Bathrooms:        l.Extras.Bathrooms,
			AreaSquareMeters: l.Extras.AreaSquareMeters,
			Parking:          l.Extras.Parking,
			Furnished:        l.Extras.Furnished,
			PetsAllowed:      l.Extras.PetsAllowed,
			Description:      l.Extras.Description,
			Amenities:        append([]string(nil), l.Extras.Amenities...),
		},
		Contact:   Contact{Phone: l.Contact.Phone, Email: l.Contact.Email},
		Available: l.Available,
		Version:   l.Version,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func MapListings(items []*domainlistings.Listing) []Listing {
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		out = append(out, MapListing(l))
	}
	return out
}

func (a Address) Domain() domainlistings.Address {
	return domainlistings.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode, Country: a.Country}
}

func (e Extras) Domain() domainlistings.Extras {
	return domainlistings.Extras{
		Bedrooms:         e.Bedrooms,
		Bathrooms:        e.Bathrooms,
		AreaSquareMeters: e.AreaSquareMeters,
		Parking:          e.Parking,
		Furnished:        e.Furnished,
		PetsAllowed:      e.PetsAllowed,
		Description:      e.Description,
		Amenities:        append([]string(nil), e.Amenities...),
	}
}

func (c Contact) Domain() domainlistings.Contact {
	return domainlistings.Contact{Phone: c.Phone, Email: c.Email}
}
