package listings

import (
	"context"
	"strings"

	"leasehub/internal/app/access"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	domainlistings "leasehub/internal/domain/listings"
)

const (
	searchCatalogKey     = "listings.catalog"
	getListingKey        = "listings.get"
	listOwnerListingsKey = "listings.list_owner"
	listAllListingsKey   = "listings.list_all"
)

// SearchCatalogQuery is the public catalog filter. Only available listings
// are returned unless Available is set explicitly.
type SearchCatalogQuery struct {
	Category      string `form:"category" json:"category" validate:"omitempty,oneof=apartment house room studio villa"`
	City          string `form:"city" json:"city"`
	MinPriceCents int64  `form:"min_price" json:"min_price" validate:"gte=0"`
	MaxPriceCents int64  `form:"max_price" json:"max_price" validate:"gte=0"`
	MinBedrooms   int    `form:"bedrooms" json:"bedrooms" validate:"gte=0"`
	Available     *bool  `form:"available" json:"available,omitempty"`
	Limit         int    `form:"limit" json:"limit" validate:"gte=0,lte=200"`
	Offset        int    `form:"offset" json:"offset" validate:"gte=0"`
}

func (q SearchCatalogQuery) Key() string { return searchCatalogKey }

func (q SearchCatalogQuery) params() domainlistings.SearchParams {
	return domainlistings.SearchParams{
		Category:      domainlistings.Category(strings.ToLower(strings.TrimSpace(q.Category))),
		City:          q.City,
		MinPriceCents: q.MinPriceCents,
		MaxPriceCents: q.MaxPriceCents,
		MinBedrooms:   q.MinBedrooms,
		Available:     q.Available,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}.Normalized()
}

type GetListingQuery struct {
	ListingID string `json:"listing_id" validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

type ListOwnerListingsQuery struct {
	Identity access.Identity `json:"-"`
}

func (q ListOwnerListingsQuery) Key() string                 { return listOwnerListingsKey }
func (q ListOwnerListingsQuery) Actor() access.Identity      { return q.Identity }
func (q ListOwnerListingsQuery) Requires() access.Capability { return access.CapabilityOwner }

// ListAllListingsQuery returns every listing regardless of availability.
type ListAllListingsQuery struct {
	Identity access.Identity `json:"-"`
	Limit    int             `form:"limit" json:"limit" validate:"gte=0,lte=200"`
	Offset   int             `form:"offset" json:"offset" validate:"gte=0"`
}

func (q ListAllListingsQuery) Key() string                 { return listAllListingsKey }
func (q ListAllListingsQuery) Actor() access.Identity      { return q.Identity }
func (q ListAllListingsQuery) Requires() access.Capability { return access.CapabilityAdmin }

// Queries serves listing reads from a read-only unit of work.
type Queries struct {
	UoWFactory uow.UoWFactory
}

func (h *Queries) Search(ctx context.Context, q SearchCatalogQuery) (dto.ListingCollection, error) {
	return h.search(ctx, q.params())
}

func (h *Queries) ListAll(ctx context.Context, q ListAllListingsQuery) (dto.ListingCollection, error) {
	return h.search(ctx, domainlistings.SearchParams{AnyAvailable: true, Limit: q.Limit, Offset: q.Offset}.Normalized())
}

func (h *Queries) Get(ctx context.Context, q GetListingQuery) (*dto.Listing, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer release()

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(strings.TrimSpace(q.ListingID)))
	if err != nil {
		return nil, err
	}
	out := dto.MapListing(listing)
	return &out, nil
}

func (h *Queries) ListForOwner(ctx context.Context, q ListOwnerListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer release()

	items, err := unit.Listings().ListByOwner(execCtx, domainlistings.OwnerID(q.Identity.UserID))
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.ListingCollection{Items: dto.MapListings(items), Total: len(items)}, nil
}

func (h *Queries) search(ctx context.Context, params domainlistings.SearchParams) (dto.ListingCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer release()

	result, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.ListingCollection{
		Items:  dto.MapListings(result.Items),
		Total:  result.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

func (h *Queries) SearchHandler() queries.Handler[SearchCatalogQuery, dto.ListingCollection] {
	return queries.HandlerFunc[SearchCatalogQuery, dto.ListingCollection](h.Search)
}

func (h *Queries) GetHandler() queries.Handler[GetListingQuery, *dto.Listing] {
	return queries.HandlerFunc[GetListingQuery, *dto.Listing](h.Get)
}

func (h *Queries) OwnerHandler() queries.Handler[ListOwnerListingsQuery, dto.ListingCollection] {
	return queries.HandlerFunc[ListOwnerListingsQuery, dto.ListingCollection](h.ListForOwner)
}

func (h *Queries) AllHandler() queries.Handler[ListAllListingsQuery, dto.ListingCollection] {
	return queries.HandlerFunc[ListAllListingsQuery, dto.ListingCollection](h.ListAll)
}

var _ access.Restricted = ListOwnerListingsQuery{}
