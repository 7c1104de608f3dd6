package mongo

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, readError("listing by id", err, domainlistings.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

// Save inserts when Version is zero and otherwise replaces the document only
// if its version still matches.
func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	doc.Version = l.Version + 1
	if l.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return writeError("insert listing", err)
		}
		l.Version = doc.Version
		return nil
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": l.Version}, doc)
	if err != nil {
		return writeError("replace listing", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, l *domainlistings.Listing) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(l.ID), "version": l.Version})
	if err != nil {
		return writeError("delete listing", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	return nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"owner_id": string(owner)}, opts)
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	p := params.Normalized()
	filter := searchFilter(p)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, readError("count listings", err, nil)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(p.Offset)).
		SetLimit(int64(p.Limit))
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

func (r *ListingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, readError("find listings", err, nil)
	}
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, readError("decode listings", err, nil)
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func searchFilter(p domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if p.Category != "" {
		filter["category"] = string(p.Category)
	}
	price := bson.M{}
	if p.MinPriceCents > 0 {
		price["$gte"] = p.MinPriceCents
	}
	if p.MaxPriceCents > 0 {
		price["$lte"] = p.MaxPriceCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	if p.City != "" {
		filter["address.city"] = bson.M{"$regex": regexp.QuoteMeta(p.City), "$options": "i"}
	}
	if p.MinBedrooms > 0 {
		filter["extras.bedrooms"] = bson.M{"$gte": p.MinBedrooms}
	}
	if p.Owner != "" {
		filter["owner_id"] = string(p.Owner)
	}
	if !p.AnyAvailable && p.Available != nil {
		filter["available"] = *p.Available
	}
	return filter
}

type listingDocument struct {
	ID          string          `bson:"_id"`
	OwnerID     string          `bson:"owner_id"`
	Title       string          `bson:"title"`
	Category    string          `bson:"category"`
	Transaction string          `bson:"transaction"`
	PriceCents  int64           `bson:"price_cents"`
	Address     addressDocument `bson:"address"`
	Extras      extrasDocument  `bson:"extras"`
	Phone       string          `bson:"contact_phone,omitempty"`
	Email       string          `bson:"contact_email,omitempty"`
	Available   bool            `bson:"available"`
	CreatedAt   int64           `bson:"created_at"`
	UpdatedAt   int64           `bson:"updated_at"`
	Version     int64           `bson:"version"`
}

type addressDocument struct {
	Street  string `bson:"street"`
	City    string `bson:"city"`
	State   string `bson:"state,omitempty"`
	ZipCode string `bson:"zip_code,omitempty"`
	Country string `bson:"country"`
}

type extrasDocument struct {
	Bedrooms         int      `bson:"bedrooms"`
	Bathrooms        int      `bson:"bathrooms"`
	AreaSquareMeters float64  `bson:"area_sqm"`
	Parking          bool     `bson:"parking"`
	Furnished        bool     `bson:"furnished"`
	PetsAllowed      bool     `bson:"pets_allowed"`
	Description      string   `bson:"description,omitempty"`
	Amenities        []string `bson:"amenities,omitempty"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:          string(l.ID),
		OwnerID:     string(l.Owner),
		Title:       l.Title,
		Category:    string(l.Category),
		Transaction: string(l.Transaction),
		PriceCents:  l.PriceCents,
		Address: addressDocument{
			Street:  l.Address.Street,
			City:    l.Address.City,
			State:   l.Address.State,
			ZipCode: l.Address.ZipCode,
			Country: l.Address.Country,
		},
		Extras: extrasDocument{
			Bedrooms:         l.Extras.Bedrooms,
			Bathrooms:        l.Extras.Bathrooms,
			AreaSquareMeters: l.Extras.AreaSquareMeters,
			Parking:          l.Extras.Parking,
			Furnished:        l.Extras.Furnished,
			PetsAllowed:      l.Extras.PetsAllowed,
			Description:      l.Extras.Description,
			Amenities:        l.Extras.Amenities,
		},
		Phone:     l.Contact.Phone,
		Email:     l.Contact.Email,
		Available: l.Available,
		CreatedAt: millis(l.CreatedAt),
		UpdatedAt: millis(l.UpdatedAt),
		Version:   l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:          domainlistings.ListingID(d.ID),
		Owner:       domainlistings.OwnerID(d.OwnerID),
		Title:       d.Title,
		Category:    domainlistings.Category(d.Category),
		Transaction: domainlistings.TransactionType(d.Transaction),
		PriceCents:  d.PriceCents,
		Address: domainlistings.Address{
			Street:  d.Address.Street,
			City:    d.Address.City,
			State:   d.Address.State,
			ZipCode: d.Address.ZipCode,
			Country: d.Address.Country,
		},
		Extras: domainlistings.Extras{
			Bedrooms:         d.Extras.Bedrooms,
			Bathrooms:        d.Extras.Bathrooms,
			AreaSquareMeters: d.Extras.AreaSquareMeters,
			Parking:          d.Extras.Parking,
			Furnished:        d.Extras.Furnished,
			PetsAllowed:      d.Extras.PetsAllowed,
			Description:      d.Extras.Description,
			Amenities:        d.Extras.Amenities,
		},
		Contact:   domainlistings.Contact{Phone: d.Phone, Email: d.Email},
		Available: d.Available,
		CreatedAt: fromMillis(d.CreatedAt),
		UpdatedAt: fromMillis(d.UpdatedAt),
		Version:   d.Version,
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
