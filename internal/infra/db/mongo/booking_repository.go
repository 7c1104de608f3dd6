package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		return nil, readError("booking by id", err, domainbooking.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if b.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			return writeError("insert booking", err)
		}
		b.Version = doc.Version
		return nil
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": b.Version}, doc)
	if err != nil {
		return writeError("replace booking", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, b *domainbooking.Booking) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(b.ID), "version": b.Version})
	if err != nil {
		return writeError("delete booking", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	return nil
}

func (r *BookingRepository) ListByListing(ctx context.Context, id domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"listing_id": string(id)})
}

func (r *BookingRepository) ListByRenter(ctx context.Context, renterID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"renter_id": renterID})
}

func (r *BookingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"owner_id": string(owner)})
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{})
}

func (r *BookingRepository) FindPending(ctx context.Context, renterID string, listingID domainlistings.ListingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	filter := bson.M{"renter_id": renterID, "listing_id": string(listingID), "status": string(domainbooking.StatusPending)}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, readError("pending booking", err, domainbooking.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, readError("find bookings", err, nil)
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, readError("decode bookings", err, nil)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

type bookingDocument struct {
	ID           string `bson:"_id"`
	ListingID    string `bson:"listing_id"`
	RenterID     string `bson:"renter_id"`
	OwnerID      string `bson:"owner_id"`
	Status       string `bson:"status"`
	ContactName  string `bson:"contact_name"`
	ContactPhone string `bson:"contact_phone,omitempty"`
	ContactEmail string `bson:"contact_email,omitempty"`
	Message      string `bson:"message,omitempty"`
	MoveInDate   int64  `bson:"move_in_date"`
	LeaseMonths  int    `bson:"lease_months"`
	Reason       string `bson:"reason,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
	Version      int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:           string(b.ID),
		ListingID:    string(b.ListingID),
		RenterID:     b.RenterID,
		OwnerID:      string(b.OwnerID),
		Status:       string(b.Status),
		ContactName:  b.Contact.Name,
		ContactPhone: b.Contact.Phone,
		ContactEmail: b.Contact.Email,
		Message:      b.Message,
		MoveInDate:   millis(b.MoveInDate),
		LeaseMonths:  b.LeaseMonths,
		Reason:       b.Reason,
		CreatedAt:    millis(b.CreatedAt),
		UpdatedAt:    millis(b.UpdatedAt),
		Version:      b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		ListingID:   domainlistings.ListingID(d.ListingID),
		RenterID:    d.RenterID,
		OwnerID:     domainlistings.OwnerID(d.OwnerID),
		Status:      domainbooking.Status(d.Status),
		Contact:     domainbooking.Contact{Name: d.ContactName, Phone: d.ContactPhone, Email: d.ContactEmail},
		Message:     d.Message,
		MoveInDate:  fromMillis(d.MoveInDate),
		LeaseMonths: d.LeaseMonths,
		Reason:      d.Reason,
		CreatedAt:   fromMillis(d.CreatedAt),
		UpdatedAt:   fromMillis(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
