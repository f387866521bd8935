package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"donationhub/internal/domain"
)

const donationsCollection = "donations"

type donationDoc struct {
	ID              primitive.ObjectID  `bson:"_id"`
	DonorID         primitive.ObjectID  `bson:"donor_id"`
	NGOID           *primitive.ObjectID `bson:"ngo_id"`
	Items           []itemDoc           `bson:"items"`
	PickupAddress   string              `bson:"pickup_address"`
	PickupOption    string              `bson:"pickup_option"`
	PickupDate      *time.Time          `bson:"pickup_date,omitempty"`
	PickupTime      string              `bson:"pickup_time,omitempty"`
	Notes           string              `bson:"notes,omitempty"`
	Status          string              `bson:"status"`
	RejectionReason *string             `bson:"rejection_reason,omitempty"`
	CompletedAt     *time.Time          `bson:"completed_at,omitempty"`
	CreatedAt       time.Time           `bson:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at"`
}

func (d donationDoc) toDomain() domain.Donation {
	out := domain.Donation{
		ID:              d.ID.Hex(),
		DonorID:         d.DonorID.Hex(),
		Items:           fromItemDocs(d.Items),
		PickupAddress:   d.PickupAddress,
		Pickup:          domain.Pickup{Option: domain.PickupOption(d.PickupOption), Time: d.PickupTime},
		Notes:           d.Notes,
		Status:          domain.DonationStatus(d.Status),
		RejectionReason: derefString(d.RejectionReason),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.NGOID != nil {
		out.NGOID = d.NGOID.Hex()
	}
	if d.PickupDate != nil {
		day := d.PickupDate.UTC()
		out.Pickup.Date = &day
	}
	if d.CompletedAt != nil {
		at := d.CompletedAt.UTC()
		out.CompletedAt = &at
	}
	return out
}

// DonationRepositoryMongo stores donations as documents with embedded items.
type DonationRepositoryMongo struct {
	coll *mongo.Collection
}

func NewMongoDonationRepository(db *mongo.Database) *DonationRepositoryMongo {
	return &DonationRepositoryMongo{coll: db.Collection(donationsCollection)}
}

// EnsureIndexes creates the dashboard lookup indexes.
func (r *DonationRepositoryMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "ngo_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *DonationRepositoryMongo) Create(ctx context.Context, donation *domain.Donation) error {
	donorID, err := primitive.ObjectIDFromHex(donation.DonorID)
	if err != nil {
		return fmt.Errorf("%w: donor id must be an ObjectID", domain.ErrValidation)
	}
	now := time.Now().UTC()
	doc := donationDoc{
		ID:            primitive.NewObjectID(),
		DonorID:       donorID,
		Items:         toItemDocs(donation.Items),
		PickupAddress: donation.PickupAddress,
		PickupOption:  string(donation.Pickup.Option),
		PickupDate:    donation.Pickup.Date,
		PickupTime:    donation.Pickup.Time,
		Notes:         donation.Notes,
		Status:        string(domain.DonationStatusPending),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	donation.ID = doc.ID.Hex()
	donation.Status = domain.DonationStatusPending
	donation.CreatedAt = now
	donation.UpdatedAt = now
	return nil
}

func (r *DonationRepositoryMongo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	var doc donationDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	d := doc.toDomain()
	return &d, nil
}

func (r *DonationRepositoryMongo) List(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	query, err := mongoDonationFilter(filter)
	if err != nil {
		return nil, err
	}
	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []domain.Donation
	for cur.Next(ctx) {
		var doc donationDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyTransition uses FindOneAndUpdate so the status check and the write are
// a single atomic operation on the document.
func (r *DonationRepositoryMongo) ApplyTransition(ctx context.Context, id string, t domain.Transition) (*domain.Donation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	ngoID, err := primitive.ObjectIDFromHex(t.NGOID)
	if err != nil {
		return nil, fmt.Errorf("%w: ngo id must be an ObjectID", domain.ErrValidation)
	}

	filter := bson.M{
		"_id":    oid,
		"status": string(t.From),
		"$or": bson.A{
			bson.M{"ngo_id": nil},
			bson.M{"ngo_id": ngoID},
		},
	}
	set := bson.M{
		"status":     string(t.To),
		"ngo_id":     ngoID,
		"updated_at": t.At,
	}
	if t.To == domain.DonationStatusRejected {
		set["rejection_reason"] = t.RejectionReason
	}
	if t.To == domain.DonationStatusCompleted && t.CompletedAt != nil {
		set["completed_at"] = *t.CompletedAt
	}

	var doc donationDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("transition donation: %w", err)
	}
	d := doc.toDomain()
	return &d, nil
}

func mongoDonationFilter(f domain.DonationFilter) (bson.M, error) {
	query := bson.M{}
	if f.DonorID != "" {
		oid, err := primitive.ObjectIDFromHex(f.DonorID)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		query["donor_id"] = oid
	}
	if f.NGOID != "" {
		oid, err := primitive.ObjectIDFromHex(f.NGOID)
		if err != nil {
			return nil, domain.ErrNotFound
		}
		if f.IncludeOpen {
			query["$or"] = bson.A{
				bson.M{"ngo_id": oid},
				bson.M{"status": string(domain.DonationStatusPending), "ngo_id": nil},
			}
		} else {
			query["ngo_id"] = oid
		}
	}
	if f.Status != "" {
		query["status"] = string(f.Status)
	}
	return query, nil
}

var _ domain.DonationRepository = (*DonationRepositoryMongo)(nil)
