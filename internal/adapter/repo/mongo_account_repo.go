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

const accountsCollection = "accounts"

type accountDoc struct {
	ID                 primitive.ObjectID `bson:"_id"`
	Kind               string             `bson:"kind"`
	Email              string             `bson:"email"`
	PasswordHash       string             `bson:"password_hash"`
	Mobile             string             `bson:"mobile,omitempty"`
	FirstName          string             `bson:"first_name,omitempty"`
	LastName           string             `bson:"last_name,omitempty"`
	Name               string             `bson:"name,omitempty"`
	RegistrationNumber string             `bson:"registration_number,omitempty"`
	Address            string             `bson:"address,omitempty"`
	ItemsAccepted      []string           `bson:"items_accepted,omitempty"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:                 d.ID.Hex(),
		Kind:               domain.AccountKind(d.Kind),
		Email:              d.Email,
		PasswordHash:       d.PasswordHash,
		Mobile:             d.Mobile,
		FirstName:          d.FirstName,
		LastName:           d.LastName,
		Name:               d.Name,
		RegistrationNumber: d.RegistrationNumber,
		Address:            d.Address,
		ItemsAccepted:      d.ItemsAccepted,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

// AccountRepositoryMongo keeps donors and NGOs in one collection keyed by a
// unique email index.
type AccountRepositoryMongo struct {
	coll *mongo.Collection
}

func NewMongoAccountRepository(db *mongo.Database) *AccountRepositoryMongo {
	return &AccountRepositoryMongo{coll: db.Collection(accountsCollection)}
}

// EnsureIndexes creates the unique email index.
func (r *AccountRepositoryMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("accounts_email_key"),
	})
	return err
}

func (r *AccountRepositoryMongo) Create(ctx context.Context, account *domain.Account) error {
	oid := primitive.NewObjectID()
	if account.ID != "" {
		parsed, err := primitive.ObjectIDFromHex(account.ID)
		if err != nil {
			return fmt.Errorf("%w: account id must be an ObjectID", domain.ErrValidation)
		}
		oid = parsed
	}
	now := time.Now().UTC()
	doc := accountDoc{
		ID:                 oid,
		Kind:               string(account.Kind),
		Email:              domain.NormalizeEmail(account.Email),
		PasswordHash:       account.PasswordHash,
		Mobile:             account.Mobile,
		FirstName:          account.FirstName,
		LastName:           account.LastName,
		Name:               account.Name,
		RegistrationNumber: account.RegistrationNumber,
		Address:            account.Address,
		ItemsAccepted:      account.ItemsAccepted,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	account.ID = oid.Hex()
	account.Email = doc.Email
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (r *AccountRepositoryMongo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepositoryMongo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *AccountRepositoryMongo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"password_hash": hash, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepositoryMongo) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

var _ domain.AccountRepository = (*AccountRepositoryMongo)(nil)
