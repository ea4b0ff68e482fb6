// internal/repository/mongo_intent.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mintcart/mintcart-backend/internal/models"
)

type intentDocument struct {
	ID              string     `bson:"_id"`
	ChainID         int64      `bson:"chain_id"`
	OwnerAddress    string     `bson:"owner_address"`
	Slug            string     `bson:"slug"`
	Status          string     `bson:"status"`
	Draft           []byte     `bson:"draft,omitempty"`
	TokenURI        string     `bson:"token_uri,omitempty"`
	FactoryAddress  string     `bson:"factory_address,omitempty"`
	TxHashes        []string   `bson:"tx_hashes"`
	ContractAddress string     `bson:"contract_address,omitempty"`
	FailureKind     string     `bson:"failure_kind,omitempty"`
	LastError       string     `bson:"last_error,omitempty"`
	Attempts        int        `bson:"attempts"`
	LastAttemptAt   *time.Time `bson:"last_attempt_at,omitempty"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toIntentDocument(i *models.CreationIntent) intentDocument {
	return intentDocument{
		ID:              i.ID.String(),
		ChainID:         i.ChainID,
		OwnerAddress:    i.OwnerAddress,
		Slug:            i.Slug,
		Status:          string(i.Status),
		Draft:           []byte(i.Draft),
		TokenURI:        i.TokenURI,
		FactoryAddress:  i.FactoryAddress,
		TxHashes:        []string(i.TxHashes),
		ContractAddress: i.ContractAddress,
		FailureKind:     i.FailureKind,
		LastError:       i.LastError,
		Attempts:        i.Attempts,
		LastAttemptAt:   i.LastAttemptAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func (d intentDocument) model() (models.CreationIntent, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.CreationIntent{}, fmt.Errorf("invalid intent id %q: %w", d.ID, err)
	}

	i := models.CreationIntent{
		ChainID:         d.ChainID,
		OwnerAddress:    d.OwnerAddress,
		Slug:            d.Slug,
		Status:          models.IntentStatus(d.Status),
		Draft:           d.Draft,
		TokenURI:        d.TokenURI,
		FactoryAddress:  d.FactoryAddress,
		TxHashes:        d.TxHashes,
		ContractAddress: d.ContractAddress,
		FailureKind:     d.FailureKind,
		LastError:       d.LastError,
		Attempts:        d.Attempts,
		LastAttemptAt:   d.LastAttemptAt,
	}
	i.ID = id
	i.CreatedAt = d.CreatedAt
	i.UpdatedAt = d.UpdatedAt
	return i, nil
}

type MongoIntentRepository struct {
	collection *mongo.Collection
}

func NewMongoIntentRepository(collection *mongo.Collection) *MongoIntentRepository {
	return &MongoIntentRepository{collection: collection}
}

func (r *MongoIntentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "chain_id", Value: 1}, {Key: "owner_address", Value: 1}, {Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_intents_chain_owner_slug"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}},
			Options: options.Index().SetName("idx_intents_status_updated"),
		},
	})
	return err
}

func (r *MongoIntentRepository) FindOrCreate(ctx context.Context, intent *models.CreationIntent) (*models.CreationIntent, bool, error) {
	existing, err := r.find(ctx, intent.ChainID, intent.OwnerAddress, intent.Slug)
	if err == nil {
		return existing, false, nil
	}
	if err != ErrNotFound {
		return nil, false, err
	}

	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	now := time.Now()
	intent.CreatedAt = now
	intent.UpdatedAt = now

	insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(insertCtx, toIntentDocument(intent)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, err := r.find(ctx, intent.ChainID, intent.OwnerAddress, intent.Slug)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create intent: %w", err)
	}

	return intent, true, nil
}

func (r *MongoIntentRepository) find(ctx context.Context, chainID int64, owner, slug string) (*models.CreationIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc intentDocument
	err := r.collection.FindOne(ctx, bson.M{"chain_id": chainID, "owner_address": owner, "slug": slug}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	intent, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *MongoIntentRepository) Save(ctx context.Context, intent *models.CreationIntent) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	intent.UpdatedAt = time.Now()
	doc := toIntentDocument(intent)

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save intent: %w", err)
	}
	return nil
}

func (r *MongoIntentRepository) ListByOwner(ctx context.Context, chainID int64, owner string) ([]models.CreationIntent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.list(ctx, bson.M{"chain_id": chainID, "owner_address": owner}, opts)
}

func (r *MongoIntentRepository) ListStale(ctx context.Context, statuses []models.IntentStatus, updatedBefore time.Time, limit int) ([]models.CreationIntent, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	filter := bson.M{
		"status":     bson.M{"$in": values},
		"updated_at": bson.M{"$lt": updatedBefore},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}).SetLimit(int64(limit))
	return r.list(ctx, filter, opts)
}

func (r *MongoIntentRepository) list(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.CreationIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list intents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []intentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode intents: %w", err)
	}

	intents := make([]models.CreationIntent, 0, len(docs))
	for _, doc := range docs {
		intent, err := doc.model()
		if err != nil {
			return nil, err
		}
		intents = append(intents, intent)
	}
	return intents, nil
}
