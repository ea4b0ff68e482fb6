// internal/repository/mongo_product.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mintcart/mintcart-backend/internal/models"
)

// productDocument keeps price as a string; decimal.Decimal has no bson codec.
type productDocument struct {
	ID              string    `bson:"_id"`
	ChainID         int64     `bson:"chain_id"`
	OwnerAddress    string    `bson:"owner_address"`
	Slug            string    `bson:"slug"`
	ContractAddress string    `bson:"contract"`
	Name            string    `bson:"name"`
	Description     string    `bson:"description"`
	TokenURI        string    `bson:"token_uri"`
	Price           string    `bson:"price"`
	Supply          int64     `bson:"supply"`
	Sold            int64     `bson:"sold"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toProductDocument(p *models.ProductRecord) productDocument {
	return productDocument{
		ID:              p.ID.String(),
		ChainID:         p.ChainID,
		OwnerAddress:    p.OwnerAddress,
		Slug:            p.Slug,
		ContractAddress: p.ContractAddress,
		Name:            p.Name,
		Description:     p.Description,
		TokenURI:        p.TokenURI,
		Price:           p.Price.String(),
		Supply:          int64(p.Supply),
		Sold:            int64(p.Sold),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (d productDocument) model() (models.ProductRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("invalid product id %q: %w", d.ID, err)
	}
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("invalid stored price %q: %w", d.Price, err)
	}

	p := models.ProductRecord{
		ChainID:         d.ChainID,
		OwnerAddress:    d.OwnerAddress,
		Slug:            d.Slug,
		ContractAddress: d.ContractAddress,
		Name:            d.Name,
		Description:     d.Description,
		TokenURI:        d.TokenURI,
		Price:           price,
		Supply:          uint64(d.Supply),
		Sold:            uint64(d.Sold),
	}
	p.ID = id
	p.CreatedAt = d.CreatedAt
	p.UpdatedAt = d.UpdatedAt
	return p, nil
}

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(collection *mongo.Collection) *MongoProductRepository {
	return &MongoProductRepository{collection: collection}
}

// EnsureIndexes creates the unique (chain_id, owner_address, slug) index.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chain_id", Value: 1}, {Key: "owner_address", Value: 1}, {Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_products_chain_owner_slug"),
	})
	return err
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.ProductRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, toProductDocument(product)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) FindBySlug(ctx context.Context, chainID int64, owner, slug string) (*models.ProductRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	filter := bson.M{"chain_id": chainID, "owner_address": owner, "slug": slug}

	var doc productDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	product, err := doc.model()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *MongoProductRepository) ListByOwner(ctx context.Context, chainID int64, owner string, page, limit int) ([]models.ProductRecord, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"chain_id": chainID, "owner_address": owner}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset(page, limit))).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]models.ProductRecord, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.model()
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}

	return products, total, nil
}
