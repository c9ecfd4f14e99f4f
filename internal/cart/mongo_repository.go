package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Prices are stored as decimal strings so snapshots round-trip exactly.
type lineDoc struct {
	ProductID string    `bson:"product_id"`
	Name      string    `bson:"name"`
	Price     string    `bson:"price"`
	Image     string    `bson:"image"`
	Scale     bool      `bson:"scale"`
	Quantity  int       `bson:"quantity"`
	AddedAt   time.Time `bson:"added_at"`
}

type cartDoc struct {
	UserID           string    `bson:"user_id"`
	Lines            []lineDoc `bson:"lines"`
	AppliedCheckouts []string  `bson:"applied_checkouts,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toDoc(c *domain.Cart) cartDoc {
	doc := cartDoc{
		UserID:           c.UserID,
		Lines:            make([]lineDoc, len(c.Lines)),
		AppliedCheckouts: c.AppliedCheckouts,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for i, l := range c.Lines {
		doc.Lines[i] = lineDoc{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.String(),
			Image:     l.Image,
			Scale:     l.Scale,
			Quantity:  l.Quantity,
			AddedAt:   l.AddedAt,
		}
	}
	return doc
}

func fromDoc(doc cartDoc) (*domain.Cart, error) {
	c := &domain.Cart{
		UserID:           doc.UserID,
		Lines:            make([]domain.CartLine, len(doc.Lines)),
		AppliedCheckouts: doc.AppliedCheckouts,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	for i, l := range doc.Lines {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for product %s: %w", l.Price, l.ProductID, err)
		}
		c.Lines[i] = domain.CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Image:     l.Image,
			Scale:     l.Scale,
			Quantity:  l.Quantity,
			AddedAt:   l.AddedAt,
		}
	}
	return c, nil
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *mongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var doc cartDoc

	filter := bson.M{"user_id": userID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("cart: get cart: %w", err)
	}

	return fromDoc(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	filter := bson.M{"user_id": cart.UserID}
	update := bson.M{"$set": toDoc(cart)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cart: upsert cart: %w", err)
	}
	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("cart: create indexes: %w", err)
	}
	return nil
}

// EnsureIndexes creates the carts indexes when repo is backed by MongoDB.
func EnsureIndexes(ctx context.Context, repo Repository) error {
	if m, ok := repo.(*mongoRepository); ok {
		return m.CreateIndexes(ctx)
	}
	return nil
}
