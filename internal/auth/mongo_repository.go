package auth

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for MongoDB operator repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. interactions
	Collection string // e.g. operators
}

// MongoOperatorRepo implements OperatorRepo on MongoDB backend.
type MongoOperatorRepo struct {
	client     *mongo.Client
	collection *mongo.Collection
	ctxTimeout time.Duration
}

type operatorDoc struct {
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password_hash"`
	IsAdmin      bool      `bson:"is_admin"`
	CreatedAt    time.Time `bson:"created_at"`
	LastLogin    time.Time `bson:"last_login"`
}

// NewMongoOperatorRepo establishes connection and returns repository.
func NewMongoOperatorRepo(ctx context.Context, cfg MongoConfig) (*MongoOperatorRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "interactions"
	}
	if cfg.Collection == "" {
		cfg.Collection = "operators"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	repo := &MongoOperatorRepo{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		ctxTimeout: 5 * time.Second,
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (m *MongoOperatorRepo) ensureIndexes(ctx context.Context) error {
	nameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	}
	_, err := m.collection.Indexes().CreateOne(ctx, nameIdx)
	return err
}

// Get implements OperatorRepo.
func (m *MongoOperatorRepo) Get(ctx context.Context, name string) (*Operator, error) {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	var doc operatorDoc
	err := m.collection.FindOne(ctx, bson.M{"name": normalizeName(name)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOperatorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Operator{
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		IsAdmin:      doc.IsAdmin,
		CreatedAt:    doc.CreatedAt,
		LastLogin:    doc.LastLogin,
	}, nil
}

// Create inserts a new operator document.
func (m *MongoOperatorRepo) Create(ctx context.Context, op *Operator) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	_, err := m.collection.InsertOne(ctx, operatorDoc{
		Name:         normalizeName(op.Name),
		PasswordHash: op.PasswordHash,
		IsAdmin:      op.IsAdmin,
		CreatedAt:    op.CreatedAt,
		LastLogin:    op.LastLogin,
	})
	if mongo.IsDuplicateKeyError(err) {
		return ErrOperatorExists
	}
	return err
}

// TouchLogin updates last login time.
func (m *MongoOperatorRepo) TouchLogin(ctx context.Context, name string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, m.ctxTimeout)
	defer cancel()

	res, err := m.collection.UpdateOne(ctx,
		bson.M{"name": normalizeName(name)},
		bson.M{"$set": bson.M{"last_login": at}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrOperatorNotFound
	}
	return nil
}

// Close terminates connection.
func (m *MongoOperatorRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
