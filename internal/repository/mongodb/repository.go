package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

const (
	userDataCollection      = "user_data"
	workshopStateCollection = "workshop_states"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Repository defines the document storage used by the application.
type Repository interface {
	GetUserData(ctx context.Context, userID string) (models.UserData, error)
	UpsertUserData(ctx context.Context, data models.UserData) error
	LoadWorkshopState(ctx context.Context, ownerID string) (models.WorkshopState, error)
	SaveWorkshopState(ctx context.Context, state models.WorkshopState) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	now    func() time.Time
}

// NewMongoDBRepository connects to uri and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return NewFromClient(client, dbName), nil
}

// NewFromClient wraps an already connected client.
func NewFromClient(client *mongo.Client, dbName string) *MongoDBRepository {
	return &MongoDBRepository{
		client: client,
		dbName: dbName,
		now:    time.Now,
	}
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// EnsureIndexes creates the unique lookup indexes of both collections.
func (r *MongoDBRepository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string]string{
		userDataCollection:      "user_id",
		workshopStateCollection: "owner_id",
	}
	for coll, field := range indexes {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		if _, err := r.collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create %s index on %s: %w", field, coll, err)
		}
	}
	return nil
}

// GetUserData fetches the settings record of userID.
func (r *MongoDBRepository) GetUserData(ctx context.Context, userID string) (models.UserData, error) {
	var data models.UserData
	err := r.collection(userDataCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&data)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserData{}, ErrNotFound
	}
	if err != nil {
		return models.UserData{}, fmt.Errorf("failed to find user data: %w", err)
	}
	return data, nil
}

// UpsertUserData creates or replaces the settings record keyed by UserID.
// A zero UpdatedAt is stamped with the current time.
func (r *MongoDBRepository) UpsertUserData(ctx context.Context, data models.UserData) error {
	if data.UserID == "" {
		return errors.New("user id must not be empty")
	}
	if data.UpdatedAt.IsZero() {
		data.UpdatedAt = r.now().UTC()
	}

	_, err := r.collection(userDataCollection).UpdateOne(ctx,
		bson.M{"user_id": data.UserID},
		bson.M{"$set": data},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert user data: %w", err)
	}
	return nil
}

// LoadWorkshopState fetches the persisted workshop of ownerID.
func (r *MongoDBRepository) LoadWorkshopState(ctx context.Context, ownerID string) (models.WorkshopState, error) {
	var st models.WorkshopState
	err := r.collection(workshopStateCollection).FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.WorkshopState{}, ErrNotFound
	}
	if err != nil {
		return models.WorkshopState{}, fmt.Errorf("failed to find workshop state: %w", err)
	}
	return st, nil
}

// SaveWorkshopState replaces the workshop document of state.OwnerID.
func (r *MongoDBRepository) SaveWorkshopState(ctx context.Context, state models.WorkshopState) error {
	if state.OwnerID == "" {
		return errors.New("owner id must not be empty")
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = r.now().UTC()
	}

	_, err := r.collection(workshopStateCollection).ReplaceOne(ctx,
		bson.M{"owner_id": state.OwnerID},
		state,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save workshop state: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
