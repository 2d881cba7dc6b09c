package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"doclens/internal/config"
	"doclens/internal/models"
)

const (
	collectionDocuments = "documents"
	collectionSections  = "sections"
)

// MongoStore is a MongoDB-backed SectionStore, one collection each for
// documents and sections, mirroring the persisted layout described in the
// storage contract.
type MongoStore struct {
	db *mongo.Database
}

// ConnectMongo dials MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(cfg.Address)
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// NewMongoStore wraps an established client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{db: client.Database(database)}
}

func (s *MongoStore) SaveDocument(ctx context.Context, doc *models.Document, sections []models.Section) error {
	cp := *doc
	cp.SectionCount = len(sections)

	_, err := s.db.Collection(collectionDocuments).ReplaceOne(
		ctx, bson.M{"_id": doc.ID}, cp, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
	}

	// Replace, not update: a changed section set always starts clean.
	if _, err := s.db.Collection(collectionSections).DeleteMany(ctx, bson.M{"document_id": doc.ID}); err != nil {
		return fmt.Errorf("failed to clear sections of %s: %w", doc.ID, err)
	}
	if len(sections) == 0 {
		return nil
	}
	payload := make([]interface{}, len(sections))
	for i, sec := range sections {
		payload[i] = sec
	}
	if _, err := s.db.Collection(collectionSections).InsertMany(ctx, payload); err != nil {
		return fmt.Errorf("failed to insert sections of %s: %w", doc.ID, err)
	}
	return nil
}

func (s *MongoStore) Document(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Collection(collectionDocuments).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return &doc, nil
}

func (s *MongoStore) Documents(ctx context.Context) ([]*models.Document, error) {
	return s.findDocuments(ctx, bson.M{})
}

func (s *MongoStore) DocumentsByCluster(ctx context.Context, clusterID string) ([]*models.Document, error) {
	return s.findDocuments(ctx, bson.M{"cluster_id": clusterID})
}

func (s *MongoStore) findDocuments(ctx context.Context, filter bson.M) ([]*models.Document, error) {
	cursor, err := s.db.Collection(collectionDocuments).Find(
		ctx, filter, options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	var docs []*models.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) Sections(ctx context.Context, documentID string) ([]models.Section, error) {
	cursor, err := s.db.Collection(collectionSections).Find(
		ctx, bson.M{"document_id": documentID},
		options.Find().SetSort(bson.D{{Key: "ordinal", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sections of %s: %w", documentID, err)
	}
	var sections []models.Section
	if err := cursor.All(ctx, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode sections of %s: %w", documentID, err)
	}
	if sections == nil {
		return nil, models.ErrDocumentNotFound
	}
	return sections, nil
}

func (s *MongoStore) Section(ctx context.Context, documentID string, ordinal int) (*models.Section, error) {
	var sec models.Section
	err := s.db.Collection(collectionSections).FindOne(
		ctx, bson.M{"document_id": documentID, "ordinal": ordinal}).Decode(&sec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load section %s/%d: %w", documentID, ordinal, err)
	}
	return &sec, nil
}

func (s *MongoStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.Collection(collectionSections).DeleteMany(ctx, bson.M{"document_id": id}); err != nil {
		return fmt.Errorf("failed to delete sections of %s: %w", id, err)
	}
	if _, err := s.db.Collection(collectionDocuments).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

var _ SectionStore = (*MongoStore)(nil)
