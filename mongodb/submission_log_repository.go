package mongodb

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/indexer/domain"
)

// SubmissionLogRepositoryMongo implements domain.SubmissionLogRepository.
type SubmissionLogRepositoryMongo struct {
	collection *mongo.Collection
}

var _ domain.SubmissionLogRepository = (*SubmissionLogRepositoryMongo)(nil)

func NewSubmissionLogRepositoryMongo(ctx context.Context, db *mongo.Database) (*SubmissionLogRepositoryMongo, error) {
	repo := &SubmissionLogRepositoryMongo{collection: db.Collection(SubmissionLogsCollection)}

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := repo.collection.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create indexes for indexing_submissions collection")
		return nil, err
	}
	return repo, nil
}

func (r *SubmissionLogRepositoryMongo) CreateSubmissionLog(ctx context.Context, entry *domain.SubmissionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

func (r *SubmissionLogRepositoryMongo) ListSubmissionLogs(ctx context.Context, userID string, limit int) ([]*domain.SubmissionLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]*domain.SubmissionLog, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
