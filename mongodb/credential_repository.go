package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.pilab.hu/indexer/domain"
)

// CredentialRepositoryMongo implements domain.CredentialRepository.
type CredentialRepositoryMongo struct {
	collection *mongo.Collection
}

var _ domain.CredentialRepository = (*CredentialRepositoryMongo)(nil)

// NewCredentialRepositoryMongo creates the repository and ensures the unique
// user_id index that enforces one credential per user.
func NewCredentialRepositoryMongo(ctx context.Context, db *mongo.Database) (*CredentialRepositoryMongo, error) {
	repo := &CredentialRepositoryMongo{collection: db.Collection(CredentialsCollection)}

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := repo.collection.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_id_unique"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create indexes for google_credentials collection")
		return nil, err
	}
	return repo, nil
}

func (r *CredentialRepositoryMongo) GetCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	var cred domain.Credential
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cred)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// UpsertCredential replaces the key material of cred.UserID, creating the
// document on first save. ID and CreatedAt are only written on insert.
func (r *CredentialRepositoryMongo) UpsertCredential(ctx context.Context, cred *domain.Credential) error {
	now := time.Now().UTC()
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}

	setOnInsert := bson.M{"created_at": cred.CreatedAt}
	if cred.ID != "" {
		setOnInsert["_id"] = cred.ID
	}
	update := bson.M{
		"$set": bson.M{
			"project_id":    cred.ProjectID,
			"client_email":  cred.ClientEmail,
			"private_key":   cred.PrivateKey,
			"status":        cred.Status,
			"error_message": cred.ErrorMessage,
			"updated_at":    cred.UpdatedAt,
		},
		"$setOnInsert": setOnInsert,
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"user_id": cred.UserID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *CredentialRepositoryMongo) UpdateCredentialStatus(ctx context.Context, userID string, upd domain.StatusUpdate) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{
		"$set": bson.M{
			"status":        upd.Status,
			"error_message": upd.ErrorMessage,
			"updated_at":    time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}
