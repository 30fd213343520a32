// Package redisstore keeps credentials as Redis hashes and submission logs
// as capped lists.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.pilab.hu/indexer/domain"
)

// MaxSubmissionLogs is how many entries are kept per user.
const MaxSubmissionLogs = 1000

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// CredentialStore implements domain.CredentialRepository.
type CredentialStore struct {
	client *redis.Client
	prefix string
}

var _ domain.CredentialRepository = (*CredentialStore)(nil)

func NewCredentialStore(client *redis.Client, prefix string) *CredentialStore {
	return &CredentialStore{client: client, prefix: prefix}
}

func (s *CredentialStore) redisKey(userID string) string {
	return fmt.Sprintf("%s:credential:%s", s.prefix, userID)
}

func (s *CredentialStore) GetCredentialByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	res, err := s.client.HGetAll(ctx, s.redisKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential from redis: %w", err)
	}
	if len(res) == 0 {
		return nil, domain.ErrCredentialNotFound
	}

	createdAt, err := parseUnixNano(res["created_at"])
	if err != nil {
		return nil, fmt.Errorf("bad created_at for %s: %w", userID, err)
	}
	updatedAt, err := parseUnixNano(res["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("bad updated_at for %s: %w", userID, err)
	}

	return &domain.Credential{
		ID:           res["id"],
		UserID:       res["user_id"],
		ProjectID:    res["project_id"],
		ClientEmail:  res["client_email"],
		PrivateKey:   res["private_key"],
		Status:       domain.CredentialStatus(res["status"]),
		ErrorMessage: res["error_message"],
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// UpsertCredential writes cred; id and created_at of an existing hash are kept.
func (s *CredentialStore) UpsertCredential(ctx context.Context, cred *domain.Credential) error {
	key := s.redisKey(cred.UserID)
	now := time.Now().UTC()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "id", cred.ID)
		pipe.HSetNX(ctx, key, "created_at", cred.CreatedAt.UnixNano())
		pipe.HSet(ctx, key, map[string]interface{}{
			"user_id":       cred.UserID,
			"project_id":    cred.ProjectID,
			"client_email":  cred.ClientEmail,
			"private_key":   cred.PrivateKey,
			"status":        string(cred.Status),
			"error_message": cred.ErrorMessage,
			"updated_at":    cred.UpdatedAt.UnixNano(),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credential in redis: %w", err)
	}
	return nil
}

// UpdateCredentialStatus touches only status, error_message and updated_at.
// The hash is watched so a concurrent delete cannot resurrect a partial row.
func (s *CredentialStore) UpdateCredentialStatus(ctx context.Context, userID string, upd domain.StatusUpdate) error {
	key := s.redisKey(userID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrCredentialNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"status":        string(upd.Status),
				"error_message": upd.ErrorMessage,
				"updated_at":    time.Now().UTC().UnixNano(),
			})
			return nil
		})
		return err
	}, key)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update credential status in redis: %w", err)
	}
	return nil
}

// SubmissionLogStore implements domain.SubmissionLogRepository.
type SubmissionLogStore struct {
	client *redis.Client
	prefix string
}

var _ domain.SubmissionLogRepository = (*SubmissionLogStore)(nil)

func NewSubmissionLogStore(client *redis.Client, prefix string) *SubmissionLogStore {
	return &SubmissionLogStore{client: client, prefix: prefix}
}

func (s *SubmissionLogStore) redisKey(userID string) string {
	return fmt.Sprintf("%s:submissions:%s", s.prefix, userID)
}

func (s *SubmissionLogStore) CreateSubmissionLog(ctx context.Context, entry *domain.SubmissionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal submission log: %w", err)
	}

	key := s.redisKey(entry.UserID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, raw)
		pipe.LTrim(ctx, key, 0, MaxSubmissionLogs-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push submission log: %w", err)
	}
	return nil
}

func (s *SubmissionLogStore) ListSubmissionLogs(ctx context.Context, userID string, limit int) ([]*domain.SubmissionLog, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	items, err := s.client.LRange(ctx, s.redisKey(userID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list submission logs: %w", err)
	}

	entries := make([]*domain.SubmissionLog, 0, len(items))
	for _, item := range items {
		var entry domain.SubmissionLog
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("corrupt submission log entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}

func parseUnixNano(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(0, n).UTC(), nil
}
