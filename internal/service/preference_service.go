package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"kino-alert-matching-service/internal/models"
)

const (
	prefCacheTTL = 10 * time.Minute
)

// ErrInvalidInput marks a request rejected by validation.
var ErrInvalidInput = errors.New("invalid input")

// PreferenceStore is the persistence the preference service needs.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error)
	UpsertPreferences(ctx context.Context, rec models.PreferenceRecord) (*models.PreferenceRecord, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// PreferenceService reads and writes preference records with a Redis
// read-through cache. It serves both the HTTP handlers and the matching
// and notification passes.
type PreferenceService struct {
	repo     PreferenceStore
	redis    *redis.Client
	validate *validator.Validate
}

func NewPreferenceService(repo PreferenceStore, rdb *redis.Client) *PreferenceService {
	return &PreferenceService{
		repo:     repo,
		redis:    rdb,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func prefCacheKey(userID string) string {
	return "kino:prefs:" + userID
}

// GetPreferences returns the user's preferences, or
// models.ErrPreferencesNotFound.
func (s *PreferenceService) GetPreferences(ctx context.Context, userID string) (*models.PreferenceRecord, error) {
	cacheKey := prefCacheKey(userID)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		var pref models.PreferenceRecord
		if json.Unmarshal([]byte(cached), &pref) == nil {
			return &pref, nil
		}
	}

	pref, err := s.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pref); err == nil {
		s.setCache(ctx, cacheKey, string(data), prefCacheTTL)
	}
	return pref, nil
}

// SetPreferences validates and stores the user's preferences, replacing
// any previous record.
func (s *PreferenceService) SetPreferences(ctx context.Context, userID string, req models.SetPreferenceRequest) (*models.PreferenceRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pref, err := s.repo.UpsertPreferences(ctx, req.ToRecord(userID))
	if err != nil {
		return nil, err
	}

	s.delCache(ctx, prefCacheKey(userID))
	return pref, nil
}

// ListUserIDs returns every user with stored preferences. It is never
// cached so a batch run sees users added since the last one.
func (s *PreferenceService) ListUserIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListUserIDs(ctx)
}

// Redis helpers

func (s *PreferenceService) getFromCache(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(ctx, key).Result()
}

func (s *PreferenceService) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}

func (s *PreferenceService) delCache(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		slog.Error("failed to invalidate cache", "key", key, "error", err)
	}
}
