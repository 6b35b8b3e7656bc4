package appconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/shipbridge-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shipbridge-backend/pkg/errors"
	"github.com/angelmondragon/shipbridge-backend/pkg/logger"
	"github.com/angelmondragon/shipbridge-backend/pkg/types"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 10 * time.Minute

type configRepository interface {
	Find(ctx context.Context, storeID int) (*models.AppConfig, error)
	Upsert(ctx context.Context, storeID int, doc types.JSONDocument) (*models.AppConfig, error)
}

type configCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	AppConfigKey(storeID int) string
}

// Service exposes store configuration operations.
type Service interface {
	Get(ctx context.Context, storeID int) (AppData, error)
	Set(ctx context.Context, storeID int, partial types.JSONDocument) (AppData, error)
}

type service struct {
	repo  configRepository
	cache configCache
	log   *logger.Logger
}

// NewService builds the configuration service. The cache is optional;
// without it every read hits the database.
func NewService(repo configRepository, cache configCache, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("app config repository required")
	}
	return &service{repo: repo, cache: cache, log: log}, nil
}

// Get returns the decoded configuration for a store. Stores with no
// saved settings get the zero value.
func (s *service) Get(ctx context.Context, storeID int) (AppData, error) {
	if doc, ok := s.cachedDocument(ctx, storeID); ok {
		return Parse(doc)
	}

	record, err := s.repo.Find(ctx, storeID)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load app config")
	}
	var doc types.JSONDocument
	if record != nil {
		doc = record.Data
	}
	s.cacheDocument(ctx, storeID, doc)
	data, err := Parse(doc)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse app config")
	}
	return data, nil
}

// Set merges a partial document into the stored configuration. Keys in
// the partial win over stored keys; keys it omits are preserved.
func (s *service) Set(ctx context.Context, storeID int, partial types.JSONDocument) (AppData, error) {
	if len(partial) > 0 && !json.Valid(partial) {
		return AppData{}, pkgerrors.New(pkgerrors.CodeValidation, "config document is not valid JSON")
	}

	record, err := s.repo.Find(ctx, storeID)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load app config")
	}
	var current types.JSONDocument
	if record != nil {
		current = record.Data
	}
	merged, err := MergeDocuments(current, partial)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "merge app config")
	}

	saved, err := s.repo.Upsert(ctx, storeID, merged)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save app config")
	}
	s.invalidate(ctx, storeID)

	data, err := Parse(saved.Data)
	if err != nil {
		return AppData{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse app config")
	}
	return data, nil
}

func (s *service) cachedDocument(ctx context.Context, storeID int) (types.JSONDocument, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.AppConfigKey(storeID))
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.warn(ctx, "app config cache read failed", err)
		return nil, false
	}
	return types.JSONDocument(raw), true
}

func (s *service) cacheDocument(ctx context.Context, storeID int, doc types.JSONDocument) {
	if s.cache == nil {
		return
	}
	payload := string(doc)
	if payload == "" {
		payload = "{}"
	}
	if err := s.cache.Set(ctx, s.cache.AppConfigKey(storeID), payload, cacheTTL); err != nil {
		s.warn(ctx, "app config cache write failed", err)
	}
}

func (s *service) invalidate(ctx context.Context, storeID int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cache.AppConfigKey(storeID)); err != nil {
		s.warn(ctx, "app config cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.log == nil {
		return
	}
	s.log.Warn(s.log.WithField(ctx, "error", err.Error()), msg)
}
