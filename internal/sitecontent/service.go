package sitecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/redis"
)

// ContentDTO is one keyed block of site copy.
type ContentDTO struct {
	ID        uuid.UUID `json:"id"`
	Key       string    `json:"key"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpsertContentInput holds the validated payload to create or replace
// a content block.
type UpsertContentInput struct {
	Title string
	Body  string
}

// Service manages the editable text blocks the public site renders.
// Reads go through a Redis read-through cache; writes invalidate it.
type Service interface {
	Get(ctx context.Context, key string) (*ContentDTO, error)
	List(ctx context.Context) ([]ContentDTO, error)
	Upsert(ctx context.Context, key string, input UpsertContentInput) (*ContentDTO, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	db       *gorm.DB
	cache    redis.ContentCache
	cacheTTL time.Duration
	logg     *logger.Logger
}

func NewService(db *gorm.DB, cache redis.ContentCache, cacheTTL time.Duration, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if cache == nil {
		return nil, fmt.Errorf("content cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &service{db: db, cache: cache, cacheTTL: cacheTTL, logg: logg}, nil
}

func normalizeKey(key string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "content key required")
	}
	return normalized, nil
}

func newContentDTO(row *models.SiteContent) *ContentDTO {
	return &ContentDTO{
		ID:        row.ID,
		Key:       row.Key,
		Title:     row.Title,
		Body:      row.Body,
		UpdatedAt: row.UpdatedAt,
	}
}

// Get serves from cache when possible and falls back to the database,
// repopulating the cache on the way out. Cache failures degrade to
// plain database reads.
func (s *service) Get(ctx context.Context, key string) (*ContentDTO, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cache.ContentKey(normalized)
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		var dto ContentDTO
		if jsonErr := json.Unmarshal([]byte(cached), &dto); jsonErr == nil {
			return &dto, nil
		}
	} else if !redis.IsNil(err) {
		s.logg.Warn(s.logg.WithField(ctx, "content_key", normalized), "site content cache read failed")
	}

	var row models.SiteContent
	err = s.db.WithContext(ctx).First(&row, "key = ?", normalized).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load site content")
	}

	dto := newContentDTO(&row)
	if encoded, jsonErr := json.Marshal(dto); jsonErr == nil {
		if cacheErr := s.cache.Set(ctx, cacheKey, string(encoded), s.cacheTTL); cacheErr != nil {
			s.logg.Warn(s.logg.WithField(ctx, "content_key", normalized), "site content cache write failed")
		}
	}
	return dto, nil
}

func (s *service) List(ctx context.Context) ([]ContentDTO, error) {
	var rows []models.SiteContent
	if err := s.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list site content")
	}
	dtos := make([]ContentDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *newContentDTO(&rows[i]))
	}
	return dtos, nil
}

// Upsert creates or replaces the block under key and drops the cache
// entry so the next read sees the new copy.
func (s *service) Upsert(ctx context.Context, key string, input UpsertContentInput) (*ContentDTO, error) {
	normalized, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	var row models.SiteContent
	err = s.db.WithContext(ctx).First(&row, "key = ?", normalized).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.SiteContent{Key: normalized, Title: input.Title, Body: input.Body}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert site content")
		}
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load site content")
	default:
		row.Title = input.Title
		row.Body = input.Body
		if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update site content")
		}
	}

	if err := s.cache.Del(ctx, s.cache.ContentKey(normalized)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "content_key", normalized), "site content cache invalidation failed")
	}
	return newContentDTO(&row), nil
}

func (s *service) Delete(ctx context.Context, key string) error {
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("key = ?", normalized).Delete(&models.SiteContent{})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "db: delete site content")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}

	if err := s.cache.Del(ctx, s.cache.ContentKey(normalized)); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "content_key", normalized), "site content cache invalidation failed")
	}
	return nil
}
