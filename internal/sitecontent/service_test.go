package sitecontent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	pkgerrors "github.com/aramunz/bazar-backend/pkg/errors"
	"github.com/aramunz/bazar-backend/pkg/logger"
	"github.com/aramunz/bazar-backend/pkg/redis"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	hits    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	value, ok := c.entries[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	c.hits++
	return value, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = fmt.Sprint(value)
	return nil
}

func (c *memoryCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *memoryCache) ContentKey(key string) string {
	return "test:site_content:" + key
}

func newTestService(t *testing.T) (Service, *memoryCache, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:sitecontent_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.SiteContent{}))

	cache := newMemoryCache()
	logg := logger.New(logger.Options{ServiceName: "sitecontent-test", Level: logger.ParseLevel("error")})
	svc, err := NewService(conn, cache, time.Minute, logg)
	require.NoError(t, err)
	return svc, cache, conn
}

func TestUpsertThenGetPopulatesCache(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Upsert(ctx, "hero", UpsertContentInput{Title: "Bazar da Igreja", Body: "Bem-vindos"})
	require.NoError(t, err)
	require.Equal(t, "hero", created.Key)

	first, err := svc.Get(ctx, "hero")
	require.NoError(t, err)
	require.Equal(t, "Bazar da Igreja", first.Title)

	second, err := svc.Get(ctx, "hero")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, cache.hits)
}

func TestUpsertInvalidatesCache(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "announcements", UpsertContentInput{Title: "Avisos", Body: "Culto domingo"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "announcements")
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	_, err = svc.Upsert(ctx, "announcements", UpsertContentInput{Title: "Avisos", Body: "Culto sabado"})
	require.NoError(t, err)
	require.Empty(t, cache.entries)

	fresh, err := svc.Get(ctx, "announcements")
	require.NoError(t, err)
	require.Equal(t, "Culto sabado", fresh.Body)
}

func TestGetKeyIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "  Contact ", UpsertContentInput{Title: "Contato", Body: "(11) 99999-0000"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "CONTACT")
	require.NoError(t, err)
	require.Equal(t, "contact", got.Key)
}

func TestGetUnknownKeyReturnsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestDeleteRemovesRowAndCacheEntry(t *testing.T) {
	svc, cache, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "hero", UpsertContentInput{Title: "Bazar", Body: "Ola"})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "hero")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "hero"))
	require.Empty(t, cache.entries)

	err = svc.Delete(ctx, "hero")
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpsertRequiresTitle(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Upsert(context.Background(), "hero", UpsertContentInput{Title: "  "})
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Empty(t, list)
}
