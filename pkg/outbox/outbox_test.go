package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aramunz/bazar-backend/pkg/db/models"
	"github.com/aramunz/bazar-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxEvent{}))
	return db
}

func TestEmitWritesEnvelopeInsideTx(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)
	saleID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   saleID,
			Actor:         &ActorRef{UserID: uuid.New(), Role: "admin"},
			Data:          map[string]any{"total": "25.00"},
		})
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	require.Equal(t, enums.EventSaleCreated, row.EventType)
	require.Equal(t, saleID, row.AggregateID)
	require.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	require.JSONEq(t, `{"total":"25.00"}`, string(envelope.Data))
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSaleDeleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestFetchUnpublishedSkipsExhaustedAndPublished(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventProductStockAdjusted,
				AggregateType: enums.AggregateProduct,
				AggregateID:   uuid.New(),
				Data:          map[string]any{},
			})
		}))
	}
	var rows []models.OutboxEvent
	require.NoError(t, db.Order("created_at ASC").Find(&rows).Error)
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	require.NoError(t, repo.MarkPublished(ids[0]))
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.MarkFailed(ids[1], errors.New("topic unavailable")))
	}

	pending, err := repo.FetchUnpublished(50, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, ids[2], pending[0].ID)
}

func TestMarkFailedTruncatesAndCounts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSaleCreated,
			AggregateType: enums.AggregateSale,
			AggregateID:   uuid.New(),
			Data:          map[string]any{},
		})
	}))

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, repo.MarkFailed(row.ID, errors.New(string(long))))

	require.NoError(t, db.First(&row, "id = ?", row.ID).Error)
	require.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	require.Len(t, *row.LastError, maxLastErrorLen)
}
