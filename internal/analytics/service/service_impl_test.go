package service

import (
	"context"
	"testing"
	"time"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setup(t *testing.T) domain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(&domain.DailyStat{}))
	require.NoError(t, conn.Exec("DELETE FROM discord_daily_stats;").Error)

	return New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)),
	})
}

func TestUpsertReplacesCounts(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, "2025-07-10", []domain.Row{
		{Source: "youtube", MembersCount: 5, SubscribersCount: 2},
	}))
	require.NoError(t, svc.Upsert(ctx, "2025-07-10", []domain.Row{
		{Source: "youtube", MembersCount: 8, SubscribersCount: 3},
		{Source: "tiktok", MembersCount: 1, SubscribersCount: 0},
	}))

	stats, err := svc.Range(ctx, "2025-07-10", "2025-07-10")
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "tiktok", stats[0].Source)
	assert.Equal(t, "youtube", stats[1].Source)
	assert.Equal(t, int64(8), stats[1].MembersCount)
	assert.Equal(t, int64(3), stats[1].SubscribersCount)
}

func TestDeleteDateRemovesAllSources(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Upsert(ctx, "2025-07-10", []domain.Row{
		{Source: "youtube", MembersCount: 5},
		{Source: "tiktok", MembersCount: 2},
	}))
	require.NoError(t, svc.Upsert(ctx, "2025-07-11", []domain.Row{
		{Source: "youtube", MembersCount: 1},
	}))

	require.NoError(t, svc.DeleteDate(ctx, "2025-07-10"))

	stats, err := svc.Range(ctx, "2025-07-01", "2025-07-31")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "2025-07-11", stats[0].Date)
}

func TestRejectsMalformedDates(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Upsert(ctx, "10-07-2025", []domain.Row{{Source: "youtube"}}), domain.ErrInvalidDate)
	assert.ErrorIs(t, svc.DeleteDate(ctx, "not-a-date"), domain.ErrInvalidDate)
	assert.ErrorIs(t, svc.Upsert(ctx, "2025-07-10", []domain.Row{{Source: "  "}}), domain.ErrInvalidSource)
}
