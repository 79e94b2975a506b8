package service

import (
	"context"
	"strings"
	"time"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
	}
}

func (s *Service) Upsert(ctx context.Context, date string, rows []domain.Row) error {
	if err := validDate(date); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	now := s.clock.Now()
	stats := make([]domain.DailyStat, 0, len(rows))
	for _, row := range rows {
		source := strings.TrimSpace(row.Source)
		if source == "" {
			return domain.ErrInvalidSource
		}
		stats = append(stats, domain.DailyStat{
			Date:             date,
			Source:           source,
			MembersCount:     row.MembersCount,
			SubscribersCount: row.SubscribersCount,
			UpdatedAt:        now,
		})
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "source"}},
			DoUpdates: clause.AssignmentColumns([]string{"members_count", "subscribers_count", "updated_at"}),
		}).
		Create(&stats).Error
}

func (s *Service) DeleteDate(ctx context.Context, date string) error {
	if err := validDate(date); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("date = ?", date).
		Delete(&domain.DailyStat{}).Error
}

func (s *Service) Range(ctx context.Context, from, to string) ([]domain.DailyStat, error) {
	if err := validDate(from); err != nil {
		return nil, err
	}
	if err := validDate(to); err != nil {
		return nil, err
	}

	var stats []domain.DailyStat
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date, source").
		Find(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return domain.ErrInvalidDate
	}
	return nil
}
