package repository

import (
	"context"
	"errors"

	"github.com/stackbundle/partnerhub/internal/partner/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	return db.WithContext(ctx).Create(partner).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Partner, error) {
	var partner domain.Partner
	err := db.WithContext(ctx).Where("slug = ?", slug).Take(&partner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, partner *domain.Partner) error {
	// Save writes every column so cleared fields survive the round trip.
	return db.WithContext(ctx).Save(partner).Error
}

func (r *repo) FindDomain(ctx context.Context, db *gorm.DB, host string) (*domain.PartnerDomain, error) {
	var mapping domain.PartnerDomain
	err := db.WithContext(ctx).Where("host = ?", host).Take(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

func (r *repo) UpsertDomain(ctx context.Context, db *gorm.DB, mapping *domain.PartnerDomain) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "host"}},
		DoUpdates: clause.AssignmentColumns([]string{"slug"}),
	}).Create(mapping).Error
}

func (r *repo) DeleteDomain(ctx context.Context, db *gorm.DB, host string) error {
	return db.WithContext(ctx).Where("host = ?", host).Delete(&domain.PartnerDomain{}).Error
}

func (r *repo) ListPromoCodes(ctx context.Context, db *gorm.DB, slug string) ([]domain.PromoCode, error) {
	var codes []domain.PromoCode
	err := db.WithContext(ctx).
		Where("slug = ?", slug).
		Order("created_at asc, id asc").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repo) ReplacePromoCodes(ctx context.Context, db *gorm.DB, slug string, codes []domain.PromoCode) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slug = ?", slug).Delete(&domain.PromoCode{}).Error; err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		return tx.Create(&codes).Error
	})
}
