package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, partner *Partner) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Partner, error)
	Update(ctx context.Context, db *gorm.DB, partner *Partner) error

	FindDomain(ctx context.Context, db *gorm.DB, host string) (*PartnerDomain, error)
	UpsertDomain(ctx context.Context, db *gorm.DB, mapping *PartnerDomain) error
	DeleteDomain(ctx context.Context, db *gorm.DB, host string) error

	ListPromoCodes(ctx context.Context, db *gorm.DB, slug string) ([]PromoCode, error)
	ReplacePromoCodes(ctx context.Context, db *gorm.DB, slug string, codes []PromoCode) error
}
