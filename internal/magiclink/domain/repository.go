package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, link *MagicLink) error
	FindByTokenHash(ctx context.Context, db *gorm.DB, hash string) (*MagicLink, error)
	// MarkConsumed flips consumed_at if still unset and reports whether
	// this caller won the flip.
	MarkConsumed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) (bool, error)
}
