package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// MagicLink is one single-use login token. Only the HMAC of the token
// is stored; the raw value lives solely in the delivered link.
type MagicLink struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Email      string       `gorm:"not null" json:"email"`
	Slug       string       `gorm:"not null;default:''" json:"slug"`
	TokenHash  string       `gorm:"not null;index" json:"-"`
	RedirectTo string       `gorm:"not null;default:''" json:"redirect_to"`
	ExpiresAt  time.Time    `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MagicLink) TableName() string {
	return "magic_links"
}
