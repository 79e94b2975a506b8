package domain

import "time"

// DailyStat is one day of Discord community counts for one traffic
// source. Dates are stored as YYYY-MM-DD strings to keep the (date,
// source) key portable across dialects.
type DailyStat struct {
	Date             string    `gorm:"primaryKey;column:date" json:"date"`
	Source           string    `gorm:"primaryKey;column:source" json:"source"`
	MembersCount     int64     `gorm:"not null;default:0" json:"members_count"`
	SubscribersCount int64     `gorm:"not null;default:0" json:"subscribers_count"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DailyStat) TableName() string {
	return "discord_daily_stats"
}
