package domain

import (
	"context"
	"errors"
)

// Row is the per-source payload pushed for one date.
type Row struct {
	Source           string `json:"source"`
	MembersCount     int64  `json:"members_count"`
	SubscribersCount int64  `json:"subscribers_count"`
}

type Service interface {
	// Upsert writes the rows for one date, replacing existing counts
	// per (date, source).
	Upsert(ctx context.Context, date string, rows []Row) error
	// DeleteDate removes every row for the date.
	DeleteDate(ctx context.Context, date string) error
	// Range returns stats with date in [from, to], ordered by date
	// then source.
	Range(ctx context.Context, from, to string) ([]DailyStat, error)
}

var (
	ErrInvalidDate   = errors.New("invalid_date")
	ErrInvalidSource = errors.New("invalid_source")
)
