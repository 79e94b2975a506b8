package ingest

import (
	"time"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/discord"
)

// DefaultCutoff is the earliest join date the pipeline counts. Joins
// before it predate the tracked campaigns.
var DefaultCutoff = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

// bucketZone is the reporting timezone for calendar-date bucketing.
var bucketZone = time.FixedZone("UTC+2", 2*60*60)

// DefaultSource labels members carrying none of the mapped roles.
const DefaultSource = "organic"

type Options struct {
	// SourceRoles maps a role id to the traffic source it represents.
	SourceRoles map[string]string
	// PaymentRoles is the set of role ids that mark a paying member.
	PaymentRoles map[string]bool
	// Cutoff drops members who joined before it. Zero means
	// DefaultCutoff.
	Cutoff time.Time
	// Now bounds plausible join timestamps. Zero means time.Now at
	// classification time.
	Now time.Time
}

type bucket struct {
	members     int64
	subscribers int64
}

// Classify folds guild members into per-(date, source) counts. Members
// who joined before the cutoff or in the future are dropped, as are
// bots.
func Classify(members []discord.Member, opts Options) map[string][]domain.Row {
	cutoff := opts.Cutoff
	if cutoff.IsZero() {
		cutoff = DefaultCutoff
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	counts := map[string]map[string]*bucket{}
	for _, member := range members {
		if member.User.Bot {
			continue
		}
		joined := member.JoinedAt
		if joined.IsZero() || joined.Before(cutoff) || joined.After(now) {
			continue
		}

		date := joined.In(bucketZone).Format("2006-01-02")
		source := classifySource(member.Roles, opts.SourceRoles)

		day := counts[date]
		if day == nil {
			day = map[string]*bucket{}
			counts[date] = day
		}
		b := day[source]
		if b == nil {
			b = &bucket{}
			day[source] = b
		}
		b.members++
		if hasPaymentRole(member.Roles, opts.PaymentRoles) {
			b.subscribers++
		}
	}

	out := make(map[string][]domain.Row, len(counts))
	for date, day := range counts {
		rows := make([]domain.Row, 0, len(day))
		for source, b := range day {
			rows = append(rows, domain.Row{
				Source:           source,
				MembersCount:     b.members,
				SubscribersCount: b.subscribers,
			})
		}
		out[date] = rows
	}
	return out
}

func classifySource(roles []string, sourceRoles map[string]string) string {
	for _, role := range roles {
		if source, ok := sourceRoles[role]; ok {
			return source
		}
	}
	return DefaultSource
}

func hasPaymentRole(roles []string, paymentRoles map[string]bool) bool {
	for _, role := range roles {
		if paymentRoles[role] {
			return true
		}
	}
	return false
}
