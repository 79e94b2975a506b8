package ingest

import (
	"context"
	"errors"
	"sort"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/discord"
	"go.uber.org/zap"
)

const pageSize = 1000

// MemberSource pages through guild members.
type MemberSource interface {
	Members(ctx context.Context, guildID, after string, limit int) ([]discord.Member, error)
}

// Pipeline scrapes a guild and pushes daily rollups. It is a linear
// batch job: per-date failures are logged and the loop continues.
type Pipeline struct {
	log     *zap.Logger
	source  MemberSource
	pusher  Pusher
	guildID string
	opts    Options
}

func NewPipeline(log *zap.Logger, source MemberSource, pusher Pusher, guildID string, opts Options) *Pipeline {
	return &Pipeline{
		log:     log.Named("discord.ingest"),
		source:  source,
		pusher:  pusher,
		guildID: guildID,
		opts:    opts,
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	members, err := p.fetchAll(ctx)
	if err != nil {
		return err
	}
	p.log.Info("guild members fetched", zap.Int("count", len(members)))

	byDate := Classify(members, p.opts)

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		if err := p.push(ctx, date, byDate[date]); err != nil {
			p.log.Error("push failed",
				zap.String("date", date),
				zap.Error(err),
			)
			continue
		}
		p.log.Info("date pushed",
			zap.String("date", date),
			zap.Int("rows", len(byDate[date])),
		)
	}
	return nil
}

func (p *Pipeline) fetchAll(ctx context.Context) ([]discord.Member, error) {
	var all []discord.Member
	after := ""
	for {
		page, err := p.source.Members(ctx, p.guildID, after, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
		after = page[len(page)-1].User.ID
	}
}

// push upserts one date. A server-side failure gets the date wiped and
// the upsert retried once, so a half-written day cannot survive.
func (p *Pipeline) push(ctx context.Context, date string, rows []domain.Row) error {
	err := p.pusher.Upsert(ctx, date, rows)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrServerError) {
		return err
	}

	p.log.Warn("upsert failed, wiping date before retry",
		zap.String("date", date),
		zap.Error(err),
	)
	if err := p.pusher.DeleteDate(ctx, date); err != nil {
		return err
	}
	return p.pusher.Upsert(ctx, date, rows)
}
