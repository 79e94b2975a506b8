package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stackbundle/partnerhub/internal/analytics/domain"
	"github.com/stackbundle/partnerhub/internal/discord"
	"go.uber.org/zap"
)

type pagedSource struct {
	pages [][]discord.Member
	calls []string
}

func (s *pagedSource) Members(ctx context.Context, guildID, after string, limit int) ([]discord.Member, error) {
	s.calls = append(s.calls, after)
	if len(s.pages) == 0 {
		return nil, nil
	}
	page := s.pages[0]
	s.pages = s.pages[1:]
	return page, nil
}

type pusherStub struct {
	upserts    map[string]int
	deletes    []string
	failFirst  map[string]bool
	failAlways map[string]bool
	lastRows   map[string][]domain.Row
}

func newPusherStub() *pusherStub {
	return &pusherStub{
		upserts:    map[string]int{},
		failFirst:  map[string]bool{},
		failAlways: map[string]bool{},
		lastRows:   map[string][]domain.Row{},
	}
}

func (p *pusherStub) Upsert(ctx context.Context, date string, rows []domain.Row) error {
	p.upserts[date]++
	p.lastRows[date] = rows
	if p.failAlways[date] {
		return fmt.Errorf("%w: injected", ErrServerError)
	}
	if p.failFirst[date] && p.upserts[date] == 1 {
		return fmt.Errorf("%w: injected", ErrServerError)
	}
	return nil
}

func (p *pusherStub) DeleteDate(ctx context.Context, date string) error {
	p.deletes = append(p.deletes, date)
	return nil
}

func fullPage(start int, joined time.Time) []discord.Member {
	page := make([]discord.Member, pageSize)
	for i := range page {
		page[i] = discord.Member{
			User:     discord.User{ID: fmt.Sprintf("%06d", start+i)},
			JoinedAt: joined,
			Roles:    []string{"role_yt"},
		}
	}
	return page
}

func TestPipelinePaginatesWithAfterCursor(t *testing.T) {
	joined := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	source := &pagedSource{pages: [][]discord.Member{
		fullPage(0, joined),
		{{User: discord.User{ID: "tail"}, JoinedAt: joined, Roles: []string{"role_yt"}}},
	}}
	pusher := newPusherStub()

	p := NewPipeline(zap.NewNop(), source, pusher, "guild", testOpts)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(source.calls) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(source.calls))
	}
	if source.calls[0] != "" || source.calls[1] != fmt.Sprintf("%06d", pageSize-1) {
		t.Fatalf("unexpected cursors %v", source.calls)
	}
	rows := pusher.lastRows["2025-07-10"]
	if len(rows) != 1 || rows[0].MembersCount != int64(pageSize+1) {
		t.Fatalf("expected %d members pushed, got %+v", pageSize+1, rows)
	}
}

func TestPipelineDeletesAndRetriesOnServerError(t *testing.T) {
	joined := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	source := &pagedSource{pages: [][]discord.Member{
		{{User: discord.User{ID: "1"}, JoinedAt: joined, Roles: []string{"role_yt"}}},
	}}
	pusher := newPusherStub()
	pusher.failFirst["2025-07-10"] = true

	p := NewPipeline(zap.NewNop(), source, pusher, "guild", testOpts)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if pusher.upserts["2025-07-10"] != 2 {
		t.Fatalf("expected retry after server error, got %d upserts", pusher.upserts["2025-07-10"])
	}
	if len(pusher.deletes) != 1 || pusher.deletes[0] != "2025-07-10" {
		t.Fatalf("expected the date wiped before retry, got %v", pusher.deletes)
	}
}

func TestPipelineContinuesPastFailedDates(t *testing.T) {
	source := &pagedSource{pages: [][]discord.Member{
		{
			{User: discord.User{ID: "1"}, JoinedAt: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC), Roles: []string{"role_yt"}},
			{User: discord.User{ID: "2"}, JoinedAt: time.Date(2025, 7, 11, 12, 0, 0, 0, time.UTC), Roles: []string{"role_yt"}},
		},
	}}
	pusher := newPusherStub()
	// The retry fails too; the pipeline moves on.
	pusher.failAlways["2025-07-10"] = true

	p := NewPipeline(zap.NewNop(), source, pusher, "guild", testOpts)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run must not abort on a single date: %v", err)
	}
	if pusher.upserts["2025-07-11"] != 1 {
		t.Fatalf("later dates must still be pushed, got %d", pusher.upserts["2025-07-11"])
	}
}
