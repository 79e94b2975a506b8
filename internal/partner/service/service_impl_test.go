package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/partner/domain"
	"github.com/stackbundle/partnerhub/internal/partner/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(&domain.Partner{}, &domain.PartnerDomain{}, &domain.PromoCode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Exec("DELETE FROM partners; DELETE FROM partner_domains; DELETE FROM partner_promo_codes;").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	return New(Params{
		Cfg:   config.Config{PlatformDomain: "stackbundle.io"},
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
}

func TestBootstrapIsIdempotent(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Bootstrap(ctx, "Acme-Tools", "owner@acme.dev")
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if first.Slug != "acme-tools" {
		t.Fatalf("expected normalized slug, got %q", first.Slug)
	}

	second, err := svc.Bootstrap(ctx, "acme-tools", "intruder@other.dev")
	if err != nil {
		t.Fatalf("bootstrap again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same partner, got %s vs %s", first.ID, second.ID)
	}
	if second.AdminEmail != "owner@acme.dev" {
		t.Fatalf("first admin email must win, got %q", second.AdminEmail)
	}
}

func TestPatchMergesWithoutFieldLoss(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	name := "Acme Tools"
	monthly := "29.99"
	if _, err := svc.Patch(ctx, "acme", domain.Patch{SaasName: &name, MonthlyPrice: &monthly}); err != nil {
		t.Fatalf("first patch: %v", err)
	}

	account := "acct_123"
	updated, err := svc.Patch(ctx, "acme", domain.Patch{ConnectedAccount: &account})
	if err != nil {
		t.Fatalf("second patch: %v", err)
	}

	if updated.SaasName != "Acme Tools" || updated.MonthlyPrice != "29.99" {
		t.Fatalf("earlier fields lost on partial update: %+v", updated)
	}
	if updated.ConnectedAccount != "acct_123" {
		t.Fatalf("patched field missing: %+v", updated)
	}
	if updated.AdminEmail != "owner@acme.dev" {
		t.Fatalf("bootstrap field lost: %+v", updated)
	}
}

func TestPatchRejectsUnknownCurrency(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	gbp := "gbp"
	if _, err := svc.Patch(ctx, "acme", domain.Patch{Currency: &gbp}); err != domain.ErrInvalidCurrency {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestResolveHost(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	resolved, err := svc.ResolveHost(ctx, "acme.stackbundle.io")
	if err != nil {
		t.Fatalf("resolve subdomain: %v", err)
	}
	if resolved.Slug != "acme" {
		t.Fatalf("expected acme, got %q", resolved.Slug)
	}

	if err := svc.MapDomain(ctx, "Tools.Example.Com:443", "acme"); err != nil {
		t.Fatalf("map domain: %v", err)
	}
	resolved, err = svc.ResolveHost(ctx, "tools.example.com")
	if err != nil {
		t.Fatalf("resolve custom domain: %v", err)
	}
	if resolved.Slug != "acme" {
		t.Fatalf("expected acme via custom domain, got %q", resolved.Slug)
	}

	if _, err := svc.ResolveHost(ctx, "unknown.example.com"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPromoCodeLookupIsCaseInsensitive(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := svc.PutPromoCodes(ctx, "acme", []domain.PromoCode{
		{Code: "LAUNCH50", PromotionCodeID: "promo_1", Active: true, ExcludeAnnual: true},
	})
	if err != nil {
		t.Fatalf("put promo codes: %v", err)
	}

	found, err := svc.FindPromoCode(ctx, "acme", "launch50")
	if err != nil {
		t.Fatalf("find promo: %v", err)
	}
	if found.PromotionCodeID != "promo_1" || !found.ExcludeAnnual {
		t.Fatalf("unexpected promo entry: %+v", found)
	}

	if _, err := svc.FindPromoCode(ctx, "acme", "missing"); err != domain.ErrPromoNotFound {
		t.Fatalf("expected ErrPromoNotFound, got %v", err)
	}
}

func TestDisabledPromoCodeStaysDisabled(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := svc.PutPromoCodes(ctx, "acme", []domain.PromoCode{
		{Code: "RETIRED", PromotionCodeID: "promo_old", Active: false},
	}); err != nil {
		t.Fatalf("put promo codes: %v", err)
	}

	found, err := svc.FindPromoCode(ctx, "acme", "retired")
	if err != nil {
		t.Fatalf("find promo: %v", err)
	}
	if found.Active {
		t.Fatalf("promo stored disabled came back active: %+v", found)
	}
}

func TestPutPromoCodesReplacesList(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	if _, err := svc.PutPromoCodes(ctx, "acme", []domain.PromoCode{
		{Code: "OLD", Active: true},
	}); err != nil {
		t.Fatalf("seed codes: %v", err)
	}

	replaced, err := svc.PutPromoCodes(ctx, "acme", []domain.PromoCode{
		{Code: "NEW", Active: true},
		{Code: "new", Active: false}, // duplicate after case fold, dropped
	})
	if err != nil {
		t.Fatalf("replace codes: %v", err)
	}
	if len(replaced) != 1 || replaced[0].Code != "NEW" {
		t.Fatalf("unexpected replacement result: %+v", replaced)
	}

	listed, err := svc.ListPromoCodes(ctx, "acme")
	if err != nil {
		t.Fatalf("list codes: %v", err)
	}
	if len(listed) != 1 || listed[0].Code != "NEW" {
		t.Fatalf("old codes survived replacement: %+v", listed)
	}
}
