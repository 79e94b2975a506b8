package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/emailverify/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	partnerrepo "github.com/stackbundle/partnerhub/internal/partner/repository"
	partnersvc "github.com/stackbundle/partnerhub/internal/partner/service"
	"github.com/stackbundle/partnerhub/internal/providers/email"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type registrarStub struct {
	creates  int
	verifies int
	gets     int
	domain   email.Domain
}

func (r *registrarStub) CreateDomain(ctx context.Context, name string) (email.Domain, error) {
	r.creates++
	d := r.domain
	d.Name = name
	return d, nil
}

func (r *registrarStub) VerifyDomain(ctx context.Context, id string) error {
	r.verifies++
	return nil
}

func (r *registrarStub) GetDomain(ctx context.Context, id string) (email.Domain, error) {
	r.gets++
	return r.domain, nil
}

func setup(t *testing.T, registrar *registrarStub) (domain.Service, partnerdomain.Service) {
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

	if err := conn.AutoMigrate(&partnerdomain.Partner{}, &partnerdomain.PartnerDomain{}, &partnerdomain.PromoCode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Exec("DELETE FROM partners; DELETE FROM partner_domains; DELETE FROM partner_promo_codes;").Error; err != nil {
		t.Fatalf("truncate: %v", err)
	}

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	partners := partnersvc.New(partnersvc.Params{
		Cfg:   config.Config{PlatformDomain: "stackbundle.io"},
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)),
		Repo:  partnerrepo.Provide(),
	})

	svc := New(Params{
		Log:       zap.NewNop(),
		Partners:  partners,
		Registrar: registrar,
	})
	return svc, partners
}

func seedPartnerWithDomain(t *testing.T, partners partnerdomain.Service) {
	t.Helper()
	ctx := context.Background()
	if _, err := partners.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	emailDomain := "mail.acme.dev"
	if _, err := partners.Patch(ctx, "acme", partnerdomain.Patch{EmailDomain: &emailDomain}); err != nil {
		t.Fatalf("patch: %v", err)
	}
}

func TestEnsureDomainRegistersOnce(t *testing.T) {
	registrar := &registrarStub{domain: email.Domain{
		ID:     "dom_1",
		Status: "not_started",
		Records: []email.DNSRecord{
			{Record: "SPF", Type: "TXT", Status: "not_started"},
		},
	}}
	svc, partners := setup(t, registrar)
	seedPartnerWithDomain(t, partners)
	ctx := context.Background()

	status, err := svc.EnsureDomain(ctx, "acme")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if registrar.creates != 1 {
		t.Fatalf("expected one registration, got %d", registrar.creates)
	}
	if status.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", status.Status)
	}

	// A second ensure reads back instead of re-registering.
	if _, err := svc.EnsureDomain(ctx, "acme"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if registrar.creates != 1 {
		t.Fatalf("domain must only be registered once, got %d creates", registrar.creates)
	}
	if registrar.gets != 1 {
		t.Fatalf("expected a provider read on the second ensure, got %d", registrar.gets)
	}

	partner, err := partners.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("get partner: %v", err)
	}
	if partner.ResendDomainID != "dom_1" {
		t.Fatalf("domain id not persisted: %q", partner.ResendDomainID)
	}
}

func TestPendingRecordForcesOverallPending(t *testing.T) {
	registrar := &registrarStub{domain: email.Domain{
		ID:     "dom_1",
		Status: "verified",
		Records: []email.DNSRecord{
			{Record: "SPF", Type: "TXT", Status: "verified"},
			{Record: "DKIM", Type: "TXT", Status: "pending"},
		},
	}}
	svc, partners := setup(t, registrar)
	seedPartnerWithDomain(t, partners)
	ctx := context.Background()

	id := "dom_1"
	if _, err := partners.Patch(ctx, "acme", partnerdomain.Patch{ResendDomainID: &id}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	status, err := svc.CheckDomain(ctx, "acme")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.Status != domain.StatusPending {
		t.Fatalf("one pending record must hold the domain at pending, got %q", status.Status)
	}
	if registrar.verifies != 1 {
		t.Fatalf("check must nudge verification, got %d", registrar.verifies)
	}
}

func TestAllRecordsVerifiedReportsVerified(t *testing.T) {
	registrar := &registrarStub{domain: email.Domain{
		ID:     "dom_1",
		Status: "verified",
		Records: []email.DNSRecord{
			{Record: "SPF", Type: "TXT", Status: "verified"},
			{Record: "DKIM", Type: "TXT", Status: "verified"},
		},
	}}
	svc, partners := setup(t, registrar)
	seedPartnerWithDomain(t, partners)
	ctx := context.Background()

	id := "dom_1"
	if _, err := partners.Patch(ctx, "acme", partnerdomain.Patch{ResendDomainID: &id}); err != nil {
		t.Fatalf("patch: %v", err)
	}

	status, err := svc.CheckDomain(ctx, "acme")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status.Status != domain.StatusVerified {
		t.Fatalf("expected verified, got %q", status.Status)
	}

	partner, err := partners.Get(ctx, "acme")
	if err != nil {
		t.Fatalf("get partner: %v", err)
	}
	if partner.ResendDomainStatus != domain.StatusVerified {
		t.Fatalf("status not persisted: %q", partner.ResendDomainStatus)
	}
}

func TestEnsureDomainWithoutEmailDomain(t *testing.T) {
	svc, partners := setup(t, &registrarStub{})
	ctx := context.Background()
	if _, err := partners.Bootstrap(ctx, "acme", "owner@acme.dev"); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if _, err := svc.EnsureDomain(ctx, "acme"); err != domain.ErrNoEmailDomain {
		t.Fatalf("expected ErrNoEmailDomain, got %v", err)
	}
}
