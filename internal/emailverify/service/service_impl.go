package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/stackbundle/partnerhub/internal/emailverify/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"github.com/stackbundle/partnerhub/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Partners  partnerdomain.Service
	Registrar domain.Registrar
}

type Service struct {
	log       *zap.Logger
	partners  partnerdomain.Service
	registrar domain.Registrar
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("emailverify.service"),
		partners:  p.Partners,
		registrar: p.Registrar,
	}
}

func (s *Service) EnsureDomain(ctx context.Context, slug string) (domain.DomainStatus, error) {
	partner, err := s.partners.Get(ctx, slug)
	if err != nil {
		return domain.DomainStatus{}, err
	}
	if partner.EmailDomain == "" {
		return domain.DomainStatus{}, domain.ErrNoEmailDomain
	}

	if partner.ResendDomainID != "" {
		return s.refresh(ctx, partner, false)
	}

	created, err := s.registrar.CreateDomain(ctx, partner.EmailDomain)
	if err != nil {
		return domain.DomainStatus{}, err
	}
	s.log.Info("sending domain registered",
		zap.String("slug", slug),
		zap.String("domain", partner.EmailDomain),
		zap.String("domain_id", created.ID),
	)

	status := normalize(created)
	if err := s.persist(ctx, slug, status); err != nil {
		return domain.DomainStatus{}, err
	}
	return status, nil
}

func (s *Service) CheckDomain(ctx context.Context, slug string) (domain.DomainStatus, error) {
	partner, err := s.partners.Get(ctx, slug)
	if err != nil {
		return domain.DomainStatus{}, err
	}
	if partner.EmailDomain == "" {
		return domain.DomainStatus{}, domain.ErrNoEmailDomain
	}
	if partner.ResendDomainID == "" {
		return s.EnsureDomain(ctx, slug)
	}
	return s.refresh(ctx, partner, true)
}

// refresh re-reads the provider state, optionally nudging verification
// first, and persists the normalized result on the partner record.
func (s *Service) refresh(ctx context.Context, partner partnerdomain.Partner, verify bool) (domain.DomainStatus, error) {
	if verify {
		if err := s.registrar.VerifyDomain(ctx, partner.ResendDomainID); err != nil {
			s.log.Warn("verify domain",
				zap.String("slug", partner.Slug),
				zap.Error(err),
			)
		}
	}

	got, err := s.registrar.GetDomain(ctx, partner.ResendDomainID)
	if err != nil {
		return domain.DomainStatus{}, err
	}
	got.ID = partner.ResendDomainID

	status := normalize(got)
	if err := s.persist(ctx, partner.Slug, status); err != nil {
		return domain.DomainStatus{}, err
	}
	return status, nil
}

func (s *Service) persist(ctx context.Context, slug string, status domain.DomainStatus) error {
	records, err := json.Marshal(status.Records)
	if err != nil {
		return err
	}
	_, err = s.partners.Patch(ctx, slug, partnerdomain.Patch{
		ResendDomainID:      &status.DomainID,
		ResendDomainStatus:  &status.Status,
		ResendDomainRecords: records,
	})
	return err
}

// normalize folds the provider's status vocabulary down to
// pending/verified. The domain only counts as verified when the
// top-level status says so and every DNS record has verified too.
func normalize(d email.Domain) domain.DomainStatus {
	status := domain.StatusPending
	if strings.EqualFold(d.Status, domain.StatusVerified) && allRecordsVerified(d.Records) {
		status = domain.StatusVerified
	}
	records := d.Records
	if records == nil {
		records = []email.DNSRecord{}
	}
	return domain.DomainStatus{
		DomainID: d.ID,
		Domain:   d.Name,
		Status:   status,
		Records:  records,
	}
}

func allRecordsVerified(records []email.DNSRecord) bool {
	for _, r := range records {
		if !strings.EqualFold(r.Status, domain.StatusVerified) {
			return false
		}
	}
	return true
}
