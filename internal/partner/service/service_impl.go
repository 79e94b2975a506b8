package service

import (
	"context"
	"net"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/partner/domain"
	"github.com/stackbundle/partnerhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

var allowedCurrencies = map[string]struct{}{
	"eur": {},
	"usd": {},
}

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		cfg:   p.Cfg,
		db:    p.DB,
		log:   p.Log.Named("partner.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Bootstrap(ctx context.Context, slug, adminEmail string) (domain.Partner, error) {
	slug = normalizeSlug(slug)
	if !slugPattern.MatchString(slug) {
		return domain.Partner{}, domain.ErrInvalidSlug
	}
	adminEmail = strings.TrimSpace(adminEmail)
	if adminEmail == "" || !strings.Contains(adminEmail, "@") {
		return domain.Partner{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return domain.Partner{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	now := s.clock.Now()
	partner := domain.Partner{
		ID:         s.genID.Generate(),
		Slug:       slug,
		AdminEmail: adminEmail,
		Currency:   "eur",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &partner); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race against a concurrent bootstrap; the
			// earlier writer's admin_email wins.
			existing, findErr := s.repo.FindBySlug(ctx, s.db, slug)
			if findErr == nil && existing != nil {
				return *existing, nil
			}
		}
		return domain.Partner{}, err
	}

	s.log.Info("partner bootstrapped", zap.String("slug", slug))
	return partner, nil
}

func (s *Service) Get(ctx context.Context, slug string) (domain.Partner, error) {
	slug = normalizeSlug(slug)
	if slug == "" {
		return domain.Partner{}, domain.ErrInvalidSlug
	}
	partner, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner == nil {
		return domain.Partner{}, domain.ErrNotFound
	}
	return *partner, nil
}

func (s *Service) Patch(ctx context.Context, slug string, patch domain.Patch) (domain.Partner, error) {
	slug = normalizeSlug(slug)
	if slug == "" {
		return domain.Partner{}, domain.ErrInvalidSlug
	}
	partner, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return domain.Partner{}, err
	}
	if partner == nil {
		return domain.Partner{}, domain.ErrNotFound
	}

	if patch.Currency != nil {
		currency := strings.ToLower(strings.TrimSpace(*patch.Currency))
		if _, ok := allowedCurrencies[currency]; !ok {
			return domain.Partner{}, domain.ErrInvalidCurrency
		}
		partner.Currency = currency
	}
	applyString(&partner.SaasName, patch.SaasName)
	applyString(&partner.AdminEmail, patch.AdminEmail)
	applyString(&partner.SupportEmail, patch.SupportEmail)
	applyString(&partner.ConnectedAccount, patch.ConnectedAccount)
	applyString(&partner.MonthlyPrice, patch.MonthlyPrice)
	applyString(&partner.YearlyPrice, patch.YearlyPrice)
	applyInt(&partner.AnnualDiscountPct, patch.AnnualDiscountPct)
	applyBool(&partner.AllowPromoCodes, patch.AllowPromoCodes)
	applyString(&partner.StripeProductIDMonth, patch.StripeProductIDMonth)
	applyString(&partner.StripeProductIDYear, patch.StripeProductIDYear)
	applyString(&partner.StripePriceIDMonth, patch.StripePriceIDMonth)
	applyString(&partner.StripePriceIDYear, patch.StripePriceIDYear)
	applyInt(&partner.StripePriceUnitAmountMonth, patch.StripePriceUnitAmountMonth)
	applyInt(&partner.StripePriceUnitAmountYear, patch.StripePriceUnitAmountYear)
	applyString(&partner.StripePriceCurrencyMonth, patch.StripePriceCurrencyMonth)
	applyString(&partner.StripePriceCurrencyYear, patch.StripePriceCurrencyYear)
	applyString(&partner.EmailDomain, patch.EmailDomain)
	applyString(&partner.ResendDomainID, patch.ResendDomainID)
	applyString(&partner.ResendDomainStatus, patch.ResendDomainStatus)
	if patch.ResendDomainRecords != nil {
		partner.ResendDomainRecords = patch.ResendDomainRecords
	}
	applyString(&partner.CustomDomain, patch.CustomDomain)

	partner.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, partner); err != nil {
		return domain.Partner{}, err
	}
	return *partner, nil
}

func (s *Service) ResolveHost(ctx context.Context, host string) (domain.Partner, error) {
	host = normalizeHost(host)
	if host == "" {
		return domain.Partner{}, domain.ErrInvalidHost
	}

	mapping, err := s.repo.FindDomain(ctx, s.db, host)
	if err != nil {
		return domain.Partner{}, err
	}
	if mapping != nil {
		return s.Get(ctx, mapping.Slug)
	}

	suffix := "." + strings.ToLower(s.cfg.PlatformDomain)
	if strings.HasSuffix(host, suffix) {
		slug := strings.TrimSuffix(host, suffix)
		if !strings.Contains(slug, ".") {
			return s.Get(ctx, slug)
		}
	}

	return domain.Partner{}, domain.ErrNotFound
}

func (s *Service) MapDomain(ctx context.Context, host, slug string) error {
	host = normalizeHost(host)
	if host == "" {
		return domain.ErrInvalidHost
	}
	if _, err := s.Get(ctx, slug); err != nil {
		return err
	}
	return s.repo.UpsertDomain(ctx, s.db, &domain.PartnerDomain{
		Host:      host,
		Slug:      normalizeSlug(slug),
		CreatedAt: s.clock.Now(),
	})
}

func (s *Service) UnmapDomain(ctx context.Context, host string) error {
	host = normalizeHost(host)
	if host == "" {
		return domain.ErrInvalidHost
	}
	return s.repo.DeleteDomain(ctx, s.db, host)
}

func (s *Service) ListPromoCodes(ctx context.Context, slug string) ([]domain.PromoCode, error) {
	if _, err := s.Get(ctx, slug); err != nil {
		return nil, err
	}
	return s.repo.ListPromoCodes(ctx, s.db, normalizeSlug(slug))
}

func (s *Service) PutPromoCodes(ctx context.Context, slug string, codes []domain.PromoCode) ([]domain.PromoCode, error) {
	if _, err := s.Get(ctx, slug); err != nil {
		return nil, err
	}
	slug = normalizeSlug(slug)

	now := s.clock.Now()
	normalized := make([]domain.PromoCode, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		trimmed := strings.TrimSpace(code.Code)
		if trimmed == "" {
			continue
		}
		lowered := strings.ToLower(trimmed)
		if _, dup := seen[lowered]; dup {
			continue
		}
		seen[lowered] = struct{}{}

		code.ID = s.genID.Generate()
		code.Slug = slug
		code.Code = trimmed
		code.CreatedAt = now
		code.UpdatedAt = now
		normalized = append(normalized, code)
	}

	if err := s.repo.ReplacePromoCodes(ctx, s.db, slug, normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

func (s *Service) FindPromoCode(ctx context.Context, slug, code string) (domain.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.PromoCode{}, domain.ErrPromoNotFound
	}
	codes, err := s.ListPromoCodes(ctx, slug)
	if err != nil {
		return domain.PromoCode{}, err
	}
	for _, entry := range codes {
		if strings.EqualFold(entry.Code, code) {
			return entry, nil
		}
	}
	return domain.PromoCode{}, domain.ErrPromoNotFound
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if stripped, _, err := net.SplitHostPort(host); err == nil {
		host = stripped
	}
	return strings.TrimSuffix(host, ".")
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyInt(dst *int64, src *int64) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
