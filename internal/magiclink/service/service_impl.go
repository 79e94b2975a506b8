package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stackbundle/partnerhub/internal/clock"
	"github.com/stackbundle/partnerhub/internal/config"
	"github.com/stackbundle/partnerhub/internal/magiclink/domain"
	partnerdomain "github.com/stackbundle/partnerhub/internal/partner/domain"
	"github.com/stackbundle/partnerhub/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Partners partnerdomain.Service
	Mailer   email.Provider
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	partners partnerdomain.Service
	mailer   email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		db:       p.DB,
		log:      p.Log.Named("magiclink.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		partners: p.Partners,
		mailer:   p.Mailer,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) error {
	address := strings.ToLower(strings.TrimSpace(req.Email))
	if address == "" || !strings.Contains(address, "@") {
		return domain.ErrInvalidEmail
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.clock.Now()
	link := &domain.MagicLink{
		ID:         s.genID.Generate(),
		Email:      address,
		Slug:       req.Slug,
		TokenHash:  s.hashToken(token),
		RedirectTo: req.RedirectTo,
		ExpiresAt:  now.Add(s.ttl()),
		CreatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, link); err != nil {
		return err
	}

	saasName, from, base := s.branding(ctx, req.Slug)
	loginURL := base + "/auth/callback?token=" + url.QueryEscape(token)

	subject := fmt.Sprintf("Sign in to %s", saasName)
	body := fmt.Sprintf(
		`<p>Click the link below to sign in to %s. It expires in %d minutes and can only be used once.</p><p><a href="%s">Sign in</a></p>`,
		html.EscapeString(saasName), int(s.ttl().Minutes()), loginURL,
	)
	if err := s.mailer.Send(ctx, from, []string{address}, subject, body); err != nil {
		return err
	}

	s.log.Info("magic link issued",
		zap.String("slug", req.Slug),
		zap.Time("expires_at", link.ExpiresAt),
	)
	return nil
}

func (s *Service) Consume(ctx context.Context, token string) (domain.MagicLink, error) {
	if strings.TrimSpace(token) == "" {
		return domain.MagicLink{}, domain.ErrInvalidToken
	}

	link, err := s.repo.FindByTokenHash(ctx, s.db, s.hashToken(token))
	if err != nil {
		return domain.MagicLink{}, err
	}
	if link == nil {
		return domain.MagicLink{}, domain.ErrInvalidToken
	}

	now := s.clock.Now()
	if now.After(link.ExpiresAt) {
		return domain.MagicLink{}, domain.ErrTokenExpired
	}

	won, err := s.repo.MarkConsumed(ctx, s.db, link.ID, now)
	if err != nil {
		return domain.MagicLink{}, err
	}
	if !won {
		return domain.MagicLink{}, domain.ErrTokenConsumed
	}

	link.ConsumedAt = &now
	return *link, nil
}

func (s *Service) ttl() time.Duration {
	minutes := s.cfg.MagicLinkTTLMin
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (s *Service) hashToken(token string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.MagicLinkSecret))
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// branding resolves the sender identity and link host for a partner.
// The partner's own sending domain is used only once verified.
func (s *Service) branding(ctx context.Context, slug string) (saasName, from, base string) {
	saasName = s.cfg.AppName
	from = s.cfg.ResendDefaultFrom
	base = "https://" + s.cfg.PlatformDomain

	if slug == "" {
		return saasName, from, base
	}

	partner, err := s.partners.Get(ctx, slug)
	if err != nil {
		s.log.Warn("partner lookup for branding", zap.String("slug", slug), zap.Error(err))
		return saasName, from, base
	}

	if partner.SaasName != "" {
		saasName = partner.SaasName
	}
	if partner.EmailDomain != "" && strings.EqualFold(partner.ResendDomainStatus, "verified") {
		from = "login@" + partner.EmailDomain
	}
	if partner.CustomDomain != "" {
		base = "https://" + partner.CustomDomain
	} else {
		base = fmt.Sprintf("https://%s.%s", partner.Slug, s.cfg.PlatformDomain)
	}
	return saasName, from, base
}
