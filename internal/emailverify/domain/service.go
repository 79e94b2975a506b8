package domain

import (
	"context"
	"errors"

	"github.com/stackbundle/partnerhub/internal/providers/email"
)

// StatusPending and StatusVerified are the only states surfaced to
// partners regardless of the richer provider vocabulary.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
)

// DomainStatus is the normalized verification state of a partner's
// sending domain.
type DomainStatus struct {
	DomainID string             `json:"domain_id"`
	Domain   string             `json:"domain"`
	Status   string             `json:"status"`
	Records  []email.DNSRecord  `json:"records"`
}

type Service interface {
	// EnsureDomain registers the partner's email domain with the mail
	// provider if not already registered and returns its state.
	EnsureDomain(ctx context.Context, slug string) (DomainStatus, error)
	// CheckDomain triggers verification and refreshes the cached state.
	CheckDomain(ctx context.Context, slug string) (DomainStatus, error)
}

// Registrar is the slice of the mail provider needed for domain
// verification.
type Registrar interface {
	CreateDomain(ctx context.Context, name string) (email.Domain, error)
	VerifyDomain(ctx context.Context, id string) error
	GetDomain(ctx context.Context, id string) (email.Domain, error)
}

var ErrNoEmailDomain = errors.New("no_email_domain")
