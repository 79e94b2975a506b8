package domain

import (
	"context"
	"errors"
)

type IssueRequest struct {
	Email      string
	Slug       string
	RedirectTo string
}

type Service interface {
	// Issue mints a single-use login link and emails it to the
	// recipient with the partner's branding.
	Issue(ctx context.Context, req IssueRequest) error
	// Consume validates a raw token and marks it used. Returns the
	// link so the caller can establish a session and redirect.
	Consume(ctx context.Context, token string) (MagicLink, error)
}

var (
	ErrInvalidToken  = errors.New("invalid_token")
	ErrTokenExpired  = errors.New("token_expired")
	ErrTokenConsumed = errors.New("token_consumed")
	ErrInvalidEmail  = errors.New("invalid_email")
)
