package email

import "context"

type Provider interface {
	Send(ctx context.Context, from string, to []string, subject string, htmlBody string) error
}

type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, from string, to []string, subject string, htmlBody string) error {
	return nil
}
