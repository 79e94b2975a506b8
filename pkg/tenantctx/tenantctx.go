// Package tenantctx carries the resolved partner slug through a request
// context so handlers do not re-resolve the host.
package tenantctx

import "context"

type ctxKey struct{}

// WithSlug returns a context carrying the partner slug.
func WithSlug(ctx context.Context, slug string) context.Context {
	return context.WithValue(ctx, ctxKey{}, slug)
}

// Slug returns the partner slug stored in ctx, if any.
func Slug(ctx context.Context) (string, bool) {
	slug, ok := ctx.Value(ctxKey{}).(string)
	return slug, ok && slug != ""
}
