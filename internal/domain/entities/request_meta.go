package entities

import "context"

type requestMetaKey struct{}

// RequestMeta describes the HTTP caller for audit records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// WithRequestMeta stores caller details on ctx.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the caller details stored on ctx, if any.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
