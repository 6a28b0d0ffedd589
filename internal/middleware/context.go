package middleware

import "context"

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyHTMX ctxKey = "htmx"
	ctxKeyLang ctxKey = "lang"
	ctxKeyCSRF ctxKey = "csrf"
)

// WithHTMX stores htmx request metadata in context.
func WithHTMX(ctx context.Context, info HTMXInfo) context.Context {
	return context.WithValue(ctx, ctxKeyHTMX, info)
}

// HTMXInfoFromContext retrieves htmx metadata; returns zero value if absent.
func HTMXInfoFromContext(ctx context.Context) HTMXInfo {
	v, _ := ctx.Value(ctxKeyHTMX).(HTMXInfo)
	return v
}

// IsHTMX returns whether this is an htmx request.
func IsHTMX(ctx context.Context) bool {
	return HTMXInfoFromContext(ctx).Request
}

// WithLang stores the resolved language.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKeyLang, lang)
}

// WithCSRFToken stores the request's CSRF token.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyCSRF, token)
}

// CSRFToken returns the token templates must echo back on unsafe requests.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCSRF).(string)
	return v
}
