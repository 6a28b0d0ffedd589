package middleware

import (
	"net/http"
	"time"

	"kivlab.dev/portfolio-web/internal/i18n"
)

const langCookie = "hl"

// Locale resolves the preferred language from ?hl=, the `hl` cookie, then
// Accept-Language, and stores it on the request context.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := r.URL.Query().Get("hl"); q != "" && bundle.IsSupported(q) {
				lang = bundle.Resolve(q)
				http.SetCookie(w, &http.Cookie{
					Name:     langCookie,
					Value:    lang,
					Path:     "/",
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(365 * 24 * time.Hour),
				})
			} else if c, err := r.Cookie(langCookie); err == nil && bundle.IsSupported(c.Value) {
				lang = bundle.Resolve(c.Value)
			} else {
				lang = bundle.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), lang)))
		})
	}
}

// Lang returns the language resolved by Locale, or fallback when the
// middleware did not run.
func Lang(r *http.Request, fallback string) string {
	if v, ok := r.Context().Value(ctxKeyLang).(string); ok && v != "" {
		return v
	}
	return fallback
}
