package middleware

import (
	"net/http"
	"strings"
)

// HTMXInfo captures request metadata from HX-* headers.
type HTMXInfo struct {
	Request        bool
	Boosted        bool
	CurrentURL     string
	Target         string
	TriggerID      string
	TriggerName    string
	HistoryRestore bool
}

// HTMX marks requests coming from htmx so handlers/middlewares can adapt responses
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := HTMXInfo{
			Request:        strings.EqualFold(r.Header.Get("HX-Request"), "true"),
			Boosted:        strings.EqualFold(r.Header.Get("HX-Boosted"), "true"),
			CurrentURL:     r.Header.Get("HX-Current-URL"),
			Target:         r.Header.Get("HX-Target"),
			TriggerID:      r.Header.Get("HX-Trigger"),
			TriggerName:    r.Header.Get("HX-Trigger-Name"),
			HistoryRestore: strings.EqualFold(r.Header.Get("HX-History-Restore-Request"), "true"),
		}
		// Fragment and full-page responses share URLs.
		w.Header().Add("Vary", "HX-Request")
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), info)))
	})
}
