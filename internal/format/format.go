package format

import (
	"strings"
	"time"
)

// FmtDate formats a calendar date the way the locale writes it.
// The zero time formats as an empty string.
// Example: FmtDate(2024-11-02, "zh-TW") => "2024/11/2"
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "zh-tw", "zh":
		return t.Format("2006/1/2")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// ISODate formats t for datetime attributes.
func ISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// JoinTech joins a tech stack the way cards display it.
func JoinTech(stack []string) string {
	return strings.Join(stack, " • ")
}
