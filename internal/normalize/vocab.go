package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/feedqc/feedqc/pkg/models"
)

// Synonym tables mapping raw spellings (case-folded, trimmed) to canonical
// vocabulary values. Anything not covered maps to models.Unknown.
var (
	canonCurrency = map[string]string{
		"usd": "USD", "$": "USD", "us$": "USD",
		"eur": "EUR", "€": "EUR",
		"gbp": "GBP", "£": "GBP",
	}

	canonPlatform = map[string]string{
		"ios": "ios", "iphone": "ios",
		"android": "android", "and": "android",
		"web": "web", "browser": "web",
	}

	canonCustomerStatus = map[string]string{
		"active":   "active",
		"inactive": "inactive",
		"banned":   "banned",
	}

	canonOrderStatus = map[string]string{
		"paid": "paid", "succeeded": "paid",
		"failed":     "failed",
		"refunded":   "refunded",
		"chargeback": "chargeback",
	}

	canonCountry = map[string]string{
		"us": "US", "usa": "US", "united states": "US",
		"in": "IN", "india": "IN",
		"gb": "GB", "uk": "GB", "united kingdom": "GB",
		"br": "BR", "brazil": "BR",
	}

	canonEventType = map[string]string{
		"login":        "login",
		"logout":       "logout",
		"feature_use":  "feature_use",
		"error":        "error",
		"paywall_view": "paywall_view",
	}
)

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// timestampLayouts are tried in order. Offsets are honored and converted to
// UTC; layouts without a zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// MissingText reports whether a raw text value should be treated as absent.
// Blank strings and the textual nulls that show up in exported feeds count.
func MissingText(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// CleanText trims a raw text value, mapping missing markers to "".
func CleanText(s string) string {
	if MissingText(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

// ParseTimestampUTC parses a raw timestamp into UTC. The second return value
// is false when no layout matched.
func ParseTimestampUTC(s string) (time.Time, bool) {
	v := strings.TrimSpace(s)
	if MissingText(v) {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseNumber coerces a raw value to a float. NaN and infinities count as
// unparseable.
func ParseNumber(s string) (float64, bool) {
	v := strings.TrimSpace(s)
	if MissingText(v) {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != f || f > 1e308 || f < -1e308 {
		return 0, false
	}
	return f, true
}

// IsValidEmail reports whether a trimmed value looks like an email address.
func IsValidEmail(s string) bool {
	return emailRE.MatchString(strings.TrimSpace(s))
}

func canonicalize(vocab map[string]string, raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if v, ok := vocab[s]; ok {
		return v
	}
	return models.Unknown
}

// Currency maps a raw currency spelling or symbol to its ISO code.
func Currency(raw string) string { return canonicalize(canonCurrency, strings.ReplaceAll(raw, " ", "")) }

// Platform maps a raw platform spelling to the canonical platform vocabulary.
func Platform(raw string) string { return canonicalize(canonPlatform, raw) }

// CustomerStatus maps a raw status to {active, inactive, banned}.
func CustomerStatus(raw string) string { return canonicalize(canonCustomerStatus, raw) }

// OrderStatus maps a raw status to {paid, failed, refunded, chargeback}.
func OrderStatus(raw string) string { return canonicalize(canonOrderStatus, raw) }

// Country maps a raw country spelling to an ISO-3166 alpha-2 code.
func Country(raw string) string { return canonicalize(canonCountry, raw) }

// EventType maps a raw event type to the canonical event vocabulary.
func EventType(raw string) string { return canonicalize(canonEventType, raw) }

// Fingerprint builds a stable identity for a raw row, used to detect exact
// full-row duplicates before id-based dedupe.
func Fingerprint(row map[string]string) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(row[k])
	}
	return b.String()
}
