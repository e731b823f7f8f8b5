package normalize

import (
	"net/url"
	"strings"
)

const (
	doubledBookingPrefix = "https://www.booking.comhttps://www.booking.com"
	bookingPrefix        = "https://www.booking.com"
	searchFallbackURL    = "https://www.agoda.com/search?text="
)

type linkCandidate struct {
	get    accessor
	accept func(string) bool
}

// linkCandidates is the booking URL priority list.
var linkCandidates = []linkCandidate{
	{
		get:    field("booking_url"),
		accept: func(s string) bool { return len(s) > 20 && strings.Contains(s, "/hotel/") },
	},
	{
		get:    field("platform", "booking_url"),
		accept: func(s string) bool { return len(s) > 30 && !strings.Contains(s, "/search") },
	},
	{
		get:    field("booking_url"),
		accept: func(s string) bool { return len(s) > 20 && !strings.Contains(s, "/search") },
	},
	{
		get:    field("link"),
		accept: func(s string) bool { return s != "" },
	},
}

// ResolveLink returns the outbound booking URL for an item. When no
// candidate is usable it falls back to a search for name.
func ResolveLink(r RawItem, name string) string {
	for _, c := range linkCandidates {
		raw := strings.TrimSpace(c.get(r))
		if !c.accept(raw) {
			continue
		}
		if link := SanitizeURL(raw); isAbsoluteURL(link) {
			return link
		}
	}
	return searchFallbackURL + encodeComponent(name)
}

// SanitizeURL repairs booking.com links whose prefix was concatenated twice.
func SanitizeURL(s string) string {
	for strings.Contains(s, doubledBookingPrefix) {
		s = strings.ReplaceAll(s, doubledBookingPrefix, bookingPrefix)
	}
	return s
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// encodeComponent escapes s for use inside a query value, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
