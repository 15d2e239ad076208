package cache

import (
	"net/url"
	"sort"
	"strings"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

// GuestIdentity stands in for callers without an identity.
const GuestIdentity = "guest"

const keySeparator = "|"

// DeriveKey builds the cache key for (identity, query, filters).
//
// The key is lower-cased, so casing differences collapse into one entry.
// Filters are ordered by name, and every component is query-escaped, so the
// separators can never appear inside a component.
func DeriveKey(identity, query string, filters domain.Filters) string {
	var b strings.Builder
	b.WriteString(IdentityPrefix(identity))
	b.WriteString(escapeComponent(query))

	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b.WriteString(keySeparator)
		b.WriteString(escapeComponent(name))
		b.WriteByte('=')
		b.WriteString(escapeComponent(filters[name]))
	}

	return strings.ToLower(b.String())
}

// IdentityPrefix is the prefix shared by every key derived for identity.
func IdentityPrefix(identity string) string {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		identity = GuestIdentity
	}
	return strings.ToLower(escapeComponent(identity) + keySeparator)
}

// escapeComponent lower-cases, collapses whitespace and escapes s.
func escapeComponent(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return url.QueryEscape(s)
}
