package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key derives a cache key from a logical resource namespace and the query
// parameters that shaped the response. Parameters are sorted, so any request
// ordering of ?a=1&b=2 lands on the same entry. Empty values are dropped.
func Key(resource string, params map[string]string) string {
	if len(params) == 0 {
		return resource
	}
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return resource
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(resource)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}
