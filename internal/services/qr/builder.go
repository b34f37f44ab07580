package qr

import (
	"net/url"
	"strings"
)

// Build formats a record as a payment URI: fixed keys in wire order, then
// extras in their recorded order. Values are path-escaped.
func Build(rec *Record) string {
	var b strings.Builder
	b.WriteString(SchemePrefix)

	first := true
	add := func(k, v string) {
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(url.PathEscape(k))
		b.WriteByte('=')
		b.WriteString(url.PathEscape(v))
	}

	for _, k := range fixedKeys {
		if v := *rec.field(k); v != "" {
			add(k, v)
		}
	}
	for _, p := range rec.Extras {
		if rec.field(p.Key) != nil || p.Key == "" {
			continue
		}
		add(p.Key, p.Value)
	}
	return b.String()
}
