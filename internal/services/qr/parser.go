package qr

import (
	"net/url"
	"strings"
)

// Parse turns a payment URI into a Record. It returns nil for anything that
// does not start with SchemePrefix; that is "not this protocol", not an error.
//
// The query is unescaped as a whole before it is split, so an escaped '&'
// or '=' inside a value acts as a separator. When unescaping fails the raw
// query is split instead, so one bad escape does not void the parse.
func Parse(raw string) *Record {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, SchemePrefix) {
		return nil
	}

	query := raw[len(SchemePrefix):]
	if decoded, err := url.PathUnescape(query); err == nil {
		query = decoded
	}

	rec := &Record{}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if f := rec.field(key); f != nil {
			*f = value
			continue
		}
		rec.SetExtra(key, value)
	}
	return rec
}

// Classify derives the subtype. Amount and merchant category are the only
// discriminators; a category with an amount but no currency stays static.
func Classify(rec *Record) Subtype {
	if rec == nil || rec.MerchantCategoryCode == "" {
		return SubtypePersonal
	}
	if rec.Amount != "" && rec.CurrencyCode != "" {
		return SubtypeDynamicMerchant
	}
	return SubtypeStaticMerchant
}

// ParseAndValidate composes Parse, Classify and Validate. It never panics.
func ParseAndValidate(raw string) Result {
	rec := Parse(raw)
	if rec == nil {
		return Result{
			QRType:  SubtypePersonal,
			IsValid: false,
			Data:    Record{},
			Errors:  []string{MsgInvalidFormat},
		}
	}

	v := Validate(rec)
	res := Result{
		QRType:  Classify(rec),
		IsValid: v.IsValid,
		Data:    *rec,
	}
	if !v.IsValid {
		res.Errors = v.Errors
	}
	return res
}
