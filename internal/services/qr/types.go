package qr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Subtype is derived from a Record by Classify and never stored on its own.
type Subtype string

const (
	SubtypePersonal        Subtype = "personal"
	SubtypeStaticMerchant  Subtype = "static_merchant"
	SubtypeDynamicMerchant Subtype = "dynamic_merchant"
)

// Param is a key/value pair outside the fixed schema, kept verbatim.
type Param struct {
	Key   string
	Value string
}

// Record is a parsed payment URI. Every value is the raw decoded string and
// "" means the key was absent.
type Record struct {
	PayeeAddress         string
	PayeeName            string
	Amount               string
	CurrencyCode         string
	MerchantCategoryCode string
	TransactionRef       string
	Extras               []Param
}

// Extra returns the value of an unrecognised key.
func (r *Record) Extra(key string) (string, bool) {
	for _, p := range r.Extras {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// SetExtra adds or replaces an unrecognised key, keeping its first position.
func (r *Record) SetExtra(key, value string) {
	for i, p := range r.Extras {
		if p.Key == key {
			r.Extras[i].Value = value
			return
		}
	}
	r.Extras = append(r.Extras, Param{Key: key, Value: value})
}

// Equal compares fixed fields exactly and extras as an unordered set.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.PayeeAddress != o.PayeeAddress || r.PayeeName != o.PayeeName ||
		r.Amount != o.Amount || r.CurrencyCode != o.CurrencyCode ||
		r.MerchantCategoryCode != o.MerchantCategoryCode || r.TransactionRef != o.TransactionRef {
		return false
	}
	if len(r.Extras) != len(o.Extras) {
		return false
	}
	for _, p := range r.Extras {
		v, ok := o.Extra(p.Key)
		if !ok || v != p.Value {
			return false
		}
	}
	return true
}

// ExtrasMap copies the extras into a map, for storage in JSON columns.
func (r *Record) ExtrasMap() map[string]string {
	out := make(map[string]string, len(r.Extras))
	for _, p := range r.Extras {
		out[p.Key] = p.Value
	}
	return out
}

func (r *Record) field(key string) *string {
	switch key {
	case KeyPayeeAddress:
		return &r.PayeeAddress
	case KeyPayeeName:
		return &r.PayeeName
	case KeyAmount:
		return &r.Amount
	case KeyCurrency:
		return &r.CurrencyCode
	case KeyMerchantCode:
		return &r.MerchantCategoryCode
	case KeyTxnRef:
		return &r.TransactionRef
	}
	return nil
}

// MarshalJSON writes a flat object keyed by wire names: pa always, the other
// fixed keys when set, then extras in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(k, v string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}

	for _, k := range fixedKeys {
		v := *r.field(k)
		if v == "" && k != KeyPayeeAddress {
			continue
		}
		if err := write(k, v); err != nil {
			return nil, err
		}
	}
	for _, p := range r.Extras {
		if slices.Contains(fixedKeys, p.Key) {
			continue
		}
		if err := write(p.Key, p.Value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the flat form written by MarshalJSON. Extras come back
// sorted by key since JSON objects carry no order.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		var v string
		if err := json.Unmarshal(raw[k], &v); err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		if f := r.field(k); f != nil {
			*f = v
			continue
		}
		r.Extras = append(r.Extras, Param{Key: k, Value: v})
	}
	return nil
}

// ValidationResult lists every violated rule; it is never partial.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Result is what ParseAndValidate and the interpret endpoint return.
type Result struct {
	QRType  Subtype  `json:"qrType"`
	IsValid bool     `json:"isValid"`
	Data    Record   `json:"data"`
	Errors  []string `json:"errors,omitempty"`
}
