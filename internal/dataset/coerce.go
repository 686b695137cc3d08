// Package dataset holds helpers shared by the static dataset loaders: lenient
// coercion of loosely typed cells, property lookup by alias and place name
// folding.
package dataset

import (
	"math"
	"strings"
	"unicode"

	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Float coerces a dataset cell to a number. Nil, empty strings, booleans,
// NaN and anything cast cannot parse count as absent.
func Float(v any) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			return 0, false
		}
		v = t
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FloatPtr is Float returning nil for absent values.
func FloatPtr(v any) *float64 {
	f, ok := Float(v)
	if !ok {
		return nil
	}
	return &f
}

// String coerces a dataset cell to trimmed text. Nil becomes "".
func String(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Lookup returns the first non-empty value stored under any of keys.
func Lookup(props map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := props[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// LookupString is Lookup coerced to a string.
func LookupString(props map[string]any, keys ...string) string {
	v, _ := Lookup(props, keys...)
	return String(v)
}

// FoldName reduces a place name to a comparison key: trimmed, lowercased and
// stripped of diacritics, with the dotless ı folded to i. "İzmir", "IZMIR"
// and "izmir" all fold to "izmir".
func FoldName(name string) string {
	// transform.Chain keeps state, so each call builds its own.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(strip, strings.TrimSpace(name))
	if err != nil {
		folded = strings.TrimSpace(name)
	}
	return strings.ReplaceAll(strings.ToLower(folded), "ı", "i")
}
