// Package anonymize masks identifying values in decoded JSON documents so
// that they can be logged or shared.
package anonymize

import "strings"

// Placeholder replaces every masked value.
const Placeholder = "**anonymized**"

// sensitiveKeys are matched case-insensitively.
var sensitiveKeys = map[string]struct{}{
	"vin":          {},
	"licenseplate": {},
	"lat":          {},
	"lon":          {},
	"latitude":     {},
	"longitude":    {},
	"heading":      {},
	"street":       {},
	"city":         {},
	"postalcode":   {},
	"phone":        {},
	"email":        {},
}

// Data returns a deep copy of v in which the values of sensitive keys are
// replaced by Placeholder, at any depth of nested objects and arrays. v is
// expected to hold what encoding/json decodes into an any; other values are
// returned unchanged.
func Data(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if Sensitive(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = Data(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Data(val)
		}
		return out
	default:
		return v
	}
}

// Sensitive reports whether values stored under key are masked.
func Sensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}
