// Package feed retrieves and pages the candidate feed: query construction,
// supersession of in-flight requests, and the page/filter state machine.
package feed

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filters are the optional feed filters keyed by query parameter. Values may
// be string, int, *int, []string or fmt.Stringer; anything else is formatted
// with fmt.Sprint.
type Filters map[string]any

// Clone returns a shallow copy, so a stored filter set is not changed through
// the caller's map.
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	out := make(Filters, len(f))
	for k, v := range f {
		if s, ok := v.([]string); ok {
			v = append([]string(nil), s...)
		}
		out[k] = v
	}
	return out
}

// BuildQuery renders a feed request query. page and limit are always present.
// Nil values, empty or whitespace-only strings and empty slices are left out
// entirely; slices are comma-joined. limit is not clamped. Filter entries
// named page or limit never override the arguments.
func BuildQuery(page, limit int, filters Filters) url.Values {
	q := url.Values{}
	for key, value := range filters {
		if v, ok := queryValue(value); ok {
			q.Set(key, v)
		}
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func queryValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return queryValue(*v)
	case int:
		return strconv.Itoa(v), true
	case *int:
		if v == nil {
			return "", false
		}
		return strconv.Itoa(*v), true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return strings.Join(v, ","), true
	case fmt.Stringer:
		return queryValue(v.String())
	default:
		return queryValue(fmt.Sprint(v))
	}
}
