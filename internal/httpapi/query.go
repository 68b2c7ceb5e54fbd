package httpapi

import (
	"net/url"
	"strconv"
	"time"
)

// parseDate accepts a calendar date or a full RFC3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// optionalDate parses the named query param when present.
func optionalDate(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolParam(q url.Values, name string) bool {
	v, _ := strconv.ParseBool(q.Get(name))
	return v
}
