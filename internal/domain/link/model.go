package link

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Domain errors
var (
	ErrEmptyBaseURL   = errors.New("base URL cannot be empty")
	ErrInvalidBaseURL = errors.New("base URL must be absolute (scheme and host)")
)

// Build returns the deep link for a door: the base URL with date and kid
// query parameters added. Existing query parameters on the base URL are kept.
// PRE: baseURL is an absolute URL
// POST: Returns the encoded link, or an error for an unusable base URL
func Build(baseURL, date string, kid int) (string, error) {
	return build(baseURL, "date", date, kid)
}

// BuildLegacy returns a link using the integer day parameter.
// PRE: baseURL is an absolute URL
// POST: Returns the encoded link, or an error for an unusable base URL
func BuildLegacy(baseURL string, day, kid int) (string, error) {
	return build(baseURL, "day", strconv.Itoa(day), kid)
}

func build(baseURL, key, value string, kid int) (string, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return "", ErrEmptyBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidBaseURL
	}
	q := u.Query()
	q.Set(key, value)
	q.Set("kid", strconv.Itoa(kid))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
