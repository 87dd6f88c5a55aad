package search

import (
	"net/url"
	"strconv"
)

const (
	DefaultPerPage = 8
	MaxPerPage     = 30
)

// TargetURL builds the results page URL for query at offset
func TargetURL(base *url.URL, query string, offset int) string {
	u := *base
	u.RawQuery = url.Values{
		"q": {query},
		"s": {strconv.Itoa(offset)},
	}.Encode()
	return u.String()
}

func clampPerPage(n int) int {
	switch {
	case n <= 0:
		return DefaultPerPage
	case n > MaxPerPage:
		return MaxPerPage
	default:
		return n
	}
}
