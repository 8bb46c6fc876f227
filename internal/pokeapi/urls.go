package pokeapi

import (
	"net/url"
	"strconv"
	"strings"
)

// ExtractID returns the trailing integer path segment of an upstream URL,
// e.g. 25 for "https://pokeapi.co/api/v2/pokemon-species/25/". It returns 0
// when the URL does not end in a number.
func ExtractID(rawURL string) int {
	s := strings.TrimRight(rawURL, "/")
	i := strings.LastIndexByte(s, '/')
	if i < 0 || i == len(s)-1 {
		return 0
	}
	id, err := strconv.Atoi(s[i+1:])
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// offsetOf returns the offset query parameter of a list navigation URL.
func offsetOf(rawURL *string) *int {
	if rawURL == nil || *rawURL == "" {
		return nil
	}
	u, err := url.Parse(*rawURL)
	if err != nil {
		return nil
	}
	offset, err := strconv.Atoi(u.Query().Get("offset"))
	if err != nil {
		// A navigation link without an explicit offset points at the start.
		offset = 0
	}
	return &offset
}

// normalizeName lower-cases and trims an identifier used in a path.
func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
