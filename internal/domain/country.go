package domain

import (
	"sort"
	"strings"

	"github.com/biter777/countries"
)

type Country struct {
	Code string
	Name string
}

// IsCountryCode reports whether s is an ISO 3166-1 alpha-2 code. Matching is case-sensitive:
// "US" is accepted, "us" is not.
func IsCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	c := countries.ByName(s)
	return c != countries.Unknown && c.Alpha2() == s
}

// Countries returns every known country sorted by display name.
func Countries() []Country {
	all := countries.All()
	out := make([]Country, 0, len(all))
	for _, c := range all {
		code := c.Alpha2()
		if len(code) != 2 {
			continue
		}
		out = append(out, Country{Code: code, Name: c.String()})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
