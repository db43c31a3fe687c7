package domain

import (
	"strings"
	"testing"
)

func TestNormalizeGender(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"male", "male"},
		{"Man", "male"},
		{"MALE", "male"},
		{"Boy", "male"},
		{"M", "male"},
		{"  boy  ", "male"},
		{"female", "female"},
		{"Woman", "female"},
		{"GIRL", "female"},
		{"f", "female"},
		{"Non-Binary", "Non-Binary"},
		{"  Agender ", "Agender"},
	}
	for _, tc := range cases {
		if got := NormalizeGender(tc.in); got != tc.want {
			t.Fatalf("NormalizeGender(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeGender_Idempotent(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"male", "female", "Non-Binary", "Boy"} {
		once := NormalizeGender(in)
		if twice := NormalizeGender(once); twice != once {
			t.Fatalf("NormalizeGender not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeSchool_KnownVariants(t *testing.T) {
	t.Parallel()

	variants := []string{
		"University of Minnesota",
		"UMN",
		"U of M",
		"university of minnesota twin cities",
		"University of Minnesota, Twin Cities",
		"UNIVERSITY OF MINNESOTA-TWIN CITIES",
		"University of Minnesota Twin Cities (UMN)",
		"University of Minnesota, Twin Cities (umn)",
		"University of Minnesota-Twin Cities (UMN)",
	}
	for _, v := range variants {
		if got := NormalizeSchool(v); got != CanonicalUMN {
			t.Fatalf("NormalizeSchool(%q)=%q, want %q", v, got, CanonicalUMN)
		}
	}
}

func TestNormalizeSchool_PreservesUnknown(t *testing.T) {
	t.Parallel()

	if got := NormalizeSchool("  Macalester College "); got != "Macalester College" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeSchool("St. Olaf COLLEGE"); got != "St. Olaf COLLEGE" {
		t.Fatalf("casing not preserved: %q", got)
	}
	// Near misses are not coalesced.
	if got := NormalizeSchool("University of Minnesota Duluth"); got != "University of Minnesota Duluth" {
		t.Fatalf("got %q", got)
	}
}

func TestIsValidUSPhone(t *testing.T) {
	t.Parallel()

	valid := []string{"+16125551234", "(612) 555-1234", "612-555-1234", "+1 651 555 0199"}
	for _, p := range valid {
		if !IsValidUSPhone(p) {
			t.Fatalf("IsValidUSPhone(%q)=false, want true", p)
		}
	}
	invalid := []string{"", "123", "not a phone", "555-1234"}
	for _, p := range invalid {
		if IsValidUSPhone(p) {
			t.Fatalf("IsValidUSPhone(%q)=true, want false", p)
		}
	}
}

func TestIsCountryCode(t *testing.T) {
	t.Parallel()

	for _, c := range []string{"US", "CA", "MX", "DE"} {
		if !IsCountryCode(c) {
			t.Fatalf("IsCountryCode(%q)=false", c)
		}
	}
	for _, c := range []string{"", "us", "USA", "ZZ", "United States"} {
		if IsCountryCode(c) {
			t.Fatalf("IsCountryCode(%q)=true", c)
		}
	}
}

func TestCountries_SortedByName(t *testing.T) {
	t.Parallel()

	cs := Countries()
	if len(cs) < 200 {
		t.Fatalf("len=%d, want a full country table", len(cs))
	}
	for i := 1; i < len(cs); i++ {
		if strings.ToLower(cs[i-1].Name) > strings.ToLower(cs[i].Name) {
			t.Fatalf("not sorted at %d: %q > %q", i, cs[i-1].Name, cs[i].Name)
		}
	}
}
