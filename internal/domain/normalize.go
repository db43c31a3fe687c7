package domain

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// CanonicalUMN is the stored spelling for every known variant of the host university's name.
const CanonicalUMN = "University of Minnesota Twin Cities"

// genderSynonyms maps a case-folded answer to its canonical value.
var genderSynonyms = map[string]string{
	"man":    "male",
	"male":   "male",
	"boy":    "male",
	"m":      "male",
	"woman":  "female",
	"female": "female",
	"girl":   "female",
	"f":      "female",
}

// schoolSynonyms maps a case-folded school name to its canonical value.
var schoolSynonyms = map[string]string{
	"university of minnesota":                    CanonicalUMN,
	"umn":                                        CanonicalUMN,
	"u of m":                                     CanonicalUMN,
	"university of minnesota twin cities":        CanonicalUMN,
	"university of minnesota, twin cities":       CanonicalUMN,
	"university of minnesota-twin cities":        CanonicalUMN,
	"university of minnesota twin cities (umn)":  CanonicalUMN,
	"university of minnesota, twin cities (umn)": CanonicalUMN,
	"university of minnesota-twin cities (umn)":  CanonicalUMN,
}

// NormalizeGender trims s and coalesces known synonyms to "male" or "female".
// Only the lookup is case-folded; an unmatched answer keeps its original casing.
func NormalizeGender(s string) string {
	return coalesce(genderSynonyms, s)
}

// NormalizeSchool trims s and replaces known spellings of the host university with CanonicalUMN.
func NormalizeSchool(s string) string {
	return coalesce(schoolSynonyms, s)
}

func coalesce(table map[string]string, s string) string {
	s = strings.TrimSpace(s)
	if v, ok := table[strings.ToLower(s)]; ok {
		return v
	}
	return s
}

// IsValidUSPhone reports whether s parses as a valid phone number with the U.S. as the default region.
// Numbers with an explicit country prefix are validated against that country's rules.
func IsValidUSPhone(s string) bool {
	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}
