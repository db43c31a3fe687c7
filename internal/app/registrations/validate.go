package registrations

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/minnehack/registration-api/internal/domain"
)

// Input is a raw submission keyed by form field name. A key that is missing from the map
// is absent; a key mapped to "" was submitted empty. The two are treated differently.
type Input map[string]string

type FieldError struct {
	Message string `json:"message"`
}

// FieldErrors maps form field names to their error. It is returned from Validate as an error.
type FieldErrors map[string]FieldError

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// ErrReimbursementIncomplete is the cross-field failure: reimbursement was requested but
// reimbursement_amount, reimbursement_desc or reimbursement_strict was not submitted.
var ErrReimbursementIncomplete = errors.New("reimbursement_amount, reimbursement_desc and reimbursement_strict are required when requesting reimbursement")

// Form field names.
const (
	FieldEmail               = "email"
	FieldName                = "name"
	FieldGender              = "gender"
	FieldPhone               = "phone"
	FieldCountry             = "country"
	FieldSchool              = "school"
	FieldLevelOfStudy        = "level_of_study"
	FieldAge                 = "age"
	FieldTShirt              = "tshirt"
	FieldDriving             = "driving"
	FieldDiscordTag          = "discord_tag"
	FieldReimbursement       = "reimbursement"
	FieldReimbursementAmount = "reimbursement_amount"
	FieldReimbursementDesc   = "reimbursement_desc"
	FieldReimbursementStrict = "reimbursement_strict"
	FieldAccommodations      = "accomodations"
	FieldDietary             = "dietary_restrictions"
	FieldResume              = "resume"
)

// rule parses one field. present reports whether the key was submitted.
// A non-empty message rejects the field.
type rule func(raw string, present bool) (value any, message string)

type fieldSpec struct {
	name   string
	rule   rule
	assign func(r *domain.Registration, v any)
}

var schema = []fieldSpec{
	{FieldEmail, text{required: true, max: 100, tags: "email"}.rule, func(r *domain.Registration, v any) { r.Email = v.(string) }},
	{FieldName, text{required: true, max: 100}.rule, func(r *domain.Registration, v any) { r.Name = v.(string) }},
	{FieldGender, text{required: true, max: 100, normalize: domain.NormalizeGender}.rule, func(r *domain.Registration, v any) { r.Gender = v.(string) }},
	{FieldPhone, text{required: true, max: 100, tags: "us_phone"}.rule, func(r *domain.Registration, v any) { r.Phone = v.(string) }},
	{FieldCountry, text{required: true, tags: "country_code"}.rule, func(r *domain.Registration, v any) { r.Country = v.(string) }},
	{FieldSchool, text{required: true, max: 100, normalize: domain.NormalizeSchool}.rule, func(r *domain.Registration, v any) { r.School = v.(string) }},
	{FieldLevelOfStudy, oneOf(domain.LevelsOfStudy), func(r *domain.Registration, v any) { r.LevelOfStudy = v.(domain.LevelOfStudy) }},
	{FieldAge, intRange(1, 100), func(r *domain.Registration, v any) { r.Age = v.(int) }},
	{FieldTShirt, oneOf(domain.TShirtSizes), func(r *domain.Registration, v any) { r.TShirt = v.(domain.TShirtSize) }},
	{FieldDriving, flag, func(r *domain.Registration, v any) { r.Driving = v.(bool) }},
	{FieldDiscordTag, text{max: 100, nullIfEmpty: true}.rule, func(r *domain.Registration, v any) { r.DiscordTag = strPtr(v) }},
	{FieldReimbursement, flag, func(r *domain.Registration, v any) { r.Reimbursement = v.(bool) }},
	{FieldReimbursementAmount, amount, func(r *domain.Registration, v any) { r.ReimbursementAmount = intPtr(v) }},
	{FieldReimbursementDesc, text{max: 10_000, nullIfEmpty: true}.rule, func(r *domain.Registration, v any) { r.ReimbursementDesc = strPtr(v) }},
	{FieldReimbursementStrict, flag, func(r *domain.Registration, v any) { r.ReimbursementStrict = v.(bool) }},
	{FieldAccommodations, text{max: 100}.rule, func(r *domain.Registration, v any) { r.Accommodations = v.(string) }},
	{FieldDietary, text{max: 100}.rule, func(r *domain.Registration, v any) { r.DietaryRestrictions = v.(string) }},
}

// Validate checks every field independently and reports all field errors together as
// FieldErrors. Only when every field passes does it apply the reimbursement cross-field
// check, which fails with ErrReimbursementIncomplete. The returned record has no code.
func Validate(in Input) (domain.Registration, error) {
	var (
		rec  domain.Registration
		errs = FieldErrors{}
	)
	for _, f := range schema {
		raw, present := in[f.name]
		v, msg := f.rule(raw, present)
		if msg != "" {
			errs[f.name] = FieldError{Message: msg}
			continue
		}
		f.assign(&rec, v)
	}
	if len(errs) > 0 {
		return domain.Registration{}, errs
	}

	if rec.Reimbursement {
		for _, k := range []string{FieldReimbursementAmount, FieldReimbursementDesc, FieldReimbursementStrict} {
			if _, ok := in[k]; !ok {
				return domain.Registration{}, ErrReimbursementIncomplete
			}
		}
	}
	return rec, nil
}

// fieldValidator runs the per-field constraint tags. Custom tags: us_phone, country_code,
// valid_text (UTF-8 without NUL, which Postgres TEXT rejects).
var fieldValidator = newFieldValidator()

func newFieldValidator() *validator.Validate {
	v := validator.New()
	custom := map[string]validator.Func{
		"us_phone":     func(fl validator.FieldLevel) bool { return domain.IsValidUSPhone(fl.Field().String()) },
		"country_code": func(fl validator.FieldLevel) bool { return domain.IsCountryCode(fl.Field().String()) },
		"valid_text": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}
	return v
}

// text is a trimmed string field. Absent optional fields become "" (or nil with nullIfEmpty).
type text struct {
	required bool
	max      int
	// tags are extra validator tags applied after the length check, e.g. "email".
	tags        string
	normalize   func(string) string
	nullIfEmpty bool
}

func (t text) tag() string {
	parts := []string{"omitempty"}
	if t.required {
		parts[0] = "required"
	}
	parts = append(parts, "valid_text")
	if t.max > 0 {
		parts = append(parts, "max="+strconv.Itoa(t.max))
	}
	if t.tags != "" {
		parts = append(parts, t.tags)
	}
	return strings.Join(parts, ",")
}

func (t text) rule(raw string, present bool) (any, string) {
	s := strings.TrimSpace(raw)
	if t.required && !present {
		return nil, "is required"
	}
	if err := fieldValidator.Var(s, t.tag()); err != nil {
		return nil, fieldMessage(err)
	}
	if t.nullIfEmpty && s == "" {
		return (*string)(nil), ""
	}
	if t.normalize != nil {
		s = t.normalize(s)
	}
	if t.nullIfEmpty {
		return &s, ""
	}
	return s, ""
}

func oneOf[T ~string](allowed []T) rule {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	tag := "required,oneof=" + strings.Join(names, " ")
	return func(raw string, present bool) (any, string) {
		if !present {
			return nil, "is required"
		}
		s := strings.TrimSpace(raw)
		if err := fieldValidator.Var(s, tag); err != nil {
			return nil, fieldMessage(err)
		}
		return T(s), ""
	}
}

func intRange(lo, hi int) rule {
	tag := fmt.Sprintf("min=%d,max=%d", lo, hi)
	return func(raw string, present bool) (any, string) {
		s := strings.TrimSpace(raw)
		if !present || s == "" {
			return nil, "is required"
		}
		n, ok := parseWhole(s)
		if !ok {
			return nil, "must be a whole number"
		}
		if err := fieldValidator.Var(n, tag); err != nil {
			return nil, fmt.Sprintf("must be between %d and %d", lo, hi)
		}
		return n, ""
	}
}

// flag is absent or "" -> false; any other submitted value -> true.
func flag(raw string, present bool) (any, string) {
	return present && raw != "", ""
}

// amount parses a whole-dollar figure, ignoring thousands separators. Empty or absent is nil.
func amount(raw string, present bool) (any, string) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if !present || s == "" {
		return (*int)(nil), ""
	}
	n, ok := parseWhole(s)
	if !ok {
		return nil, "must be a whole number"
	}
	if err := fieldValidator.Var(n, "min=0"); err != nil {
		return nil, "must not be negative"
	}
	return &n, ""
}

// parseWhole accepts integers and integral decimals ("20", "20.0"). "20.5" is rejected.
func parseWhole(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

// fieldMessage turns the first failed validator tag into the user-facing message.
func fieldMessage(err error) string {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return "is invalid"
	}
	fe := ves[0]
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "valid_text":
		return "must be valid text"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "us_phone":
		return "invalid phone number"
	case "country_code":
		return "must be a recognized country code"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "is invalid"
	}
}

func strPtr(v any) *string {
	p, _ := v.(*string)
	return p
}

func intPtr(v any) *int {
	p, _ := v.(*int)
	return p
}
