package domain

import "time"

type LevelOfStudy string

const (
	LevelMiddle    LevelOfStudy = "middle"
	LevelHigh      LevelOfStudy = "high"
	LevelUndergrad LevelOfStudy = "undergrad"
	LevelGrad      LevelOfStudy = "grad"
	LevelPhD       LevelOfStudy = "phd"
	LevelPostdoc   LevelOfStudy = "postdoc"
)

// LevelsOfStudy lists the accepted values in form order.
var LevelsOfStudy = []LevelOfStudy{LevelMiddle, LevelHigh, LevelUndergrad, LevelGrad, LevelPhD, LevelPostdoc}

type TShirtSize string

const (
	TShirtXS  TShirtSize = "xs"
	TShirtS   TShirtSize = "s"
	TShirtM   TShirtSize = "m"
	TShirtL   TShirtSize = "l"
	TShirtXL  TShirtSize = "xl"
	TShirtXXL TShirtSize = "xxl"
)

var TShirtSizes = []TShirtSize{TShirtXS, TShirtS, TShirtM, TShirtL, TShirtXL, TShirtXXL}

// Registration is one accepted event submission.
//
// Optional fields use pointers; nil means "absent". Accommodations and DietaryRestrictions
// are plain strings that default to "" instead.
type Registration struct {
	Code RegistrationCode

	Email string
	Name  string
	Phone string

	Gender  string
	Age     int
	Country string

	School       string
	LevelOfStudy LevelOfStudy

	TShirt     TShirtSize
	Driving    bool
	DiscordTag *string

	Reimbursement       bool
	ReimbursementAmount *int
	ReimbursementDesc   *string
	ReimbursementStrict bool

	Accommodations      string
	DietaryRestrictions string

	ResumeFilename *string

	// Check-in sub-state. CheckedInAt is non-nil iff CheckedIn is true.
	CheckedIn   bool
	CheckedInAt *time.Time

	CreatedAt time.Time
}

// Clone returns a deep copy so callers can't mutate stored pointer fields.
func (r Registration) Clone() Registration {
	out := r
	out.DiscordTag = cloneStringPtr(r.DiscordTag)
	out.ReimbursementDesc = cloneStringPtr(r.ReimbursementDesc)
	out.ResumeFilename = cloneStringPtr(r.ResumeFilename)
	if r.ReimbursementAmount != nil {
		v := *r.ReimbursementAmount
		out.ReimbursementAmount = &v
	}
	if r.CheckedInAt != nil {
		v := *r.CheckedInAt
		out.CheckedInAt = &v
	}
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
