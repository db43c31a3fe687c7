package httpapi

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/minnehack/registration-api/internal/domain"
)

// RegistrationDTO is the admin view of a registration. Optional values are always present in
// the JSON, as null when absent.
type RegistrationDTO struct {
	Code                string                       `json:"registrationCode"`
	Email               string                       `json:"email"`
	Name                string                       `json:"name"`
	Phone               string                       `json:"phone"`
	Gender              string                       `json:"gender"`
	Age                 int                          `json:"age"`
	Country             string                       `json:"country"`
	School              string                       `json:"school"`
	LevelOfStudy        string                       `json:"levelOfStudy"`
	TShirt              string                       `json:"tshirt"`
	Driving             bool                         `json:"driving"`
	DiscordTag          nullable.Nullable[string]    `json:"discordTag"`
	Reimbursement       bool                         `json:"reimbursement"`
	ReimbursementAmount nullable.Nullable[int]       `json:"reimbursementAmount"`
	ReimbursementDesc   nullable.Nullable[string]    `json:"reimbursementDesc"`
	ReimbursementStrict bool                         `json:"reimbursementStrict"`
	Accommodations      string                       `json:"accommodations"`
	DietaryRestrictions string                       `json:"dietaryRestrictions"`
	ResumeFilename      nullable.Nullable[string]    `json:"resumeFilename"`
	CheckedIn           bool                         `json:"checkedIn"`
	CheckedInAt         nullable.Nullable[time.Time] `json:"checkedInAt"`
	CreatedAt           time.Time                    `json:"createdAt"`
	CredentialURL       string                       `json:"credentialUrl"`
}

type registrationResponse struct {
	Registration RegistrationDTO `json:"registration"`
}

type listRegistrationsResponse struct {
	Registrations []RegistrationDTO `json:"registrations"`
}

type SubmissionResponse struct {
	RegistrationCode string `json:"registrationCode"`
	CredentialURL    string `json:"credentialUrl"`
	DetailURL        string `json:"detailUrl"`
}

type CountryDTO struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) registrationDTO(r domain.Registration) RegistrationDTO {
	return RegistrationDTO{
		Code:                r.Code.String(),
		Email:               r.Email,
		Name:                r.Name,
		Phone:               r.Phone,
		Gender:              r.Gender,
		Age:                 r.Age,
		Country:             r.Country,
		School:              r.School,
		LevelOfStudy:        string(r.LevelOfStudy),
		TShirt:              string(r.TShirt),
		Driving:             r.Driving,
		DiscordTag:          nullableFrom(r.DiscordTag),
		Reimbursement:       r.Reimbursement,
		ReimbursementAmount: nullableFrom(r.ReimbursementAmount),
		ReimbursementDesc:   nullableFrom(r.ReimbursementDesc),
		ReimbursementStrict: r.ReimbursementStrict,
		Accommodations:      r.Accommodations,
		DietaryRestrictions: r.DietaryRestrictions,
		ResumeFilename:      nullableFrom(r.ResumeFilename),
		CheckedIn:           r.CheckedIn,
		CheckedInAt:         nullableFrom(r.CheckedInAt),
		CreatedAt:           r.CreatedAt,
		CredentialURL:       s.Registrations.CredentialURL(r.Code),
	}
}

func nullableFrom[T any](p *T) nullable.Nullable[T] {
	if p == nil {
		return nullable.NewNullNullable[T]()
	}
	return nullable.NewNullableWithValue(*p)
}

// decodeLogin accepts either a JSON body or a urlencoded/multipart form.
func decodeLogin(r *http.Request, out *loginRequest) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "application/json" {
		return json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(out)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	out.Username = r.PostForm.Get("username")
	out.Password = r.PostForm.Get("password")
	return nil
}
