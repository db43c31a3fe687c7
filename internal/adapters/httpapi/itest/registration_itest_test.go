package itest

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
)

type submission struct {
	RegistrationCode string `json:"registrationCode"`
	CredentialURL    string `json:"credentialUrl"`
	DetailURL        string `json:"detailUrl"`
}

type registration struct {
	Code      string  `json:"registrationCode"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Gender    string  `json:"gender"`
	CheckedIn bool    `json:"checkedIn"`
	CheckedAt *string `json:"checkedInAt"`
}

func registrationForm() url.Values {
	return url.Values{
		"email":          {"  Jo@Example.com "},
		"name":           {"Jo Tester"},
		"gender":         {"Girl"},
		"phone":          {"+16125551234"},
		"country":        {"US"},
		"school":         {"University of Minnesota"},
		"level_of_study": {"undergrad"},
		"age":            {"21"},
		"tshirt":         {"l"},
		"driving":        {"on"},
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)

			status, body, _ := srv.do(t, http.MethodPost, "/registration", "", registrationForm(), nil)
			requireStatus(t, status, body, http.StatusCreated)
			sub := mustUnmarshal[submission](t, body)
			if sub.CredentialURL != itestOrigin+"/r/"+sub.RegistrationCode {
				t.Fatalf("credentialUrl=%q", sub.CredentialURL)
			}

			status, body, h := srv.do(t, http.MethodGet, "/r/"+sub.RegistrationCode+".png", "", nil, nil)
			requireStatus(t, status, body, http.StatusOK)
			if h.Get("Content-Type") != "image/png" {
				t.Fatalf("content-type=%q", h.Get("Content-Type"))
			}

			status, body, _ = srv.do(t, http.MethodGet, "/registration/"+sub.RegistrationCode, "", nil, nil)
			requireErrorCode(t, status, body, http.StatusUnauthorized, "UNAUTHORIZED")

			token := srv.login(t)
			status, body, _ = srv.do(t, http.MethodGet, "/registration/"+sub.RegistrationCode, token, nil, nil)
			requireStatus(t, status, body, http.StatusOK)
			reg := mustUnmarshal[struct {
				Registration registration `json:"registration"`
			}](t, body).Registration
			if reg.Email != "Jo@Example.com" || reg.Gender != "female" || reg.CheckedIn {
				t.Fatalf("registration=%+v", reg)
			}

			status, body, _ = srv.do(t, http.MethodPost, "/registration/"+sub.RegistrationCode+"/check-in", token, nil, nil)
			requireStatus(t, status, body, http.StatusOK)
			reg = mustUnmarshal[struct {
				Registration registration `json:"registration"`
			}](t, body).Registration
			if !reg.CheckedIn || reg.CheckedAt == nil {
				t.Fatalf("after check-in: %+v", reg)
			}

			status, body, h = srv.do(t, http.MethodGet, "/registrations.xlsx", token, nil, nil)
			requireStatus(t, status, body, http.StatusOK)
			requireHeaderPresent(t, h, "Content-Disposition")
		})
	}
}

func TestSubmissionValidation(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)

			form := registrationForm()
			form.Set("reimbursement", "on")
			status, body, _ := srv.do(t, http.MethodPost, "/registration", "", form, nil)
			requireErrorCode(t, status, body, http.StatusUnprocessableEntity, "INVALID_SUBMISSION")

			form = registrationForm()
			form.Set("country", "ZZ")
			form.Set("age", "abc")
			status, body, _ = srv.do(t, http.MethodPost, "/registration", "", form, nil)
			got := requireErrorCode(t, status, body, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
			for _, f := range []string{"country", "age"} {
				if _, ok := got.Error.Details[f]; !ok {
					t.Fatalf("details missing %q: %+v", f, got.Error.Details)
				}
			}
		})
	}
}

func TestSubmissionIdempotency(t *testing.T) {
	for _, b := range backendsFromEnv(t) {
		t.Run(string(b), func(t *testing.T) {
			srv := newTestServer(t, b)
			key := http.Header{"Idempotency-Key": {uuid.NewString()}}

			srv.outbox.FailWith(errors.New("mail relay unavailable"))
			status, body, _ := srv.do(t, http.MethodPost, "/registration", "", registrationForm(), key)
			failed := requireErrorCode(t, status, body, http.StatusInternalServerError, "DELIVERY_FAILED")

			srv.outbox.FailWith(nil)
			status, body, h := srv.do(t, http.MethodPost, "/registration", "", registrationForm(), key)
			requireStatus(t, status, body, http.StatusCreated)
			requireHeaderPresent(t, h, "Idempotent-Replayed")
			if got := mustUnmarshal[submission](t, body).RegistrationCode; got != failed.Error.Details["registrationCode"] {
				t.Fatalf("replayed code=%q want %v", got, failed.Error.Details["registrationCode"])
			}

			status, body, _ = srv.do(t, http.MethodPost, "/registration", "", registrationForm(), key)
			requireStatus(t, status, body, http.StatusCreated)
			if n := len(srv.outbox.Sent()); n != 1 {
				t.Fatalf("sent=%d want 1", n)
			}

			other := registrationForm()
			other.Set("name", "Not Jo")
			status, body, _ = srv.do(t, http.MethodPost, "/registration", "", other, key)
			requireErrorCode(t, status, body, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE")
		})
	}
}
