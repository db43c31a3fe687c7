package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	xlsxexport "github.com/minnehack/registration-api/internal/adapters/xlsx"
	"github.com/minnehack/registration-api/internal/app/credentials"
	"github.com/minnehack/registration-api/internal/app/registrations"
	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/platform/adminsession"
	"github.com/minnehack/registration-api/internal/ports/out/idempotency"
	"github.com/minnehack/registration-api/internal/ports/out/uploads"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ServerOptions struct {
	Logger *zap.Logger
	// CookieSecure sets the Secure attribute on the admin session cookie.
	CookieSecure bool
}

// Server holds the HTTP handlers. Idem may be nil, which disables submission replay.
type Server struct {
	Registrations *registrations.Service
	Credentials   *credentials.Service
	Sessions      *adminsession.Manager
	Uploads       uploads.Store
	Idem          idempotency.Store

	log          *zap.Logger
	cookieSecure bool
}

func NewServer(regs *registrations.Service, creds *credentials.Service, sessions *adminsession.Manager, uploadsStore uploads.Store, idem idempotency.Store, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Registrations: regs,
		Credentials:   creds,
		Sessions:      sessions,
		Uploads:       uploadsStore,
		Idem:          idem,
		log:           log,
		cookieSecure:  opts.CookieSecure,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeLogin(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed login request", nil)
		return
	}
	tok, exp, err := s.Sessions.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, adminsession.ErrInvalidCredentials) {
			s.log.Warn("admin login rejected", zap.String("remote_addr", r.RemoteAddr))
			writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
			return
		}
		writeAppError(w, r, s.log, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     adminsession.CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		MaxAge:   int(s.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{ExpiresAt: exp})
}

func (s *Server) AdminLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminsession.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetRegistration(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	rec, err := s.Registrations.Get(r.Context(), code)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{Registration: s.registrationDTO(rec)})
}

func (s *Server) CheckIn(w http.ResponseWriter, r *http.Request) {
	s.setCheckedIn(w, r, true)
}

func (s *Server) CheckOut(w http.ResponseWriter, r *http.Request) {
	s.setCheckedIn(w, r, false)
}

func (s *Server) setCheckedIn(w http.ResponseWriter, r *http.Request, checkedIn bool) {
	code, ok := pathCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	rec, err := s.Registrations.SetCheckedIn(r.Context(), code, checkedIn)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, registrationResponse{Registration: s.registrationDTO(rec)})
}

type scannerResponse struct {
	Success bool `json:"success"`
	Error   any  `json:"error"`
}

// ScannerCheckIn serves the badge scanner, which expects {"success","error"} bodies.
func (s *Server) ScannerCheckIn(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, chi.URLParam(r, "code"))
	if !ok {
		return
	}
	_, err := s.Registrations.SetCheckedIn(r.Context(), code, true)
	if err != nil {
		var appErr *registrations.Error
		if errors.As(err, &appErr) && appErr.Code == registrations.CodeNotFound {
			writeJSON(w, http.StatusNotFound, scannerResponse{Success: false, Error: "Invalid registration code"})
			return
		}
		s.log.Error("scanner check-in failed", zap.String("registration_code", code.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, scannerResponse{Success: false, Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, scannerResponse{Success: true, Error: false})
}

func (s *Server) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.Registrations.List(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	out := make([]RegistrationDTO, 0, len(regs))
	for _, rec := range regs {
		out = append(out, s.registrationDTO(rec))
	}
	writeJSON(w, http.StatusOK, listRegistrationsResponse{Registrations: out})
}

func (s *Server) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := s.Registrations.List(r.Context())
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	var buf bytes.Buffer
	if err := xlsxexport.Write(&buf, regs); err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="registrations.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetCredential serves the QR credential PNG for /r/{code} and /r/{code}.png.
func (s *Server) GetCredential(w http.ResponseWriter, r *http.Request) {
	code, ok := pathCode(w, r, strings.TrimSuffix(chi.URLParam(r, "code"), ".png"))
	if !ok {
		return
	}
	png, err := s.Credentials.GetCredentialImage(r.Context(), code)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ListCountries returns a bare array sorted by name, for the form's country select.
func (s *Server) ListCountries(w http.ResponseWriter, _ *http.Request) {
	all := domain.Countries()
	out := make([]CountryDTO, 0, len(all))
	for _, c := range all {
		out = append(out, CountryDTO{Code: c.Code, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

// pathCode binds the {code} path segment, writing a 400 when it is missing or malformed.
func pathCode(w http.ResponseWriter, r *http.Request, raw string) (domain.RegistrationCode, bool) {
	var code domain.RegistrationCode
	err := runtime.BindStyledParameterWithOptions("simple", "code", raw, &code, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil || code == "" {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid registration code", nil)
		return "", false
	}
	return code, true
}
