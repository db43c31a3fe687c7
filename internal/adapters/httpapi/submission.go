package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minnehack/registration-api/internal/app/registrations"
	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/ports/out/idempotency"
	"github.com/minnehack/registration-api/internal/ports/out/uploads"
)

const (
	submissionRoute      = "/registration"
	submissionTokenField = "submission_token"
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 255

	// Form fields around a maximum-size resume fit in the extra megabyte.
	maxSubmissionBytes = uploads.MaxResumeBytes + 1<<20
	multipartMemory    = 1 << 20
)

type resumeUpload struct {
	file        multipart.File
	contentType string
}

// SubmitRegistration accepts the public registration form, urlencoded or multipart with an
// optional resume file.
//
// Idempotency:
// - Idempotency-Key header, else the submission_token form field
// - replay if same key+payload; 409 if same key with a different payload
// - a replayed submission whose confirmation failed retries delivery
func (s *Server) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)
	if err := parseSubmissionForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed form body", nil)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	key := submissionKey(r)
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "idempotency key too long", nil)
		return
	}

	resume, err := openResume(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed resume upload", nil)
		return
	}
	if resume != nil {
		defer resume.file.Close()
	}

	fields := submissionFields(r.PostForm)

	var bodyHash string
	if key != "" && s.Idem != nil {
		bodyHash, err = hashSubmission(fields, resume)
		if err != nil {
			writeAppError(w, r, s.log, err)
			return
		}
		if s.replaySubmission(w, r, key, bodyHash) {
			return
		}
	}

	resumeName, resumeErr, err := s.saveResume(ctx, resume)
	if err != nil {
		writeAppError(w, r, s.log, err)
		return
	}

	out, err := s.Registrations.Submit(ctx, registrations.SubmitInput{
		Fields:         fields,
		ResumeFilename: resumeName,
		ResumeErr:      resumeErr,
	})
	if err != nil {
		if out.Registration.Code == "" {
			s.discardResume(ctx, resumeName)
		} else if bodyHash != "" {
			// Stored but unconfirmed; a replay retries delivery.
			s.rememberSubmission(ctx, key, bodyHash, http.StatusInternalServerError, out)
		}
		writeAppError(w, r, s.log, err)
		return
	}

	if bodyHash != "" {
		s.rememberSubmission(ctx, key, bodyHash, http.StatusCreated, out)
	}
	writeJSON(w, http.StatusCreated, submissionResponse(out))
}

// replaySubmission answers a keyed submission from the store when it can. A claim without
// a response record means the first attempt's outcome is unknown, so the caller must retry
// later rather than register twice.
func (s *Server) replaySubmission(w http.ResponseWriter, r *http.Request, key, bodyHash string) bool {
	ctx := r.Context()
	claim := submissionClaim(key)
	respFP := claim
	respFP.BodyHash = bodyHash
	rec, ok, err := s.Idem.Get(ctx, respFP)
	if err != nil {
		writeAppError(w, r, s.log, fmt.Errorf("read idempotency record: %w", err))
		return true
	}
	if ok {
		return s.replayRecord(w, r, key, bodyHash, rec)
	}

	meta, ok, err := s.Idem.Get(ctx, claim)
	if err != nil {
		writeAppError(w, r, s.log, fmt.Errorf("read idempotency claim: %w", err))
		return true
	}
	if !ok {
		return false
	}
	if string(meta.Body) != bodyHash {
		writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSE", "idempotency key reuse with different payload", nil)
		return true
	}
	w.Header().Set("Retry-After", "1")
	writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_IN_PROGRESS", "a submission with this key is still being processed", nil)
	return true
}

func (s *Server) replayRecord(w http.ResponseWriter, r *http.Request, key, bodyHash string, rec idempotency.Record) bool {
	switch rec.StatusCode {
	case http.StatusCreated:
		w.Header().Set("Content-Type", rec.ContentType)
		w.Header().Set("Idempotent-Replayed", "true")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(rec.Body)
		return true
	case http.StatusInternalServerError:
		var prior SubmissionResponse
		if err := json.Unmarshal(rec.Body, &prior); err != nil || prior.RegistrationCode == "" {
			writeAppError(w, r, s.log, errors.New("decode idempotency record: corrupt body"))
			return true
		}
		out, err := s.Registrations.ResendConfirmation(r.Context(), domain.RegistrationCode(prior.RegistrationCode))
		if err != nil {
			writeAppError(w, r, s.log, err)
			return true
		}
		s.rememberSubmission(r.Context(), key, bodyHash, http.StatusCreated, out)
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusCreated, submissionResponse(out))
		return true
	default:
		writeAppError(w, r, s.log, fmt.Errorf("idempotency record has status %d", rec.StatusCode))
		return true
	}
}

// rememberSubmission stores the response record before the claim, so a stored claim
// always has a record behind it.
func (s *Server) rememberSubmission(ctx context.Context, key, bodyHash string, status int, out registrations.Submission) {
	b, err := json.Marshal(submissionResponse(out))
	if err != nil {
		return
	}
	now := time.Now().UTC()
	claim := submissionClaim(key)
	respFP := claim
	respFP.BodyHash = bodyHash
	if err := s.Idem.Put(ctx, respFP, idempotency.Record{
		StatusCode:  status,
		ContentType: "application/json",
		Body:        b,
		CreatedAt:   now,
	}); err != nil {
		s.log.Warn("store idempotency record", zap.Error(err))
		return
	}
	if err := s.Idem.Put(ctx, claim, idempotency.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte(bodyHash),
		CreatedAt:   now,
	}); err != nil {
		s.log.Warn("store idempotency claim", zap.Error(err))
	}
}

// saveResume returns the stored name, or a rejection to report as a field error. The last
// return is reserved for storage failures.
func (s *Server) saveResume(ctx context.Context, up *resumeUpload) (*string, error, error) {
	if up == nil {
		return nil, nil, nil
	}
	name, err := s.Uploads.Save(ctx, up.contentType, up.file)
	switch {
	case err == nil:
		return &name, nil, nil
	case errors.Is(err, uploads.ErrUnsupportedType):
		return nil, uploads.ErrUnsupportedType, nil
	case errors.Is(err, uploads.ErrTooLarge):
		return nil, uploads.ErrTooLarge, nil
	default:
		return nil, nil, fmt.Errorf("save resume: %w", err)
	}
}

func (s *Server) discardResume(ctx context.Context, name *string) {
	if name == nil {
		return
	}
	if err := s.Uploads.Delete(ctx, *name); err != nil {
		s.log.Warn("delete orphaned resume", zap.String("filename", *name), zap.Error(err))
	}
}

func submissionResponse(out registrations.Submission) SubmissionResponse {
	return SubmissionResponse{
		RegistrationCode: out.Registration.Code.String(),
		CredentialURL:    out.CredentialURL,
		DetailURL:        out.DetailURL,
	}
}

func submissionClaim(key string) idempotency.Fingerprint {
	return idempotency.Fingerprint{
		Key:    idempotency.Key(key),
		Method: http.MethodPost,
		Route:  submissionRoute,
	}
}

func parseSubmissionForm(r *http.Request) error {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func submissionKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(idempotencyHeader)); k != "" {
		return k
	}
	return strings.TrimSpace(r.PostForm.Get(submissionTokenField))
}

// submissionFields keeps the first value of each body field.
func submissionFields(form url.Values) registrations.Input {
	in := make(registrations.Input, len(form))
	for k, vs := range form {
		if k == submissionTokenField || len(vs) == 0 {
			continue
		}
		in[k] = vs[0]
	}
	return in
}

func openResume(r *http.Request) (*resumeUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile(registrations.FieldResume)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resumeUpload{file: f, contentType: hdr.Header.Get("Content-Type")}, nil
}

// hashSubmission digests the sorted fields plus the resume bytes, then rewinds the resume.
func hashSubmission(fields registrations.Input, resume *resumeUpload) (string, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		_, _ = io.WriteString(h, k)
		_, _ = h.Write([]byte{0})
		_, _ = io.WriteString(h, fields[k])
		_, _ = h.Write([]byte{0})
	}
	if resume != nil {
		_, _ = io.WriteString(h, resume.contentType)
		_, _ = h.Write([]byte{0})
		if _, err := io.Copy(h, resume.file); err != nil {
			return "", fmt.Errorf("hash resume: %w", err)
		}
		if _, err := resume.file.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("rewind resume: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
