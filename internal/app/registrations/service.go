package registrations

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/platform/metrics"
	"github.com/minnehack/registration-api/internal/ports/out/clock"
	"github.com/minnehack/registration-api/internal/ports/out/codegen"
	"github.com/minnehack/registration-api/internal/ports/out/notifier"
	"github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

// maxInsertAttempts bounds code regeneration on ErrDuplicateCode.
const maxInsertAttempts = 3

type Options struct {
	// Origin is the public base URL used to build credential and detail links.
	Origin  string
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type Service struct {
	repo   registrationrepo.Repository
	sender notifier.Sender
	codes  codegen.Generator
	clk    clock.Clock

	origin  string
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewService(repo registrationrepo.Repository, sender notifier.Sender, codes codegen.Generator, clk clock.Clock, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		sender:  sender,
		codes:   codes,
		clk:     clk,
		origin:  opts.Origin,
		log:     log,
		metrics: opts.Metrics,
	}
}

type SubmitInput struct {
	Fields Input
	// ResumeFilename is the stored name of an accepted resume, or nil.
	ResumeFilename *string
	// ResumeErr is the upload collaborator's rejection of the attached file, reported as a
	// resume field error alongside any other field errors.
	ResumeErr error
}

type Submission struct {
	Registration  domain.Registration
	CredentialURL string
	DetailURL     string
}

// Submit validates, stores and confirms one registration.
//
// If the record is stored but the confirmation cannot be sent, Submit returns the populated
// Submission together with a DELIVERY_FAILED error; the record is kept.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Submission, error) {
	rec, err := Validate(in.Fields)
	if in.ResumeErr != nil {
		fe, ok := err.(FieldErrors)
		if !ok {
			fe = FieldErrors{}
		}
		fe[FieldResume] = FieldError{Message: in.ResumeErr.Error()}
		err = fe
	}
	if err != nil {
		s.metrics.Submission(metrics.OutcomeInvalid)
		var fe FieldErrors
		if errors.As(err, &fe) {
			return Submission{}, validationError(fe)
		}
		return Submission{}, &Error{Status: 422, Code: CodeInvalidSubmission, Message: err.Error(), Err: err}
	}

	rec.ResumeFilename = in.ResumeFilename
	rec.CreatedAt = s.clk.Now().UTC()

	stored, err := s.insert(ctx, rec)
	if err != nil {
		s.metrics.Submission(metrics.OutcomeError)
		return Submission{}, err
	}

	out := s.submission(stored)
	if err := s.notify(ctx, stored); err != nil {
		s.metrics.Submission(metrics.OutcomeDeliveryFailed)
		return out, err
	}
	s.metrics.Submission(metrics.OutcomeAccepted)
	s.log.Info("registration accepted", zap.String("registration_code", stored.Code.String()))
	return out, nil
}

// ResendConfirmation re-attempts delivery for an existing registration.
func (s *Service) ResendConfirmation(ctx context.Context, code domain.RegistrationCode) (Submission, error) {
	rec, err := s.Get(ctx, code)
	if err != nil {
		return Submission{}, err
	}
	if err := s.notify(ctx, rec); err != nil {
		return s.submission(rec), err
	}
	return s.submission(rec), nil
}

func (s *Service) Get(ctx context.Context, code domain.RegistrationCode) (domain.Registration, error) {
	rec, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return domain.Registration{}, mapRepoErr(err)
	}
	return rec, nil
}

// SetCheckedIn toggles the check-in sub-state. Checking in an already checked-in
// registration keeps the original timestamp.
func (s *Service) SetCheckedIn(ctx context.Context, code domain.RegistrationCode, checkedIn bool) (domain.Registration, error) {
	rec, err := s.repo.SetCheckedIn(ctx, code, checkedIn, s.clk.Now().UTC())
	if err != nil {
		return domain.Registration{}, mapRepoErr(err)
	}
	s.metrics.CheckIn(checkedIn)
	s.log.Info("check-in updated",
		zap.String("registration_code", code.String()),
		zap.Bool("checked_in", checkedIn),
	)
	return rec, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Registration, error) {
	return s.repo.List(ctx)
}

func (s *Service) CredentialURL(code domain.RegistrationCode) string {
	return s.origin + "/r/" + code.String()
}

func (s *Service) DetailURL(code domain.RegistrationCode) string {
	return s.origin + "/registration/" + code.String()
}

func (s *Service) insert(ctx context.Context, rec domain.Registration) (domain.Registration, error) {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		rec.Code = domain.RegistrationCode(s.codes.NewCode())
		err := s.repo.Insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, registrationrepo.ErrDuplicateCode) {
			return domain.Registration{}, fmt.Errorf("insert registration: %w", err)
		}
		s.log.Warn("registration code collision", zap.Int("attempt", attempt))
	}
	return domain.Registration{}, &Error{
		Status:  500,
		Code:    CodeCodeCollision,
		Message: "could not allocate a registration code",
		Err:     registrationrepo.ErrDuplicateCode,
	}
}

func (s *Service) notify(ctx context.Context, rec domain.Registration) error {
	err := s.sender.SendConfirmation(ctx, notifier.Confirmation{
		To:   rec.Email,
		Name: rec.Name,
		Code: rec.Code,
	})
	if err == nil {
		return nil
	}
	s.log.Error("confirmation delivery failed",
		zap.String("registration_code", rec.Code.String()),
		zap.Error(err),
	)
	return &Error{
		Status:  500,
		Code:    CodeDeliveryFailed,
		Message: "registration saved but confirmation email could not be sent",
		Details: map[string]any{"registrationCode": rec.Code.String()},
		Err:     fmt.Errorf("%w: %v", ErrDeliveryFailed, err),
	}
}

func (s *Service) submission(rec domain.Registration) Submission {
	return Submission{
		Registration:  rec,
		CredentialURL: s.CredentialURL(rec.Code),
		DetailURL:     s.DetailURL(rec.Code),
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, registrationrepo.ErrNotFound) {
		return &Error{Status: 404, Code: CodeNotFound, Message: "registration not found", Err: err}
	}
	return err
}
