// Package credentials serves the scannable credential image for a registration through a
// read-through cache.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/platform/metrics"
	"github.com/minnehack/registration-api/internal/ports/out/credentialimage"
	"github.com/minnehack/registration-api/internal/ports/out/imagestore"
	"github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

type Service struct {
	repo   registrationrepo.Repository
	store  imagestore.Store
	gen    credentialimage.Generator
	origin string

	log     *zap.Logger
	metrics *metrics.Metrics

	// At most one generation per code is in flight in this process. Separate processes may
	// still both generate; the output is deterministic so the duplicate write is harmless.
	flight singleflight.Group
}

func NewService(repo registrationrepo.Repository, store imagestore.Store, gen credentialimage.Generator, origin string, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		repo:    repo,
		store:   store,
		gen:     gen,
		origin:  origin,
		log:     log,
		metrics: m,
	}
}

// ContentURL is the URL encoded into the credential image for code.
func (s *Service) ContentURL(code domain.RegistrationCode) (string, error) {
	u, err := url.Parse(s.origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q", s.origin)
	}
	return u.JoinPath("registration", code.String()).String(), nil
}

// GetCredentialImage returns the PNG for code, generating and caching it on a miss.
// A failed cache write is logged and the fresh image is still returned.
func (s *Service) GetCredentialImage(ctx context.Context, code domain.RegistrationCode) ([]byte, error) {
	if _, err := s.repo.GetByCode(ctx, code); err != nil {
		if errors.Is(err, registrationrepo.ErrNotFound) {
			return nil, &Error{Status: 404, Code: CodeNotFound, Message: "registration not found", Err: err}
		}
		return nil, err
	}

	key := code.String()
	if b, ok := s.lookup(ctx, key); ok {
		s.metrics.CredentialCacheHits.Inc()
		return b, nil
	}
	s.metrics.CredentialCacheMisses.Inc()

	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.generate(context.WithoutCancel(ctx), code)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Service) lookup(ctx context.Context, key string) ([]byte, bool) {
	b, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("credential cache read failed; regenerating",
			zap.String("registration_code", key),
			zap.Error(err),
		)
		return nil, false
	}
	if !ok || len(b) == 0 {
		return nil, false
	}
	return b, true
}

func (s *Service) generate(ctx context.Context, code domain.RegistrationCode) ([]byte, error) {
	// A flight that finished just before this one started may already have written the image.
	if b, ok := s.lookup(ctx, code.String()); ok {
		return b, nil
	}

	content, err := s.ContentURL(code)
	if err != nil {
		return nil, s.generationFailed(code, err)
	}
	b, err := s.gen.Generate(ctx, content)
	if err != nil {
		return nil, s.generationFailed(code, err)
	}
	if len(b) == 0 {
		return nil, s.generationFailed(code, errors.New("generator returned no bytes"))
	}
	s.metrics.CredentialGenerations.Inc()

	if err := s.store.Put(ctx, code.String(), b); err != nil {
		s.metrics.CredentialCacheWriteFailures.Inc()
		s.log.Warn("credential cache write failed",
			zap.String("registration_code", code.String()),
			zap.Error(err),
		)
	}
	return b, nil
}

func (s *Service) generationFailed(code domain.RegistrationCode, cause error) error {
	s.metrics.CredentialGenerationFailures.Inc()
	s.log.Error("credential generation failed",
		zap.String("registration_code", code.String()),
		zap.Error(cause),
	)
	return &Error{
		Status:  500,
		Code:    CodeGenerationFailed,
		Message: "could not generate credential image",
		Err:     fmt.Errorf("%w: %v", ErrGenerationFailed, cause),
	}
}
