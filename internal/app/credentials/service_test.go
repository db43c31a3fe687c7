package credentials_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	memimagestore "github.com/minnehack/registration-api/internal/adapters/memory/imagestore"
	memregistrationrepo "github.com/minnehack/registration-api/internal/adapters/memory/registrationrepo"
	"github.com/minnehack/registration-api/internal/app/credentials"
	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/platform/metrics"
	"github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

// countingGenerator returns content-derived bytes and counts invocations.
type countingGenerator struct {
	calls atomic.Int32
	err   error
	delay time.Duration
	seen  []string
	mu    sync.Mutex
}

func (g *countingGenerator) Generate(ctx context.Context, content string) ([]byte, error) {
	g.calls.Add(1)
	g.mu.Lock()
	g.seen = append(g.seen, content)
	g.mu.Unlock()
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return nil, g.err
	}
	return []byte("PNG:" + content), nil
}

// failingPutStore reads from an empty cache and rejects every write.
type failingPutStore struct{ puts atomic.Int32 }

func (s *failingPutStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (s *failingPutStore) Put(context.Context, string, []byte) error {
	s.puts.Add(1)
	return errors.New("disk full")
}

// brokenStore fails reads as well as writes.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}
func (brokenStore) Put(context.Context, string, []byte) error { return errors.New("connection refused") }

type CacheSuite struct {
	suite.Suite

	repo    *memregistrationrepo.Repo
	store   *memimagestore.Store
	gen     *countingGenerator
	metrics *metrics.Metrics
	svc     *credentials.Service
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.repo = memregistrationrepo.NewRepo()
	s.store = memimagestore.NewStore()
	s.gen = &countingGenerator{}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = credentials.NewService(s.repo, s.store, s.gen, "https://register.example.com", credentials.Options{Metrics: s.metrics})

	s.Require().NoError(s.repo.Insert(context.Background(), domain.Registration{Code: "abc123", Name: "Jo"}))
}

func (s *CacheSuite) TestFirstCallGeneratesSecondCallHits() {
	ctx := context.Background()

	first, err := s.svc.GetCredentialImage(ctx, "abc123")
	s.Require().NoError(err)
	s.NotEmpty(first)
	s.Equal(int32(1), s.gen.calls.Load())
	s.Equal([]string{"https://register.example.com/registration/abc123"}, s.gen.seen)

	second, err := s.svc.GetCredentialImage(ctx, "abc123")
	s.Require().NoError(err)
	s.True(bytes.Equal(first, second))
	s.Equal(int32(1), s.gen.calls.Load(), "cache hit must not regenerate")

	s.Equal(1, s.store.Len())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialCacheHits))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialCacheMisses))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialGenerations))
}

func (s *CacheSuite) TestUnknownCodeIsNotFound() {
	_, err := s.svc.GetCredentialImage(context.Background(), "nope")

	var appErr *credentials.Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal(404, appErr.Status)
	s.Equal(credentials.CodeNotFound, appErr.Code)
	s.ErrorIs(err, registrationrepo.ErrNotFound)
	s.Equal(int32(0), s.gen.calls.Load(), "no image for a nonexistent registration")
	s.Equal(0, s.store.Len())
}

func (s *CacheSuite) TestGenerationFailureIsDistinct() {
	s.gen.err = errors.New("logo unreadable")

	_, err := s.svc.GetCredentialImage(context.Background(), "abc123")

	var appErr *credentials.Error
	s.Require().True(errors.As(err, &appErr))
	s.Equal(500, appErr.Status)
	s.Equal(credentials.CodeGenerationFailed, appErr.Code)
	s.ErrorIs(err, credentials.ErrGenerationFailed)
	s.NotErrorIs(err, registrationrepo.ErrNotFound)
	s.Equal(0, s.store.Len())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialGenerationFailures))
}

func (s *CacheSuite) TestMalformedOriginIsGenerationFailure() {
	svc := credentials.NewService(s.repo, s.store, s.gen, "::not a url", credentials.Options{})

	_, err := svc.GetCredentialImage(context.Background(), "abc123")
	s.ErrorIs(err, credentials.ErrGenerationFailed)
	s.Equal(int32(0), s.gen.calls.Load())
}

func (s *CacheSuite) TestCacheWriteFailureStillReturnsBytes() {
	store := &failingPutStore{}
	svc := credentials.NewService(s.repo, store, s.gen, "https://register.example.com", credentials.Options{Metrics: s.metrics})

	b, err := svc.GetCredentialImage(context.Background(), "abc123")
	s.Require().NoError(err)
	s.Equal("PNG:https://register.example.com/registration/abc123", string(b))
	s.Equal(int32(1), store.puts.Load())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CredentialCacheWriteFailures))
}

func (s *CacheSuite) TestCacheReadFailureFallsBackToGeneration() {
	svc := credentials.NewService(s.repo, brokenStore{}, s.gen, "https://register.example.com", credentials.Options{})

	b, err := svc.GetCredentialImage(context.Background(), "abc123")
	s.Require().NoError(err)
	s.NotEmpty(b)
}

func (s *CacheSuite) TestConcurrentMissesGenerateOnce() {
	s.gen.delay = 20 * time.Millisecond

	const n = 16
	var (
		wg      sync.WaitGroup
		results = make([][]byte, n)
		errs    = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.svc.GetCredentialImage(context.Background(), "abc123")
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		s.Require().NoError(errs[i])
		s.True(bytes.Equal(results[0], results[i]))
	}
	s.Equal(int32(1), s.gen.calls.Load())
}

func (s *CacheSuite) TestEvictedEntryIsRegenerated() {
	ctx := context.Background()
	first, err := s.svc.GetCredentialImage(ctx, "abc123")
	s.Require().NoError(err)

	fresh := credentials.NewService(s.repo, memimagestore.NewStore(), s.gen, "https://register.example.com", credentials.Options{})
	again, err := fresh.GetCredentialImage(ctx, "abc123")
	s.Require().NoError(err)
	s.True(bytes.Equal(first, again))
	s.Equal(int32(2), s.gen.calls.Load())
}
