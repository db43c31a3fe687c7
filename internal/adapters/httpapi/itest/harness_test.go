package itest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	fsuploads "github.com/minnehack/registration-api/internal/adapters/fs/uploads"
	"github.com/minnehack/registration-api/internal/adapters/httpapi"
	memclock "github.com/minnehack/registration-api/internal/adapters/memory/clock"
	memidempotency "github.com/minnehack/registration-api/internal/adapters/memory/idempotency"
	memimagestore "github.com/minnehack/registration-api/internal/adapters/memory/imagestore"
	"github.com/minnehack/registration-api/internal/adapters/memory/outbox"
	memregistrationrepo "github.com/minnehack/registration-api/internal/adapters/memory/registrationrepo"
	pgidempotency "github.com/minnehack/registration-api/internal/adapters/postgres/idempotency"
	pgregistrationrepo "github.com/minnehack/registration-api/internal/adapters/postgres/registrationrepo"
	postgres_testutil "github.com/minnehack/registration-api/internal/adapters/postgres/testutil"
	"github.com/minnehack/registration-api/internal/adapters/qrcode"
	"github.com/minnehack/registration-api/internal/app/credentials"
	"github.com/minnehack/registration-api/internal/app/registrations"
	"github.com/minnehack/registration-api/internal/platform/adminsession"
	"github.com/minnehack/registration-api/internal/platform/codegen"
	idempotencyport "github.com/minnehack/registration-api/internal/ports/out/idempotency"
	registrationrepoport "github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

const (
	itestOrigin   = "https://itest.example.com"
	adminUser     = "organizer"
	adminPassword = "itest-password"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
	outbox  *outbox.Outbox
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))

	var (
		repo      registrationrepoport.Repository
		idemStore idempotencyport.Store
	)
	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		repo = pgregistrationrepo.NewRepo(pool)
		idemStore = pgidempotency.NewStore(pool)
	case backendMemory:
		repo = memregistrationrepo.NewRepo()
		idemStore = memidempotency.NewStore()
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	up, err := fsuploads.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("uploads: %v", err)
	}
	box := outbox.New(nil)

	regs := registrations.NewService(repo, box, codegen.New(), clk, registrations.Options{Origin: itestOrigin})
	creds := credentials.NewService(repo, memimagestore.NewStore(), qrcode.NewGenerator(qrcode.Config{Size: 128}), itestOrigin, credentials.Options{})
	sessions := adminsession.NewManager(adminUser, adminPassword, "itest-cookie-secret", time.Hour, clk)

	api := httpapi.NewServer(regs, creds, sessions, up, idemStore, httpapi.ServerOptions{})
	srv := httptest.NewServer(httpapi.NewRouter(api, httpapi.RouterOptions{}))
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
		outbox:  box,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

// do sends a request with an optional form body and admin session token.
func (s *testServer) do(t *testing.T, method string, path string, token string, form url.Values, header http.Header) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if form != nil {
		r = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: adminsession.CookieName, Value: token})
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

// login returns the admin session cookie value.
func (s *testServer) login(t *testing.T) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, s.url("/admin/login"),
		strings.NewReader(url.Values{"username": {adminUser}, "password": {adminPassword}}.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == adminsession.CookieName {
			return c.Value
		}
	}
	t.Fatalf("login: no session cookie")
	return ""
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) errorResponse {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.Error.Code != wantCode {
		t.Fatalf("error.code=%q want=%q body=%s", got.Error.Code, wantCode, string(body))
	}
	return got
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
