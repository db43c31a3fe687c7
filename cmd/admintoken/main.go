package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/minnehack/registration-api/internal/platform/adminsession"
	platformclock "github.com/minnehack/registration-api/internal/platform/clock"
)

// Mints an admin session token for scripts and the check-in scanner.
//
//	COOKIE_SECRET=... go run ./cmd/admintoken
//	curl -H "Authorization: Bearer $(go run ./cmd/admintoken)" .../registrations
//
// The token is signed with COOKIE_SECRET, so it is only valid against a server sharing it.

func main() {
	_ = godotenv.Load()

	secret := os.Getenv("COOKIE_SECRET")
	if len(secret) < 16 {
		log.Fatalf("COOKIE_SECRET must be set (at least 16 characters)")
	}
	ttl := getenvDuration("TTL", getenvDuration("ADMIN_SESSION_TTL", 12*time.Hour))

	// Credentials are unused by Issue; only the secret and TTL matter.
	m := adminsession.NewManager("", "", secret, ttl, platformclock.NewSystemClock())
	tok, exp, err := m.Issue()
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
	fmt.Println(tok)
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("invalid %s: %v", k, err)
		}
		return d
	}
	return def
}
