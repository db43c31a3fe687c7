package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/minnehack/registration-api/internal/ports/out/idempotency"
)

func TestStore_BodyHashSeparatesRecords(t *testing.T) {
	t.Parallel()

	s := NewStore()
	claim := idempotency.Fingerprint{Key: "tok-1", Method: "POST", Route: "/registration"}
	resp := claim
	resp.BodyHash = "abc123"

	if err := s.Put(context.Background(), claim, idempotency.Record{Body: []byte("abc123")}); err != nil {
		t.Fatalf("Put(claim) err=%v", err)
	}
	if _, ok, _ := s.Get(context.Background(), resp); ok {
		t.Fatalf("Get(resp) ok=true before response was stored")
	}

	rec := idempotency.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"registrationCode":"x"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := s.Put(context.Background(), resp, rec); err != nil {
		t.Fatalf("Put(resp) err=%v", err)
	}
	got, ok, err := s.Get(context.Background(), resp)
	if err != nil || !ok {
		t.Fatalf("Get(resp) ok=%v err=%v", ok, err)
	}
	if got.StatusCode != rec.StatusCode || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}

	got.Body[0] = 'X'
	again, _, _ := s.Get(context.Background(), resp)
	if string(again.Body) != string(rec.Body) {
		t.Fatalf("stored body was mutated through returned slice")
	}
}
