package idempotency

import (
	"context"
	"time"
)

// Key is the caller-provided idempotency key (Idempotency-Key header or submission_token form field).
type Key string

// Fingerprint identifies a submission attempt for idempotency purposes.
//
// Strategy: key + route + request body hash. A record with an empty BodyHash is the
// "claim" for the key on that route and holds the hash of the first payload seen.
type Fingerprint struct {
	Key      Key
	Method   string
	Route    string
	BodyHash string
}

// Record is the stored outcome we can replay for a duplicate submission.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records. Put overwrites any existing record for fp.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
