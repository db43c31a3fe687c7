package codegen

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// UUIDGenerator produces 22-character base64url codes from random (v4) UUIDs,
// giving 122 bits of entropy in a URL-safe form.
type UUIDGenerator struct{}

func New() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewCode() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
