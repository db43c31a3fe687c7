package registrationrepo

import (
	"context"
	"time"

	"github.com/minnehack/registration-api/internal/domain"
)

// Repository persists registrations.
//
// Records are insert-once; the only supported mutation after Insert is the check-in sub-state.
// Implementations enforce code uniqueness themselves and must be safe for concurrent use.
//
// Result ordering expectations:
// - List returns records ordered by CreatedAt ascending, then Code, to keep behavior deterministic.
type Repository interface {
	// Insert stores r under r.Code, atomically. It returns ErrDuplicateCode rather than overwriting
	// and ErrEmptyCode when r.Code is unset.
	Insert(ctx context.Context, r domain.Registration) error

	GetByCode(ctx context.Context, code domain.RegistrationCode) (domain.Registration, error)

	// SetCheckedIn sets the check-in flag. When checkedIn is true and the record was not already
	// checked in, CheckedInAt becomes at; when false, CheckedInAt is cleared.
	SetCheckedIn(ctx context.Context, code domain.RegistrationCode, checkedIn bool, at time.Time) (domain.Registration, error)

	List(ctx context.Context) ([]domain.Registration, error)
}
