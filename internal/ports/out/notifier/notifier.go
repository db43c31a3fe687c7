package notifier

import (
	"context"

	"github.com/minnehack/registration-api/internal/domain"
)

// Confirmation is the data needed to tell a registrant their submission was accepted.
type Confirmation struct {
	To   string
	Name string
	Code domain.RegistrationCode
}

type Sender interface {
	SendConfirmation(ctx context.Context, c Confirmation) error
}
