package registrationrepo

import (
	"testing"

	"github.com/minnehack/registration-api/internal/adapters/contracttest"
	registrationrepoport "github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

func TestContract_RegistrationRepo(t *testing.T) {
	contracttest.RunRegistrationRepo(t, func(t *testing.T) (registrationrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
