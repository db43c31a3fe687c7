package registrationrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

// Repo is an in-memory implementation of registrationrepo.Repository.
// It is safe for concurrent use.
type Repo struct {
	mu     sync.RWMutex
	byCode map[domain.RegistrationCode]domain.Registration
}

func NewRepo() *Repo {
	return &Repo{
		byCode: make(map[domain.RegistrationCode]domain.Registration),
	}
}

func (r *Repo) Insert(ctx context.Context, reg domain.Registration) error {
	_ = ctx
	if reg.Code == "" {
		return registrationrepo.ErrEmptyCode
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[reg.Code]; ok {
		return registrationrepo.ErrDuplicateCode
	}
	r.byCode[reg.Code] = reg.Clone()
	return nil
}

func (r *Repo) GetByCode(ctx context.Context, code domain.RegistrationCode) (domain.Registration, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.byCode[code]
	if !ok {
		return domain.Registration{}, registrationrepo.ErrNotFound
	}
	return reg.Clone(), nil
}

func (r *Repo) SetCheckedIn(ctx context.Context, code domain.RegistrationCode, checkedIn bool, at time.Time) (domain.Registration, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.byCode[code]
	if !ok {
		return domain.Registration{}, registrationrepo.ErrNotFound
	}
	switch {
	case checkedIn && !reg.CheckedIn:
		t := at.UTC()
		reg.CheckedIn = true
		reg.CheckedInAt = &t
	case !checkedIn:
		reg.CheckedIn = false
		reg.CheckedInAt = nil
	}
	r.byCode[code] = reg
	return reg.Clone(), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Registration, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Registration, 0, len(r.byCode))
	for _, reg := range r.byCode {
		out = append(out, reg.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
