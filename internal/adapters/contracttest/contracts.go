package contracttest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/minnehack/registration-api/internal/domain"
	idempotencyport "github.com/minnehack/registration-api/internal/ports/out/idempotency"
	imagestoreport "github.com/minnehack/registration-api/internal/ports/out/imagestore"
	registrationrepoport "github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

type CleanupFunc = func()

type RegistrationRepoFactory func(t *testing.T) (registrationrepoport.Repository, CleanupFunc)
type ImageStoreFactory func(t *testing.T) (imagestoreport.Store, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Method:   "POST",
		Route:    "/registration",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get(unknown) ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body hash under the same key is a separate record.
	other := fp
	other.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get(other hash) ok=%v err=%v", ok, err)
	}
}

func RunImageStore(t *testing.T, newStore ImageStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	a := "img" + uuid.NewString()[:8]
	b := "img" + uuid.NewString()[:8]

	if _, ok, err := store.Get(ctx, a); err != nil || ok {
		t.Fatalf("Get(miss) ok=%v err=%v", ok, err)
	}

	pngA := []byte("\x89PNG\r\n\x1a\nAAAA")
	pngB := []byte("\x89PNG\r\n\x1a\nBBBBBBBB")
	if err := store.Put(ctx, a, pngA); err != nil {
		t.Fatalf("Put a: %v", err)
	}
	if err := store.Put(ctx, b, pngB); err != nil {
		t.Fatalf("Put b: %v", err)
	}

	got, ok, err := store.Get(ctx, a)
	if err != nil || !ok || !bytes.Equal(got, pngA) {
		t.Fatalf("Get a: ok=%v err=%v got=%q", ok, err, got)
	}
	got, ok, err = store.Get(ctx, b)
	if err != nil || !ok || !bytes.Equal(got, pngB) {
		t.Fatalf("Get b: ok=%v err=%v got=%q", ok, err, got)
	}

	// Rewriting a key with identical bytes is harmless.
	if err := store.Put(ctx, a, pngA); err != nil {
		t.Fatalf("Put a again: %v", err)
	}
	got, _, _ = store.Get(ctx, a)
	if !bytes.Equal(got, pngA) {
		t.Fatalf("rewrite changed entry: %q", got)
	}
}

func RunRegistrationRepo(t *testing.T, newRepo RegistrationRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	amount := 120
	desc := "bus from Fargo"
	resume := uuid.NewString() + ".pdf"
	first := domain.Registration{
		Code:                domain.RegistrationCode(uuid.NewString()),
		Email:               "ada@example.com",
		Name:                "Ada Lovelace",
		Phone:               "+16125551234",
		Gender:              "Female",
		Age:                 21,
		Country:             "US",
		School:              domain.CanonicalUMN,
		LevelOfStudy:        domain.LevelUndergrad,
		TShirt:              domain.TShirtM,
		Driving:             true,
		Reimbursement:       true,
		ReimbursementAmount: &amount,
		ReimbursementDesc:   &desc,
		ReimbursementStrict: true,
		Accommodations:      "",
		DietaryRestrictions: "vegetarian",
		ResumeFilename:      &resume,
		CreatedAt:           now,
	}
	if err := repo.Insert(ctx, first); err != nil {
		t.Fatalf("Insert first: %v", err)
	}

	got, err := repo.GetByCode(ctx, first.Code)
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got.Email != first.Email || got.Name != first.Name || got.Age != 21 || got.School != domain.CanonicalUMN {
		t.Fatalf("unexpected record: %#v", got)
	}
	if got.ReimbursementAmount == nil || *got.ReimbursementAmount != 120 || got.ReimbursementDesc == nil || *got.ReimbursementDesc != desc {
		t.Fatalf("reimbursement fields not round-tripped: %#v", got)
	}
	if got.DiscordTag != nil {
		t.Fatalf("absent discord tag became %q", *got.DiscordTag)
	}
	if got.CheckedIn || got.CheckedInAt != nil {
		t.Fatalf("new record should not be checked in: %#v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Fatalf("createdAt=%v, want %v", got.CreatedAt, now)
	}

	// Code uniqueness.
	dup := first
	dup.Email = "someone-else@example.com"
	if err := repo.Insert(ctx, dup); !errors.Is(err, registrationrepoport.ErrDuplicateCode) {
		t.Fatalf("Insert duplicate err=%v, want ErrDuplicateCode", err)
	}

	unassigned := first
	unassigned.Code = ""
	if err := repo.Insert(ctx, unassigned); !errors.Is(err, registrationrepoport.ErrEmptyCode) {
		t.Fatalf("Insert empty code err=%v, want ErrEmptyCode", err)
	}
	got, _ = repo.GetByCode(ctx, first.Code)
	if got.Email != first.Email {
		t.Fatalf("duplicate insert overwrote record: %q", got.Email)
	}

	if _, err := repo.GetByCode(ctx, domain.RegistrationCode(uuid.NewString())); !errors.Is(err, registrationrepoport.ErrNotFound) {
		t.Fatalf("GetByCode(unknown) err=%v, want ErrNotFound", err)
	}

	// Check-in transitions.
	inAt := now.Add(time.Hour)
	got, err = repo.SetCheckedIn(ctx, first.Code, true, inAt)
	if err != nil {
		t.Fatalf("SetCheckedIn(true): %v", err)
	}
	if !got.CheckedIn || got.CheckedInAt == nil || !got.CheckedInAt.Equal(inAt) {
		t.Fatalf("unexpected check-in state: %#v", got)
	}
	got, err = repo.SetCheckedIn(ctx, first.Code, true, inAt.Add(time.Minute))
	if err != nil {
		t.Fatalf("SetCheckedIn(true) again: %v", err)
	}
	if got.CheckedInAt == nil || !got.CheckedInAt.Equal(inAt) {
		t.Fatalf("repeat check-in moved timestamp: %v", got.CheckedInAt)
	}
	got, err = repo.SetCheckedIn(ctx, first.Code, false, inAt.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("SetCheckedIn(false): %v", err)
	}
	if got.CheckedIn || got.CheckedInAt != nil {
		t.Fatalf("check-out left state: %#v", got)
	}
	if _, err := repo.SetCheckedIn(ctx, domain.RegistrationCode(uuid.NewString()), true, inAt); !errors.Is(err, registrationrepoport.ErrNotFound) {
		t.Fatalf("SetCheckedIn(unknown) err=%v, want ErrNotFound", err)
	}

	// Deterministic list ordering by createdAt.
	second := domain.Registration{
		Code:         domain.RegistrationCode(uuid.NewString()),
		Email:        "grace@example.com",
		Name:         "Grace Hopper",
		Phone:        "+16125550000",
		Gender:       "Female",
		Age:          30,
		Country:      "US",
		School:       "Carleton College",
		LevelOfStudy: domain.LevelGrad,
		TShirt:       domain.TShirtL,
		CreatedAt:    now.Add(time.Second),
	}
	if err := repo.Insert(ctx, second); err != nil {
		t.Fatalf("Insert second: %v", err)
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	firstIdx, secondIdx := -1, -1
	for i, r := range list {
		switch r.Code {
		case first.Code:
			firstIdx = i
		case second.Code:
			secondIdx = i
		}
	}
	if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
		t.Fatalf("unexpected ordering: first=%d second=%d", firstIdx, secondIdx)
	}
}
