package registrationrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/minnehack/registration-api/internal/adapters/postgres"
	"github.com/minnehack/registration-api/internal/domain"
	"github.com/minnehack/registration-api/internal/ports/out/registrationrepo"
)

const selectColumns = `
	registration_code,
	email,
	name,
	phone,
	gender,
	age,
	country,
	school,
	level_of_study,
	tshirt,
	driving,
	discord_tag,
	reimbursement,
	reimbursement_amount,
	reimbursement_desc,
	reimbursement_strict,
	accommodations,
	dietary_restrictions,
	resume_filename,
	checked_in,
	checked_in_at,
	created_at
`

// Repo is a Postgres implementation of registrationrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Insert(ctx context.Context, reg domain.Registration) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	if reg.Code == "" {
		return registrationrepo.ErrEmptyCode
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO registrations (
				registration_code,
				email,
				name,
				phone,
				gender,
				age,
				country,
				school,
				level_of_study,
				tshirt,
				driving,
				discord_tag,
				reimbursement,
				reimbursement_amount,
				reimbursement_desc,
				reimbursement_strict,
				accommodations,
				dietary_restrictions,
				resume_filename,
				created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		`,
			string(reg.Code),
			reg.Email,
			reg.Name,
			reg.Phone,
			reg.Gender,
			reg.Age,
			reg.Country,
			reg.School,
			string(reg.LevelOfStudy),
			string(reg.TShirt),
			reg.Driving,
			reg.DiscordTag,
			reg.Reimbursement,
			reg.ReimbursementAmount,
			reg.ReimbursementDesc,
			reg.ReimbursementStrict,
			reg.Accommodations,
			reg.DietaryRestrictions,
			reg.ResumeFilename,
			reg.CreatedAt.UTC(),
		)
		if err != nil {
			if postgres.IsUniqueViolation(err, "registrations_code_unique") {
				return registrationrepo.ErrDuplicateCode
			}
			return err
		}
		return nil
	})
}

func (r *Repo) GetByCode(ctx context.Context, code domain.RegistrationCode) (domain.Registration, error) {
	if r.pool == nil {
		return domain.Registration{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM registrations WHERE registration_code = $1`, string(code))
	return scanRegistration(row)
}

func (r *Repo) SetCheckedIn(ctx context.Context, code domain.RegistrationCode, checkedIn bool, at time.Time) (domain.Registration, error) {
	if r.pool == nil {
		return domain.Registration{}, errors.New("nil postgres pool")
	}
	// A repeated check-in keeps the first timestamp.
	row := r.pool.QueryRow(ctx, `
		UPDATE registrations
		SET checked_in = $2,
		    checked_in_at = CASE
		        WHEN $2 THEN COALESCE(checked_in_at, $3)
		        ELSE NULL
		    END
		WHERE registration_code = $1
		RETURNING `+selectColumns,
		string(code),
		checkedIn,
		at.UTC(),
	)
	return scanRegistration(row)
}

func (r *Repo) List(ctx context.Context) ([]domain.Registration, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM registrations
		ORDER BY created_at ASC, registration_code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRegistration(row interface {
	Scan(dest ...any) error
}) (domain.Registration, error) {
	var (
		reg         domain.Registration
		code        string
		level       string
		tshirt      string
		checkedInAt *time.Time
		createdAt   time.Time
	)
	if err := row.Scan(
		&code,
		&reg.Email,
		&reg.Name,
		&reg.Phone,
		&reg.Gender,
		&reg.Age,
		&reg.Country,
		&reg.School,
		&level,
		&tshirt,
		&reg.Driving,
		&reg.DiscordTag,
		&reg.Reimbursement,
		&reg.ReimbursementAmount,
		&reg.ReimbursementDesc,
		&reg.ReimbursementStrict,
		&reg.Accommodations,
		&reg.DietaryRestrictions,
		&reg.ResumeFilename,
		&reg.CheckedIn,
		&checkedInAt,
		&createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Registration{}, registrationrepo.ErrNotFound
		}
		return domain.Registration{}, err
	}
	reg.Code = domain.RegistrationCode(code)
	reg.LevelOfStudy = domain.LevelOfStudy(level)
	reg.TShirt = domain.TShirtSize(tshirt)
	if checkedInAt != nil {
		t := checkedInAt.UTC()
		reg.CheckedInAt = &t
	}
	reg.CreatedAt = createdAt.UTC()
	return reg, nil
}
