package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/LPlateLtd/LPlateDemoBuild/internal/db"
)

type PostgresStore struct {
	db *db.DB
}

func NewPostgresStore(db *db.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p := &Profile{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, role, name, email,
		       COALESCE(phone, ''), COALESCE(postcode, ''), COALESCE(avatar_url, ''),
		       created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Role, &p.Name, &p.Email,
		&p.Phone, &p.Postcode, &p.AvatarURL,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: get: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Insert(ctx context.Context, p *Profile) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO profiles (id, role, name, email, phone, postcode, avatar_url)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''))
		RETURNING created_at, updated_at
	`,
		p.ID, p.Role, p.Name, p.Email, p.Phone, p.Postcode, p.AvatarURL,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("profile: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateInstructorDetail(ctx context.Context, d *InstructorDetail) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instructor_profiles (profile_id, adi_number, vehicle, hourly_rate_pence)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (profile_id) DO UPDATE
		SET adi_number = EXCLUDED.adi_number,
		    vehicle = EXCLUDED.vehicle,
		    hourly_rate_pence = EXCLUDED.hourly_rate_pence,
		    updated_at = NOW()
	`,
		d.ProfileID, d.ADINumber, d.Vehicle, d.HourlyRatePence,
	)
	if err != nil {
		return fmt.Errorf("profile: instructor detail: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
