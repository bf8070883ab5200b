package db

import (
	"context"
	"database/sql"
)

// The profiles table is keyed by the provider's identity id: at most one
// profile per identity, enforced by the primary key. The instructor
// extension is created lazily at role-specific setup.
const accountMigration = `
CREATE TABLE IF NOT EXISTS profiles (
    id uuid PRIMARY KEY,
    role text NOT NULL CHECK (role IN ('learner', 'instructor', 'driving_school', 'admin')),
    name text NOT NULL,
    email text NOT NULL,
    phone text,
    postcode text,
    avatar_url text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS profiles_email_lower_unique
ON profiles (LOWER(email));

CREATE TABLE IF NOT EXISTS instructor_profiles (
    profile_id uuid PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
    adi_number text NOT NULL,
    vehicle text,
    hourly_rate_pence integer,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

func RunAccountMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, accountMigration)
	return err
}
