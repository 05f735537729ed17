package postgres

import (
	"context"
	"errors"

	"paygate/internal/domain/credential"
	"paygate/internal/store/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// credentialRepository implements repositories.CredentialRepository
// with pure data access. Credential fields are stored as JSONB in
// their encoded form.
type credentialRepository struct {
	db *pgxpool.Pool
}

func NewCredentialRepository(db *pgxpool.Pool) repositories.CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) FindByCode(ctx context.Context, code credential.ProviderCode) (*credential.RawCredentialRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_code, name, description, is_active, fields
		FROM provider_credentials
		WHERE provider_code = $1`, string(code))

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	return rec, err
}

func (r *credentialRepository) Upsert(ctx context.Context, rec *credential.RawCredentialRecord) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO provider_credentials (provider_code, name, description, is_active, fields)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_code) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    is_active = EXCLUDED.is_active,
		    fields = EXCLUDED.fields,
		    updated_at = now()
		RETURNING id`,
		string(rec.ProviderCode), rec.Name, rec.Description, rec.IsActive, rec.Fields,
	).Scan(&rec.ID)
}

func (r *credentialRepository) List(ctx context.Context) ([]*credential.RawCredentialRecord, error) {
	return r.query(ctx, `
		SELECT id, provider_code, name, description, is_active, fields
		FROM provider_credentials
		ORDER BY provider_code`)
}

func (r *credentialRepository) ListActive(ctx context.Context) ([]*credential.RawCredentialRecord, error) {
	return r.query(ctx, `
		SELECT id, provider_code, name, description, is_active, fields
		FROM provider_credentials
		WHERE is_active = true
		ORDER BY provider_code`)
}

func (r *credentialRepository) SetActive(ctx context.Context, code credential.ProviderCode, active bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE provider_credentials
		SET is_active = $2, updated_at = now()
		WHERE provider_code = $1`, string(code), active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *credentialRepository) DeactivateAllExcept(ctx context.Context, code credential.ProviderCode) error {
	_, err := r.db.Exec(ctx, `
		UPDATE provider_credentials
		SET is_active = false, updated_at = now()
		WHERE provider_code <> $1 AND is_active = true`, string(code))
	return err
}

func (r *credentialRepository) query(ctx context.Context, sql string) ([]*credential.RawCredentialRecord, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*credential.RawCredentialRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*credential.RawCredentialRecord, error) {
	var rec credential.RawCredentialRecord
	var code string
	if err := row.Scan(&rec.ID, &code, &rec.Name, &rec.Description, &rec.IsActive, &rec.Fields); err != nil {
		return nil, err
	}
	rec.ProviderCode = credential.ProviderCode(code)
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}
	return &rec, nil
}
