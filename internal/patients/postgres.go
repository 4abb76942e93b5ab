package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists patient records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			age TEXT NOT NULL,
			address TEXT NOT NULL,
			medical_history TEXT NOT NULL,
			caretaker_name TEXT NOT NULL,
			caretaker_phone TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_patients_created ON patients (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const patientColumns = `id, name, age, address, medical_history, caretaker_name, caretaker_phone, created_at, updated_at`

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Address, &p.MedicalHistory, &p.CaretakerName, &p.CaretakerPhone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Patient{}, ErrNotFound
	}
	if err != nil {
		return Patient{}, fmt.Errorf("scan patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Patient, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.Address, &p.MedicalHistory, &p.CaretakerName, &p.CaretakerPhone, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patient rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Patient, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id=$1`, id)
	return scanPatient(row)
}

func (s *PostgresStore) Create(ctx context.Context, in Input) (Patient, error) {
	now := time.Now().UTC()
	row := s.pool.QueryRow(ctx,
		`INSERT INTO patients (id, name, age, address, medical_history, caretaker_name, caretaker_phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING `+patientColumns,
		uuid.NewString(), in.Name, in.Age, in.Address, in.MedicalHistory, in.CaretakerName, in.CaretakerPhone, now)
	return scanPatient(row)
}

func (s *PostgresStore) Update(ctx context.Context, id string, in Input) (Patient, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE patients
		 SET name=$2, age=$3, address=$4, medical_history=$5, caretaker_name=$6, caretaker_phone=$7, updated_at=$8
		 WHERE id=$1
		 RETURNING `+patientColumns,
		id, in.Name, in.Age, in.Address, in.MedicalHistory, in.CaretakerName, in.CaretakerPhone, time.Now().UTC())
	return scanPatient(row)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM patients WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
