package diagnosis

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/patientor/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) List(ctx context.Context) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT code, name, latin FROM diagnosis ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	var results []*Diagnosis
	for rows.Next() {
		var d Diagnosis
		if err := rows.Scan(&d.Code, &d.Name, &d.Latin); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		results = append(results, &d)
	}
	return results, rows.Err()
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*Diagnosis, error) {
	var d Diagnosis
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT code, name, latin FROM diagnosis WHERE code = $1`, code).
		Scan(&d.Code, &d.Name, &d.Latin)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get diagnosis: %w", err)
	}
	return &d, nil
}

func (r *repoPG) Upsert(ctx context.Context, d *Diagnosis) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO diagnosis (code, name, latin) VALUES ($1, $2, $3)
		 ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, latin = EXCLUDED.latin`,
		d.Code, d.Name, d.Latin)
	if err != nil {
		return fmt.Errorf("upsert diagnosis: %w", err)
	}
	return nil
}
