package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/patientor/internal/platform/db"
)

// FieldCipher seals a single column value at rest.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(value string) (string, error)
}

type RepoOption func(*repoPG)

// WithSSNCipher stores social security numbers sealed by c.
func WithSSNCipher(c FieldCipher) RepoOption {
	return func(r *repoPG) { r.ssn = c }
}

type repoPG struct {
	pool *pgxpool.Pool
	ssn  FieldCipher
}

func NewRepoPG(pool *pgxpool.Pool, opts ...RepoOption) Repository {
	r := &repoPG{pool: pool}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, name, occupation, gender, ssn, date_of_birth`

func (r *repoPG) scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.ID, &p.Name, &p.Occupation, &p.Gender, &p.SSN, &p.DateOfBirth); err != nil {
		return nil, err
	}
	if p.SSN != nil && r.ssn != nil {
		plain, err := r.ssn.Decrypt(*p.SSN)
		if err != nil {
			return nil, fmt.Errorf("decrypt ssn of %s: %w", p.ID, err)
		}
		p.SSN = &plain
	}
	return &p, nil
}

func (r *repoPG) sealSSN(ssn *string) (*string, error) {
	if ssn == nil || r.ssn == nil {
		return ssn, nil
	}
	sealed, err := r.ssn.Encrypt(*ssn)
	if err != nil {
		return nil, fmt.Errorf("encrypt ssn: %w", err)
	}
	return &sealed, nil
}

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repoPG) Get(ctx context.Context, id string) (*DetailedPatientInfo, error) {
	q := r.conn(ctx)
	p, err := r.scanPatient(q.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT body FROM patient_entry WHERE patient_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	detail := &DetailedPatientInfo{Patient: *p, Entries: Entries{}}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e, err := DecodeEntry(body)
		if err != nil {
			return nil, err
		}
		detail.Entries = append(detail.Entries, e)
	}
	return detail, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	ssn, err := r.sealSSN(p.SSN)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx,
		`INSERT INTO patient (`+patientCols+`) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Occupation, p.Gender, ssn, p.DateOfBirth)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

func (r *repoPG) AddEntry(ctx context.Context, patientID string, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO patient_entry (id, patient_id, type, body)
		 SELECT $1, id, $3, $4 FROM patient WHERE id = $2
		 ON CONFLICT (id) DO NOTHING`,
		e.Base().ID, patientID, string(e.EntryType()), body)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, patientID).Scan(&exists); err != nil {
			return fmt.Errorf("check patient: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}
