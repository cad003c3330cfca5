package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/intake/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const intakeCols = `id, first_name, last_name, email, phone, date_of_birth,
	contact_method, reason_for_visit, consent,
	booking_id, booking_datetime, created_at`

func (r *repoPG) Create(ctx context.Context, rec *IntakeRecord) error {
	rec.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO intake_record (
			id, first_name, last_name, email, phone, date_of_birth,
			contact_method, reason_for_visit, consent
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		rec.ID, rec.FirstName, rec.LastName, rec.Email, rec.Phone, rec.DateOfBirth.Time,
		rec.ContactMethod, rec.ReasonForVisit, rec.Consent,
	).Scan(&rec.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*IntakeRecord, error) {
	return scanIntake(r.conn(ctx).QueryRow(ctx,
		`SELECT `+intakeCols+` FROM intake_record WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rec *IntakeRecord) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE intake_record SET
			first_name=$2, last_name=$3, email=$4, phone=$5, date_of_birth=$6,
			contact_method=$7, reason_for_visit=$8, consent=$9
		WHERE id = $1`,
		rec.ID, rec.FirstName, rec.LastName, rec.Email, rec.Phone, rec.DateOfBirth.Time,
		rec.ContactMethod, rec.ReasonForVisit, rec.Consent,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*IntakeRecord, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM intake_record`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + intakeCols + ` FROM intake_record` + where + ` ORDER BY created_at DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	rows, err := r.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	recs, err := collectIntakes(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

func buildFilter(f ListFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ContactMethod != "" {
		clauses = append(clauses, "contact_method = "+arg(f.ContactMethod))
	}
	if f.Consent != nil {
		clauses = append(clauses, "consent = "+arg(*f.Consent))
	}
	if f.Booked != nil {
		if *f.Booked {
			clauses = append(clauses, "booking_id IS NOT NULL")
		} else {
			clauses = append(clauses, "booking_id IS NULL")
		}
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)", p, p, p))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *repoPG) ListUnbookedByEmail(ctx context.Context, email string) ([]*IntakeRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+intakeCols+` FROM intake_record
		WHERE email = $1 AND booking_id IS NULL
		ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIntakes(rows)
}

// ClaimBooking relies on the conditional WHERE to stay atomic: of any set
// of concurrent claims on one record, exactly one UPDATE matches a row.
func (r *repoPG) ClaimBooking(ctx context.Context, id uuid.UUID, bookingID string, bookingAt time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE intake_record
		SET booking_id = $2, booking_datetime = $3
		WHERE id = $1 AND booking_id IS NULL`,
		id, bookingID, bookingAt,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanIntake(row pgx.Row) (*IntakeRecord, error) {
	var rec IntakeRecord
	var dob time.Time
	err := row.Scan(
		&rec.ID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &dob,
		&rec.ContactMethod, &rec.ReasonForVisit, &rec.Consent,
		&rec.BookingID, &rec.BookingDatetime, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.DateOfBirth = Date{dob}
	return &rec, nil
}

func collectIntakes(rows pgx.Rows) ([]*IntakeRecord, error) {
	var recs []*IntakeRecord
	for rows.Next() {
		var rec IntakeRecord
		var dob time.Time
		if err := rows.Scan(
			&rec.ID, &rec.FirstName, &rec.LastName, &rec.Email, &rec.Phone, &dob,
			&rec.ContactMethod, &rec.ReasonForVisit, &rec.Consent,
			&rec.BookingID, &rec.BookingDatetime, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.DateOfBirth = Date{dob}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}
