package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/recordclean/internal/model"
)

// PostgresRecordRepository keeps record documents as JSONB rows, one table
// per collection.
type PostgresRecordRepository struct {
	pool  *pgxpool.Pool
	table string
	ident string
}

func NewPostgresRecordRepository(pool *pgxpool.Pool, table string) *PostgresRecordRepository {
	return &PostgresRecordRepository{
		pool:  pool,
		table: table,
		ident: pgx.Identifier{table}.Sanitize(),
	}
}

func (r *PostgresRecordRepository) Name() string {
	return r.table
}

// FetchAll returns every record ordered by id. Rows whose semesters cannot
// be decoded are reported as skipped.
func (r *PostgresRecordRepository) FetchAll(ctx context.Context) ([]model.Record, []model.SkippedRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, user_id, semesters FROM `+r.ident+` ORDER BY id`)
	if err != nil {
		return nil, nil, fmt.Errorf("query %s: %w", r.table, err)
	}
	defer rows.Close()

	var (
		records []model.Record
		skipped []model.SkippedRecord
	)
	for rows.Next() {
		var (
			rec model.Record
			raw []byte
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &raw); err != nil {
			return nil, nil, fmt.Errorf("scan %s: %w", r.table, err)
		}
		if err := json.Unmarshal(raw, &rec.Semesters); err != nil {
			skipped = append(skipped, model.SkippedRecord{RecordID: rec.ID, Reason: err.Error()})
			continue
		}
		rec.Revision = bytes.Clone(raw)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate %s: %w", r.table, err)
	}
	return records, skipped, nil
}

// ReplaceSemesters rewrites the semesters column. JSONB comparison makes an
// identical document report false. With a revision the row is only
// rewritten while its semesters still equal the revision; a row that
// changed in any other way returns ErrStaleRecord and is left untouched.
func (r *PostgresRecordRepository) ReplaceSemesters(ctx context.Context, id string, revision []byte, semesters []model.Semester) (bool, error) {
	data, err := json.Marshal(semestersOrEmpty(semesters))
	if err != nil {
		return false, fmt.Errorf("encode semesters: %w", err)
	}
	rev := jsonbParam(revision)

	tag, err := r.pool.Exec(ctx,
		`UPDATE `+r.ident+` SET semesters = $1::jsonb, updated_at = NOW()
		 WHERE id = $2
		   AND semesters IS DISTINCT FROM $1::jsonb
		   AND ($3::jsonb IS NULL OR semesters = $3::jsonb)`,
		string(data), id, rev)
	if err != nil {
		return false, fmt.Errorf("update %s/%s: %w", r.table, id, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Nothing written: the row is missing, already clean, or changed since
	// the revision was read.
	var clean bool
	err = r.pool.QueryRow(ctx,
		`SELECT semesters = $2::jsonb FROM `+r.ident+` WHERE id = $1`,
		id, string(data)).Scan(&clean)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, stateMissing.err()
	}
	if err != nil {
		return false, fmt.Errorf("check %s/%s: %w", r.table, id, err)
	}
	if !clean {
		return false, stateChanged.err()
	}
	return false, nil
}

// jsonbParam passes a revision as JSONB text, or SQL NULL when absent.
func jsonbParam(revision []byte) any {
	if revision == nil {
		return nil
	}
	return string(revision)
}

// Insert stores a new record and returns its generated id.
func (r *PostgresRecordRepository) Insert(ctx context.Context, rec model.Record) (string, error) {
	data, err := json.Marshal(rec.Semesters)
	if err != nil {
		return "", fmt.Errorf("encode semesters: %w", err)
	}

	var id string
	err = r.pool.QueryRow(ctx,
		`INSERT INTO `+r.ident+` (user_id, semesters) VALUES ($1, $2::jsonb) RETURNING id`,
		rec.UserID, string(data)).Scan(&id)
	return id, err
}
