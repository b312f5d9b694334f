// Package store persists form submissions in PostgreSQL.
package store

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/corporategifts/giftsite/pkg/forms"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the embedded goose migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

var (
	ErrNotFound  = errors.New("store: submission not found")
	ErrDuplicate = errors.New("store: submission already stored")
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Record is a stored submission.
type Record struct {
	CreatedAt  time.Time
	Submission *forms.Submission
	Delivered  []string
	SrNo       int64
}

// DeliveredTo reports whether sink already accepted the submission.
func (r *Record) DeliveredTo(sink string) bool {
	return slices.Contains(r.Delivered, sink)
}

// SubmissionRepo reads and writes the submissions table.
type SubmissionRepo struct {
	db Querier
}

// NewSubmissionRepo creates a repository over db.
func NewSubmissionRepo(db Querier) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// WithTx returns a repository bound to tx.
func (r *SubmissionRepo) WithTx(tx pgx.Tx) *SubmissionRepo {
	return &SubmissionRepo{db: tx}
}

const insertSubmission = `
INSERT INTO submissions (id, kind, payload, spam, received_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING sr_no`

// Insert stores s and returns its serial number.
func (r *SubmissionRepo) Insert(ctx context.Context, s *forms.Submission) (int64, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("store: encode submission: %w", err)
	}

	var srNo int64
	err = r.db.QueryRow(ctx, insertSubmission, s.ID, string(s.Kind), payload, s.Spam, s.ReceivedAt).Scan(&srNo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: %s", ErrDuplicate, s.ID)
		}
		return 0, fmt.Errorf("store: insert submission: %w", err)
	}
	return srNo, nil
}

const selectSubmission = `
SELECT sr_no, payload, spam, delivered_sinks, created_at
FROM submissions
WHERE id = $1`

// Get loads a submission by id.
func (r *SubmissionRepo) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	var (
		rec     Record
		payload []byte
		spam    bool
	)
	err := r.db.QueryRow(ctx, selectSubmission, id).Scan(&rec.SrNo, &payload, &spam, &rec.Delivered, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get submission: %w", err)
	}

	var s forms.Submission
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("store: decode submission %s: %w", id, err)
	}
	s.Spam = spam
	rec.Submission = &s
	return &rec, nil
}

const markDelivered = `
UPDATE submissions
SET delivered_sinks = array_append(delivered_sinks, $2)
WHERE id = $1 AND NOT ($2 = ANY(delivered_sinks))`

// MarkDelivered records that sink accepted the submission. Repeated calls are no-ops.
func (r *SubmissionRepo) MarkDelivered(ctx context.Context, id uuid.UUID, sink string) error {
	if _, err := r.db.Exec(ctx, markDelivered, id, sink); err != nil {
		return fmt.Errorf("store: mark delivered: %w", err)
	}
	return nil
}
