package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/jmoiron/sqlx"
)

// DidItStore owns chore completions. Rows are only ever inserted through
// RecordCompletion; there is no update path.
type DidItStore struct {
	db *sqlx.DB
}

func NewDidItStore(db *sqlx.DB) *DidItStore {
	return &DidItStore{db: db}
}

// Completions of a deleted chore keep their row with doit_id 0 and no name.
const didItFrom = ` FROM didit d
	LEFT JOIN doits_didits dd ON dd.didit_id = d.id
	LEFT JOIN doit t ON t.id = dd.doit_id`

const didItSelect = `SELECT d.id, COALESCE(dd.doit_id, 0) AS doit_id, COALESCE(t.name, '') AS doit_name, d.done_at` + didItFrom

var didItColumns = map[string]string{
	"doit_name": "t.name",
	"done_at":   "d.done_at",
}

// RecordCompletion inserts a didit row stamped doneAt and links it to the
// given chore, all in one transaction. Nothing is written unless both rows
// commit.
func (s *DidItStore) RecordCompletion(ctx context.Context, doItID int64, doneAt time.Time) CommitResult {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return failed(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO didit (done_at) VALUES (?)`, doneAt.UTC())
	if err != nil {
		return failed(fmt.Errorf("insert didit: %w", err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return failed(fmt.Errorf("last insert id: %w", err))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO doits_didits (doit_id, didit_id) VALUES (?, ?)`, doItID, id,
	); err != nil {
		return failed(fmt.Errorf("link didit: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return failed(fmt.Errorf("commit didit: %w", err))
	}
	return committed(id)
}

func (s *DidItStore) GetByID(ctx context.Context, id int64) (*model.DidIt, error) {
	var d model.DidIt
	err := s.db.GetContext(ctx, &d, didItSelect+` WHERE d.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get didit: %w", err)
	}
	return &d, nil
}

// List returns completions newest first.
func (s *DidItStore) List(ctx context.Context, p ListParams) ([]model.DidIt, int, error) {
	where, args := whereClause(p, didItColumns)

	var total int
	err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*)`+didItFrom+where,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("count didits: %w", err)
	}

	limit, limitArgs := limitClause(p)
	var didIts []model.DidIt
	err = s.db.SelectContext(ctx, &didIts,
		didItSelect+where+` ORDER BY d.done_at DESC, d.id DESC`+limit,
		append(args, limitArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list didits: %w", err)
	}
	return didIts, total, nil
}

func (s *DidItStore) ListByDoIt(ctx context.Context, doItID int64) ([]model.DidIt, error) {
	var didIts []model.DidIt
	err := s.db.SelectContext(ctx, &didIts,
		didItSelect+` WHERE dd.doit_id = ? ORDER BY d.done_at DESC, d.id DESC`,
		doItID,
	)
	if err != nil {
		return nil, fmt.Errorf("list didits by doit: %w", err)
	}
	return didIts, nil
}

func (s *DidItStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM didit`); err != nil {
		return 0, fmt.Errorf("count didits: %w", err)
	}
	return n, nil
}
