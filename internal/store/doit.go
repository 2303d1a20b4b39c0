package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/jmoiron/sqlx"
)

type DoItStore struct {
	db *sqlx.DB
}

func NewDoItStore(db *sqlx.DB) *DoItStore {
	return &DoItStore{db: db}
}

const doItCols = `id, name, description`

var doItColumns = map[string]string{
	"name":        "name",
	"description": "description",
}

func (s *DoItStore) Create(ctx context.Context, name, description string) (*model.DoIt, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO doit (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert doit: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *DoItStore) GetByID(ctx context.Context, id int64) (*model.DoIt, error) {
	var d model.DoIt
	err := s.db.GetContext(ctx, &d, `SELECT `+doItCols+` FROM doit WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get doit: %w", err)
	}
	return &d, nil
}

func (s *DoItStore) List(ctx context.Context, p ListParams) ([]model.DoIt, int, error) {
	where, args := whereClause(p, doItColumns)

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM doit`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count doits: %w", err)
	}

	limit, limitArgs := limitClause(p)
	var doIts []model.DoIt
	err := s.db.SelectContext(ctx, &doIts,
		`SELECT `+doItCols+` FROM doit`+where+` ORDER BY id ASC`+limit,
		append(args, limitArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list doits: %w", err)
	}
	return doIts, total, nil
}

func (s *DoItStore) Update(ctx context.Context, id int64, name, description string) (*model.DoIt, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE doit SET name = ?, description = ? WHERE id = ?`,
		name, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update doit: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the chore. The join rows cascade; its didit rows stay so
// the completion log is never rewritten.
func (s *DoItStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM doit WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete doit: %w", err)
	}
	return nil
}
