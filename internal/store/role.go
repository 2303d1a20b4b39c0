package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/choreadmin/internal/model"
	"github.com/jmoiron/sqlx"
)

type RoleStore struct {
	db *sqlx.DB
}

func NewRoleStore(db *sqlx.DB) *RoleStore {
	return &RoleStore{db: db}
}

const roleCols = `id, name, description`

var roleColumns = map[string]string{
	"name":        "name",
	"description": "description",
}

func (s *RoleStore) Create(ctx context.Context, name, description string) (*model.Role, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO role (name, description) VALUES (?, ?)`,
		name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RoleStore) GetByID(ctx context.Context, id int64) (*model.Role, error) {
	var r model.Role
	err := s.db.GetContext(ctx, &r, `SELECT `+roleCols+` FROM role WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &r, nil
}

func (s *RoleStore) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var r model.Role
	err := s.db.GetContext(ctx, &r, `SELECT `+roleCols+` FROM role WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return &r, nil
}

// List returns one page of roles matching p and the total match count.
func (s *RoleStore) List(ctx context.Context, p ListParams) ([]model.Role, int, error) {
	where, args := whereClause(p, roleColumns)

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM role`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	limit, limitArgs := limitClause(p)
	var roles []model.Role
	err := s.db.SelectContext(ctx, &roles,
		`SELECT `+roleCols+` FROM role`+where+` ORDER BY name ASC`+limit,
		append(args, limitArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list roles: %w", err)
	}
	return roles, total, nil
}

func (s *RoleStore) ListAll(ctx context.Context) ([]model.Role, error) {
	roles, _, err := s.List(ctx, ListParams{})
	return roles, err
}

func (s *RoleStore) Update(ctx context.Context, id int64, name, description string) (*model.Role, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE role SET name = ?, description = ? WHERE id = ?`,
		name, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *RoleStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM role WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

func (s *RoleStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM role`); err != nil {
		return 0, fmt.Errorf("count roles: %w", err)
	}
	return n, nil
}
