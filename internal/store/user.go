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

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// UserParams carries the writable user columns. On Update an empty
// PasswordHash keeps the stored hash.
type UserParams struct {
	FirstName    string
	LastName     *string
	Email        string
	PasswordHash string
	Active       bool
	ConfirmedAt  *time.Time
	RoleIDs      []int64
}

const userCols = `id, first_name, last_name, email, password, active, confirmed_at`

var userColumns = map[string]string{
	"email":      "email",
	"first_name": "first_name",
	"last_name":  "last_name",
}

func (s *UserStore) Create(ctx context.Context, p UserParams) (*model.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO user (first_name, last_name, email, password, active, confirmed_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.Email, p.PasswordHash, p.Active, utcPtr(p.ConfirmedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := setRoles(ctx, tx, id, p.RoleIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userCols+` FROM user WHERE id = ?`, id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getOne(ctx, `SELECT `+userCols+` FROM user WHERE email = ?`, email)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	roles, err := s.loadRoles(ctx, []int64{u.ID})
	if err != nil {
		return nil, err
	}
	u.RoleSet = roles[u.ID]
	return &u, nil
}

// List returns one page of users (roles included) matching p and the total
// match count.
func (s *UserStore) List(ctx context.Context, p ListParams) ([]model.User, int, error) {
	where, args := whereClause(p, userColumns)

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM user`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit, limitArgs := limitClause(p)
	var users []model.User
	err := s.db.SelectContext(ctx, &users,
		`SELECT `+userCols+` FROM user`+where+` ORDER BY id ASC`+limit,
		append(args, limitArgs...)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	ids := make([]int64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	roles, err := s.loadRoles(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range users {
		users[i].RoleSet = roles[users[i].ID]
	}
	return users, total, nil
}

func (s *UserStore) Update(ctx context.Context, id int64, p UserParams) (*model.User, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE user SET first_name = ?, last_name = ?, email = ?, active = ?, confirmed_at = ? WHERE id = ?`,
		p.FirstName, p.LastName, p.Email, p.Active, utcPtr(p.ConfirmedAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if p.PasswordHash != "" {
		if _, err := tx.ExecContext(ctx, `UPDATE user SET password = ? WHERE id = ?`, p.PasswordHash, id); err != nil {
			return nil, fmt.Errorf("update password: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roles_users WHERE user_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clear roles: %w", err)
	}
	if err := setRoles(ctx, tx, id, p.RoleIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit user: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func setRoles(ctx context.Context, tx *sqlx.Tx, userID int64, roleIDs []int64) error {
	for _, roleID := range roleIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO roles_users (user_id, role_id) VALUES (?, ?)`,
			userID, roleID,
		)
		if err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
	}
	return nil
}

type userRole struct {
	UserID int64 `db:"user_id"`
	model.Role
}

func (s *UserStore) loadRoles(ctx context.Context, userIDs []int64) (map[int64]model.RoleSet, error) {
	out := make(map[int64]model.RoleSet, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(
		`SELECT ru.user_id, r.id, r.name, r.description
		   FROM roles_users ru JOIN role r ON r.id = ru.role_id
		  WHERE ru.user_id IN (?)
		  ORDER BY r.name ASC`,
		userIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("build roles query: %w", err)
	}

	var rows []userRole
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Role)
	}
	return out, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
