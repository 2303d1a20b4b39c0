package store

import (
	"errors"
	"sort"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ListParams narrows a list query. Search is matched with LIKE against every
// column named in SearchColumns; Filters are per-column LIKE matches. Column
// names not known to the store are ignored.
type ListParams struct {
	Search        string
	SearchColumns []string
	Filters       map[string]string
	Limit         int
	Offset        int
}

// whereClause builds a WHERE fragment (including the keyword, or empty)
// from p, translating column names through columns.
func whereClause(p ListParams, columns map[string]string) (string, []any) {
	var conds []string
	var args []any

	if search := strings.TrimSpace(p.Search); search != "" {
		var ors []string
		for _, name := range p.SearchColumns {
			expr, ok := columns[name]
			if !ok {
				continue
			}
			ors = append(ors, expr+` LIKE ?`)
			args = append(args, "%"+search+"%")
		}
		if len(ors) > 0 {
			conds = append(conds, "("+strings.Join(ors, " OR ")+")")
		}
	}

	// Sorted so the generated SQL is stable.
	names := make([]string, 0, len(p.Filters))
	for name := range p.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := strings.TrimSpace(p.Filters[name])
		expr, ok := columns[name]
		if !ok || value == "" {
			continue
		}
		conds = append(conds, expr+` LIKE ?`)
		args = append(args, "%"+value+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// limitClause returns a LIMIT/OFFSET fragment, or empty when p.Limit <= 0.
func limitClause(p ListParams) (string, []any) {
	if p.Limit <= 0 {
		return "", nil
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return ` LIMIT ? OFFSET ?`, []any{p.Limit, offset}
}

// CommitResult reports the outcome of a transactional write. Err is nil on
// success; otherwise Recoverable says whether the caller may report the
// failure to the user and carry on.
type CommitResult struct {
	ID          int64
	Err         error
	Recoverable bool
}

func (r CommitResult) OK() bool {
	return r.Err == nil
}

func committed(id int64) CommitResult {
	return CommitResult{ID: id}
}

func failed(err error) CommitResult {
	return CommitResult{Err: err, Recoverable: IsRecoverable(err)}
}

// IsRecoverable reports whether err is a SQLite failure the user can act on:
// constraint violations and lock contention. Anything else (I/O, corruption,
// a closed pool) is treated as fatal.
func IsRecoverable(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
