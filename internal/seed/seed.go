// Package seed fills an empty database with the default roles, an admin
// account, demo users and a few chores.
package seed

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dukerupert/choreadmin/internal/auth"
	"github.com/dukerupert/choreadmin/internal/store"
)

const UserRole = "user"

type Options struct {
	AdminEmail    string
	AdminPassword string
	// AdminRole is the role the access gate requires.
	AdminRole string
}

var demoNames = [][2]string{
	{"Harry", "Brown"}, {"Amelia", "Smith"}, {"Oliver", "Patel"}, {"Jack", "Jones"},
	{"Isabella", "Williams"}, {"Charlie", "Johnson"}, {"Sophie", "Taylor"}, {"Mia", "Thomas"},
	{"Jacob", "Roberts"}, {"Thomas", "Khan"}, {"Emily", "Lewis"}, {"Lily", "Jackson"},
	{"Ava", "Clarke"}, {"Isla", "James"}, {"Alfie", "Phillips"}, {"Olivia", "Wilson"},
	{"Jessica", "Ali"}, {"Riley", "Mason"}, {"William", "Mitchell"}, {"James", "Rose"},
	{"Geoffrey", "Davis"}, {"Lisa", "Davies"}, {"Benjamin", "Rodriguez"}, {"Stacey", "Cox"},
	{"Lucy", "Alexander"},
}

var chores = [][2]string{
	{"Feed Fish", "Feed the fish"},
	{"Tank Maintenance", "Change water, clean filters, vacuum sand"},
	{"Unload dishwasher", "Unload dishwasher"},
	{"Do laundry", "Do laundry"},
}

// Run seeds db unless it already has roles. It reports whether anything was
// written.
func Run(ctx context.Context, db *sqlx.DB, opts Options, logger *slog.Logger) (bool, error) {
	roles := store.NewRoleStore(db)
	users := store.NewUserStore(db)
	doIts := store.NewDoItStore(db)

	n, err := roles.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logger.Debug("seed skipped, roles present", "roles", n)
		return false, nil
	}

	adminRole := opts.AdminRole
	if adminRole == "" {
		adminRole = auth.SuperuserRole
	}

	userRole, err := roles.Create(ctx, UserRole, "Ordinary user")
	if err != nil {
		return false, fmt.Errorf("seed role %s: %w", UserRole, err)
	}
	superRole, err := roles.Create(ctx, adminRole, "Full admin access")
	if err != nil {
		return false, fmt.Errorf("seed role %s: %w", adminRole, err)
	}

	hash, err := auth.HashPassword(opts.AdminPassword)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	_, err = users.Create(ctx, store.UserParams{
		FirstName:    "Admin",
		Email:        opts.AdminEmail,
		PasswordHash: hash,
		Active:       true,
		ConfirmedAt:  &now,
		RoleIDs:      []int64{userRole.ID, superRole.ID},
	})
	if err != nil {
		return false, fmt.Errorf("seed admin user: %w", err)
	}

	for _, name := range demoNames {
		first, last := name[0], name[1]
		// Nobody knows these passwords; demo users exist to fill the lists.
		hash, err := auth.HashPassword(rand.Text())
		if err != nil {
			return false, err
		}
		_, err = users.Create(ctx, store.UserParams{
			FirstName:    first,
			LastName:     &last,
			Email:        strings.ToLower(first + "." + last + "@example.com"),
			PasswordHash: hash,
			Active:       true,
			RoleIDs:      []int64{userRole.ID},
		})
		if err != nil {
			return false, fmt.Errorf("seed user %s %s: %w", first, last, err)
		}
	}

	for _, c := range chores {
		if _, err := doIts.Create(ctx, c[0], c[1]); err != nil {
			return false, fmt.Errorf("seed doit %s: %w", c[0], err)
		}
	}

	logger.Info("database seeded", "admin", opts.AdminEmail, "users", len(demoNames)+1, "doits", len(chores))
	return true, nil
}
