package store

import (
	"context"
	"testing"
	"time"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *UserStore) {
	t.Helper()
	db := setupTestDB(t)
	return NewSessionStore(db), NewUserStore(db)
}

func TestSessionCreateAndGet(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()

	u, _ := us.Create(ctx, UserParams{FirstName: "Alice", Email: "alice@example.com", PasswordHash: "h"})

	sess, err := ss.Create(ctx, u.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != u.ID {
		t.Errorf("user_id = %d, want %d", sess.UserID, u.ID)
	}

	got, err := ss.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.ID != sess.ID {
		t.Fatalf("got %+v, want session %d", got, sess.ID)
	}
}

func TestSessionGetByTokenExpired(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()

	u, _ := us.Create(ctx, UserParams{FirstName: "Alice", Email: "alice@example.com", PasswordHash: "h"})
	sess, err := ss.Create(ctx, u.ID, -time.Minute)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := ss.GetByToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for expired session")
	}

	n, err := ss.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
}

func TestSessionGetByTokenUnknown(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	got, err := ss.GetByToken(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestSessionDeleteByUserID(t *testing.T) {
	ss, us := setupSessionTestDB(t)
	ctx := context.Background()

	u, _ := us.Create(ctx, UserParams{FirstName: "Alice", Email: "alice@example.com", PasswordHash: "h"})
	a, _ := ss.Create(ctx, u.ID, time.Hour)
	b, _ := ss.Create(ctx, u.ID, time.Hour)

	if err := ss.DeleteByUserID(ctx, u.ID); err != nil {
		t.Fatalf("delete by user: %v", err)
	}
	for _, tok := range []string{a.Token, b.Token} {
		got, err := ss.GetByToken(ctx, tok)
		if err != nil {
			t.Fatalf("get by token: %v", err)
		}
		if got != nil {
			t.Error("expected sessions to be deleted")
		}
	}
}
