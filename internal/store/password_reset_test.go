package store

import (
	"errors"
	"testing"

	"larder/internal/database"
)

func setupPasswordResetTestDB(t *testing.T) (*PasswordResetStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPasswordResetStore(db), NewUserStore(db)
}

func TestPasswordResetConsume(t *testing.T) {
	prs, us := setupPasswordResetTestDB(t)
	u, _ := us.Create("alice@example.com", "Alice", "hash")

	token, err := prs.Create(u.ID)
	if err != nil {
		t.Fatalf("create reset: %v", err)
	}

	userID, err := prs.Consume(token)
	if err != nil {
		t.Fatalf("consume reset: %v", err)
	}
	if userID != u.ID {
		t.Errorf("user = %q, want %q", userID, u.ID)
	}
}

func TestPasswordResetSingleUse(t *testing.T) {
	prs, us := setupPasswordResetTestDB(t)
	u, _ := us.Create("alice@example.com", "Alice", "hash")

	token, _ := prs.Create(u.ID)
	prs.Consume(token)

	if _, err := prs.Consume(token); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound on second use", err)
	}
}

func TestPasswordResetUnknownToken(t *testing.T) {
	prs, _ := setupPasswordResetTestDB(t)

	if _, err := prs.Consume("bogus"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
