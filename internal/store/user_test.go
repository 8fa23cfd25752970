package store

import (
	"errors"
	"testing"

	"larder/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.HouseholdID != nil {
		t.Error("expected no household linkage on new user")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	us.Create("alice@example.com", "Alice", "hash")
	_, err := us.Create("alice@example.com", "Other Alice", "hash2")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)

	created, _ := us.Create("alice@example.com", "Alice", "hash")

	u, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("id = %q, want %q", u.ID, created.ID)
	}

	if _, err := us.GetByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUserSetHousehold(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("alice@example.com", "Alice", "hash")

	hid := "some-household-id"
	linked, err := us.SetHousehold(u.ID, &hid)
	if err != nil {
		t.Fatalf("set household: %v", err)
	}
	if linked.HouseholdID == nil || *linked.HouseholdID != hid {
		t.Error("expected household linkage")
	}

	cleared, err := us.SetHousehold(u.ID, nil)
	if err != nil {
		t.Fatalf("clear household: %v", err)
	}
	if cleared.HouseholdID != nil {
		t.Error("expected linkage cleared")
	}
}

func TestUserDelete(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("alice@example.com", "Alice", "hash")
	if err := us.Delete(u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := us.GetByEmail("alice@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}
