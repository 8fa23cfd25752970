package store

import (
	"errors"
	"sync"
	"testing"

	"larder/internal/database"
)

func setupHouseholdTestDB(t *testing.T) *HouseholdStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db)
}

func TestHouseholdCreate(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, err := hs.Create("u1", "Smith Family")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Smith Family" {
		t.Errorf("name = %q, want %q", h.Name, "Smith Family")
	}
	if h.CreatorID != "u1" {
		t.Errorf("creator_id = %q, want %q", h.CreatorID, "u1")
	}
	if len(h.MemberIDs) != 1 || h.MemberIDs[0] != "u1" {
		t.Errorf("member_ids = %v, want [u1]", h.MemberIDs)
	}
}

func TestHouseholdCreateDefaultName(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, err := hs.Create("u1", "")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "u1's Household" {
		t.Errorf("name = %q, want %q", h.Name, "u1's Household")
	}
}

func TestHouseholdGetByIDNotFound(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	_, err := hs.GetByID("nonexistent-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHouseholdJoin(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	if err := hs.Join(h.ID, "u2"); err != nil {
		t.Fatalf("join: %v", err)
	}

	got, _ := hs.GetByID(h.ID)
	if len(got.MemberIDs) != 2 {
		t.Fatalf("members = %v, want 2 entries", got.MemberIDs)
	}
	if !got.IsMember("u2") {
		t.Error("expected u2 to be a member")
	}
}

func TestHouseholdJoinTwice(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	if err := hs.Join(h.ID, "u2"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	err := hs.Join(h.ID, "u2")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second join err = %v, want ErrAlreadyMember", err)
	}

	// u2 appears exactly once regardless
	got, _ := hs.GetByID(h.ID)
	count := 0
	for _, id := range got.MemberIDs {
		if id == "u2" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("u2 appears %d times, want 1", count)
	}
}

func TestHouseholdJoinNotFound(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	err := hs.Join("nonexistent-id", "u2")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHouseholdConcurrentJoins(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	users := []string{"u2", "u3", "u4", "u5"}
	var wg sync.WaitGroup
	errs := make([]error, len(users))
	for i, u := range users {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			errs[i] = hs.Join(h.ID, u)
		}(i, u)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("join %s: %v", users[i], err)
		}
	}

	got, _ := hs.GetByID(h.ID)
	if len(got.MemberIDs) != len(users)+1 {
		t.Errorf("members = %v, want %d entries", got.MemberIDs, len(users)+1)
	}
	for _, u := range users {
		if !got.IsMember(u) {
			t.Errorf("expected %s to be a member", u)
		}
	}
}

func TestHouseholdAddMemberIdempotent(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	added, err := hs.AddMember(h.ID, "u2")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if !added {
		t.Error("expected first add to report added")
	}

	added, err = hs.AddMember(h.ID, "u2")
	if err != nil {
		t.Fatalf("second add member: %v", err)
	}
	if added {
		t.Error("expected second add to be a no-op")
	}
}

func TestHouseholdRemoveMember(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")
	hs.Join(h.ID, "u2")

	if err := hs.RemoveMember(h.ID, "u2"); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	got, _ := hs.GetByID(h.ID)
	if got.IsMember("u2") {
		t.Error("expected u2 to be removed")
	}
}

func TestHouseholdRemoveMemberAbsent(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	err := hs.RemoveMember(h.ID, "u9")
	if !errors.Is(err, ErrNotInHousehold) {
		t.Errorf("err = %v, want ErrNotInHousehold", err)
	}

	err = hs.RemoveMember("nonexistent-id", "u9")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHouseholdAddRemoveRoundTrip(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")
	before, _ := hs.MemberIDs(h.ID)

	if _, err := hs.AddMember(h.ID, "u2"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := hs.RemoveMember(h.ID, "u2"); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	after, _ := hs.MemberIDs(h.ID)
	if len(after) != len(before) {
		t.Fatalf("members = %v, want %v", after, before)
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("members = %v, want %v", after, before)
		}
	}
}

func TestHouseholdRename(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Old Name")
	hs.Join(h.ID, "u2")

	// Any member may rename, not just the creator
	renamed, err := hs.Rename(h.ID, "u2", "New Name")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "New Name" {
		t.Errorf("name = %q, want %q", renamed.Name, "New Name")
	}
}

func TestHouseholdRenameNonMember(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")

	_, err := hs.Rename(h.ID, "outsider", "Hijacked")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}

	got, _ := hs.GetByID(h.ID)
	if got.Name != "Test Household" {
		t.Errorf("name changed to %q after denied rename", got.Name)
	}
}

func TestHouseholdDeleteCreatorOnly(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, _ := hs.Create("u1", "Test Household")
	hs.Join(h.ID, "u2")

	err := hs.Delete(h.ID, "u2")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}

	// Record unchanged after the denied attempt
	got, err := hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get after denied delete: %v", err)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("members = %v, want 2 entries", got.MemberIDs)
	}

	if err := hs.Delete(h.ID, "u1"); err != nil {
		t.Fatalf("delete by creator: %v", err)
	}
	if _, err := hs.GetByID(h.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}
}

func TestHouseholdDeleteNotFound(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	err := hs.Delete("nonexistent-id", "u1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHouseholdListForUser(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h1, _ := hs.Create("u1", "Household A")
	h2, _ := hs.Create("u2", "Household B")
	hs.Join(h2.ID, "u1")

	households, err := hs.ListForUser("u1")
	if err != nil {
		t.Fatalf("list for user: %v", err)
	}
	if len(households) != 2 {
		t.Fatalf("expected 2 households, got %d", len(households))
	}
	_ = h1
}

func TestHouseholdEnsureForUser(t *testing.T) {
	hs := setupHouseholdTestDB(t)

	h, err := hs.EnsureForUser("u1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if h.Name != "u1's Household" {
		t.Errorf("name = %q, want default", h.Name)
	}

	// Second call returns the existing household, not another default
	again, err := hs.EnsureForUser("u1")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != h.ID {
		t.Errorf("ensure created a second household")
	}
}
