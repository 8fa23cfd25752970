package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"larder/internal/model"
)

// HouseholdStore maintains household records and their member sets.
//
// Membership lives in a row-per-member table, so adding and removing a member
// are single atomic statements. Two overlapping joins can never lose each
// other's addition the way concurrent read-modify-write of a member array
// would.
type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatorID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, creator_id, created_at, updated_at`

// Create inserts a new household whose member set is exactly {creatorID}.
// A blank name defaults to "<creator>'s Household". The household row and the
// creator's membership row are written in one transaction, so the "creator is
// always a member" invariant holds from the first visible state.
func (s *HouseholdStore) Create(creatorID, name string) (*model.Household, error) {
	if name == "" {
		name = fmt.Sprintf("%s's Household", creatorID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO households (id, name, creator_id) VALUES (?, ?, ?)`,
		id, name, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO household_members (household_id, user_id) VALUES (?, ?)`,
		id, creatorID,
	); err != nil {
		return nil, fmt.Errorf("insert creator membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the household with its current member set, or ErrNotFound.
func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}

	h.MemberIDs, err = s.MemberIDs(id)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// MemberIDs returns the user ids of the household's members in join order.
func (s *HouseholdStore) MemberIDs(householdID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM household_members WHERE household_id = ? ORDER BY created_at ASC, user_id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember reports whether userID is currently in the household's member set.
func (s *HouseholdStore) IsMember(householdID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRow(
		`SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

func (s *HouseholdStore) exists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM households WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check household: %w", err)
	}
	return true, nil
}

// Join adds userID to the household's member set. Returns ErrNotFound if the
// household does not exist and ErrAlreadyMember if the user is already in it.
// The insert itself is conflict-ignoring, so concurrent joins by different
// users both land.
func (s *HouseholdStore) Join(householdID, userID string) error {
	ok, err := s.exists(householdID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	result, err := s.db.Exec(
		`INSERT INTO household_members (household_id, user_id) VALUES (?, ?)
		 ON CONFLICT (household_id, user_id) DO NOTHING`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("join household: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrAlreadyMember
	}
	return nil
}

// AddMember adds userID to the member set. Adding a user who is already
// present is a no-op; the returned bool reports whether a new membership was
// actually created.
func (s *HouseholdStore) AddMember(householdID, userID string) (bool, error) {
	err := s.Join(householdID, userID)
	if err == ErrAlreadyMember {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RemoveMember removes userID from the member set. Returns ErrNotFound if the
// household does not exist and ErrNotInHousehold if the user is not a member.
func (s *HouseholdStore) RemoveMember(householdID, userID string) error {
	result, err := s.db.Exec(
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		ok, err := s.exists(householdID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return ErrNotInHousehold
	}
	return nil
}

// Rename changes the household's display name. Any current member may rename;
// the check runs against the live record, not a cached copy. Stamps
// updated_at.
func (s *HouseholdStore) Rename(householdID, requestingUser, name string) (*model.Household, error) {
	ok, err := s.exists(householdID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}

	member, err := s.IsMember(householdID, requestingUser)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrAccessDenied
	}

	if _, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, householdID,
	); err != nil {
		return nil, fmt.Errorf("rename household: %w", err)
	}
	return s.GetByID(householdID)
}

// Delete removes the household. Only the creator may delete; the creator
// check is made against the stored record at delete time. Membership rows
// cascade away and linked lists fall back to private.
func (s *HouseholdStore) Delete(householdID, requestingUser string) error {
	var creatorID string
	err := s.db.QueryRow(`SELECT creator_id FROM households WHERE id = ?`, householdID).Scan(&creatorID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get creator: %w", err)
	}
	if creatorID != requestingUser {
		return ErrAccessDenied
	}

	if _, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, householdID); err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	// Clear the mirrored linkage on user profiles; there is no FK here since
	// the mirror is denormalized.
	if _, err := s.db.Exec(`UPDATE users SET household_id = NULL WHERE household_id = ?`, householdID); err != nil {
		return fmt.Errorf("clear user household links: %w", err)
	}
	return nil
}

// ListForUser returns every household the user is a member of.
func (s *HouseholdStore) ListForUser(userID string) ([]model.Household, error) {
	rows, err := s.db.Query(
		`SELECT h.id, h.name, h.creator_id, h.created_at, h.updated_at
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	var households []model.Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range households {
		households[i].MemberIDs, err = s.MemberIDs(households[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return households, nil
}

// EnsureForUser returns the user's first household, creating a default one if
// the user belongs to none.
func (s *HouseholdStore) EnsureForUser(userID string) (*model.Household, error) {
	households, err := s.ListForUser(userID)
	if err != nil {
		return nil, err
	}
	if len(households) > 0 {
		return &households[0], nil
	}
	return s.Create(userID, "")
}
