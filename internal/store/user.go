package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"larder/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var householdID sql.NullString
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &householdID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if householdID.Valid {
		u.HouseholdID = &householdID.String
	}
	return &u, nil
}

const userCols = `id, email, name, password_hash, household_id, created_at, updated_at`

// Create inserts a user profile. Returns ErrAlreadyExists if the email is
// taken.
func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, password_hash) VALUES (?, ?, ?, ?)`,
		id, email, name, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateName(id, name string) (*model.User, error) {
	result, err := s.db.Exec(
		`UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(id)
}

// SetHousehold records the user's household linkage on the profile mirror.
// Pass nil to clear it.
func (s *UserStore) SetHousehold(id string, householdID *string) (*model.User, error) {
	var hid sql.NullString
	if householdID != nil {
		hid = sql.NullString{String: *householdID, Valid: true}
	}
	result, err := s.db.Exec(
		`UPDATE users SET household_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hid, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set user household: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(id)
}

// UpdatePassword replaces the stored password hash.
func (s *UserStore) UpdatePassword(id, passwordHash string) error {
	result, err := s.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the user record. Sessions cascade away.
func (s *UserStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
