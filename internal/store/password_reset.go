package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"
)

const passwordResetTTL = time.Hour

// PasswordResetStore issues and consumes single-use password-reset tokens.
type PasswordResetStore struct {
	db *sql.DB
}

func NewPasswordResetStore(db *sql.DB) *PasswordResetStore {
	return &PasswordResetStore{db: db}
}

// Create issues a reset token for the user, valid for one hour.
func (s *PasswordResetStore) Create(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf)

	_, err := s.db.Exec(
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC().Add(passwordResetTTL),
	)
	if err != nil {
		return "", fmt.Errorf("insert password reset: %w", err)
	}
	return token, nil
}

// Consume marks the token used and returns the user it belongs to. Unknown,
// expired, and already-used tokens all yield ErrNotFound.
func (s *PasswordResetStore) Consume(token string) (string, error) {
	var userID string
	var expiresAt time.Time
	err := s.db.QueryRow(
		`SELECT user_id, expires_at FROM password_resets WHERE token = ? AND used = 0`,
		token,
	).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get password reset: %w", err)
	}
	if time.Now().UTC().After(expiresAt) {
		return "", ErrNotFound
	}

	result, err := s.db.Exec(`UPDATE password_resets SET used = 1 WHERE token = ? AND used = 0`, token)
	if err != nil {
		return "", fmt.Errorf("consume password reset: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return "", ErrNotFound
	}
	return userID, nil
}

// DeleteExpired removes stale tokens and returns the number deleted.
func (s *PasswordResetStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM password_resets WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	return result.RowsAffected()
}
