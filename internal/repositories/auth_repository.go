package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

type authRepository struct {
	exec SQLExecutor
}

// CreateUser inserts a new user. IsActive is set to true by default;
// CreatedAt and UpdatedAt are set to the current time.
func (r *authRepository) CreateUser(user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	isActive := true

	var userID int64
	err := r.exec.QueryRow(
		query,
		user.Username,
		hashedPassword,
		user.Email,    // Can be nil
		user.FullName, // Can be nil
		user.Role,
		isActive,
		currentTime,
		currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	query := `SELECT id, username, password_hash, email, full_name, role, is_active, created_at, updated_at
	          FROM users
	          WHERE username = $1`

	err := r.exec.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}
	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by their ID. The password hash is not
// populated; this method serves profile reads, not auth checks.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	var passwordHash string
	query := `SELECT id, username, password_hash, email, full_name, role, is_active, created_at, updated_at
	          FROM users
	          WHERE id = $1`

	err := r.exec.QueryRow(query, userID).Scan(
		&user.ID, &user.Username, &passwordHash, &user.Email, &user.FullName,
		&user.Role, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}
