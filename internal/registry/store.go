package registry

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"orderflow/pkg/models"
)

var (
	// ErrUserNotFound means no user exists with the given id.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken means the unique email constraint rejected the write.
	ErrEmailTaken = errors.New("email already in use")
)

// Store persists users in PostgreSQL.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Save inserts a new user.
func (s *Store) Save(user models.User) error {
	_, err := s.DB.Exec(
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// Load fetches one user by id.
func (s *Store) Load(id string) (models.User, error) {
	var user models.User
	err := s.DB.QueryRow("SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1", id).
		Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return user, ErrUserNotFound
	}
	return user, err
}

// Update rewrites a user's mutable attributes.
func (s *Store) Update(user models.User) error {
	err := s.DB.QueryRow(
		"UPDATE users SET email = $1, name = $2, updated_at = $3 WHERE id = $4 RETURNING id",
		user.Email, user.Name, user.UpdatedAt, user.ID,
	).Scan(&user.ID)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// List returns all users, newest first.
func (s *Store) List() ([]models.User, error) {
	rows, err := s.DB.Query("SELECT id, email, name, created_at, updated_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
