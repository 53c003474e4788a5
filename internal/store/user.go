package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Points, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, password_hash, role, points, created_at`

// Create inserts a user with zero points. A unique-index violation on the
// email surfaces as apperror.ErrDuplicateEmail.
func (s *UserStore) Create(email, passwordHash, role string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, role) VALUES (?, ?, ?)`,
		email, passwordHash, role,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
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
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// AddPoints credits points to the user as a single atomic increment and
// returns the resulting balance. Concurrent credits never lose updates.
func (s *UserStore) AddPoints(id int64, points int) (int, error) {
	result, err := s.db.Exec(
		`UPDATE users SET points = points + ? WHERE id = ?`,
		points, id,
	)
	if err != nil {
		return 0, fmt.Errorf("add points: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("add points: user %d not found", id)
	}

	var total int
	if err := s.db.QueryRow(`SELECT points FROM users WHERE id = ?`, id).Scan(&total); err != nil {
		return 0, fmt.Errorf("read points: %w", err)
	}
	return total, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. The modernc driver exposes it only through the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
