package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/database"
	"github.com/mglynn/qrewards/internal/model"
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

func TestUserCreateAndGet(t *testing.T) {
	us := setupUserTestDB(t)

	u, err := us.Create("alice@example.com", "hashed-credential", model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.Role != model.RoleUser {
		t.Errorf("role = %q, want %q", u.Role, model.RoleUser)
	}
	if u.Points != 0 {
		t.Errorf("points = %d, want 0", u.Points)
	}

	got, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by email = %+v, want id %d", got, u.ID)
	}
	if got.PasswordHash != "hashed-credential" {
		t.Errorf("password_hash = %q, want %q", got.PasswordHash, "hashed-credential")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.Create("bob@example.com", "h1", model.RoleUser); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := us.Create("bob@example.com", "h2", model.RoleUser)
	if !errors.Is(err, apperror.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserNotFound(t *testing.T) {
	us := setupUserTestDB(t)

	got, err := us.GetByID(999)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got != nil {
		t.Error("expected nil for non-existent user")
	}

	got, err = us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got != nil {
		t.Error("expected nil for unknown email")
	}
}

func TestUserAddPoints(t *testing.T) {
	us := setupUserTestDB(t)

	u, _ := us.Create("carol@example.com", "h", model.RoleUser)

	total, err := us.AddPoints(u.ID, 42)
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if total != 42 {
		t.Errorf("total = %d, want 42", total)
	}

	total, err = us.AddPoints(u.ID, 10)
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if total != 52 {
		t.Errorf("total = %d, want 52", total)
	}
}

func TestUserAddPointsUnknownUser(t *testing.T) {
	us := setupUserTestDB(t)

	if _, err := us.AddPoints(12345, 10); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestUserAddPointsConcurrent(t *testing.T) {
	// File-backed DB so the connection pool shares one database.
	db, err := database.Open(filepath.Join(t.TempDir(), "points.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	us := NewUserStore(db)

	u, err := us.Create("dave@example.com", "h", model.RoleUser)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	const n = 20
	const perCredit = 7

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := us.AddPoints(u.ID, perCredit); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add points: %v", err)
	}

	got, err := us.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Points != n*perCredit {
		t.Errorf("points = %d, want %d (lost updates)", got.Points, n*perCredit)
	}
}
