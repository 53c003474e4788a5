package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mglynn/qrewards/internal/apperror"
	"github.com/mglynn/qrewards/internal/model"
)

// ErrDuplicateCode is returned by Create when the generated identifier
// collides with an existing one. Callers retry with a fresh identifier.
var ErrDuplicateCode = errors.New("code identifier already exists")

type CodeStore struct {
	db *sql.DB
}

func NewCodeStore(db *sql.DB) *CodeStore {
	return &CodeStore{db: db}
}

func scanCode(scanner interface{ Scan(...any) error }) (*model.RewardCode, error) {
	var c model.RewardCode
	var redeemedBy sql.NullInt64
	var redeemedAt sql.NullTime

	err := scanner.Scan(&c.ID, &c.Code, &c.IssuedBy, &c.IssuedAt, &redeemedBy, &redeemedAt, &c.PointValue)
	if err != nil {
		return nil, err
	}

	if redeemedBy.Valid {
		c.RedeemedBy = &redeemedBy.Int64
	}
	if redeemedAt.Valid {
		t := redeemedAt.Time
		c.RedeemedAt = &t
	}
	return &c, nil
}

const codeCols = `id, code, issued_by, issued_at, redeemed_by, redeemed_at, point_value`

func (s *CodeStore) Create(codeID string, issuedBy int64, pointValue int) (*model.RewardCode, error) {
	result, err := s.db.Exec(
		`INSERT INTO reward_codes (code, issued_by, point_value) VALUES (?, ?, ?)`,
		codeID, issuedBy, pointValue,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert reward code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CodeStore) GetByID(id int64) (*model.RewardCode, error) {
	row := s.db.QueryRow(`SELECT `+codeCols+` FROM reward_codes WHERE id = ?`, id)
	c, err := scanCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward code: %w", err)
	}
	return c, nil
}

func (s *CodeStore) GetByCode(codeID string) (*model.RewardCode, error) {
	row := s.db.QueryRow(`SELECT `+codeCols+` FROM reward_codes WHERE code = ?`, codeID)
	c, err := scanCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward code by code: %w", err)
	}
	return c, nil
}

// Redeem marks the code as redeemed by userID. The redeemed_by transition is
// a single conditional update so at most one caller ever wins, regardless of
// interleaving. Returns apperror.ErrCodeNotFound for an unknown code and
// apperror.ErrAlreadyRedeemed when another redeemer got there first.
func (s *CodeStore) Redeem(codeID string, userID int64) (*model.RewardCode, error) {
	result, err := s.db.Exec(
		`UPDATE reward_codes SET redeemed_by = ?, redeemed_at = ? WHERE code = ? AND redeemed_by IS NULL`,
		userID, time.Now().UTC(), codeID,
	)
	if err != nil {
		return nil, fmt.Errorf("redeem code: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		existing, err := s.GetByCode(codeID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apperror.ErrCodeNotFound
		}
		return nil, apperror.ErrAlreadyRedeemed
	}
	return s.GetByCode(codeID)
}

// List returns all reward codes, newest first, with the redeemer's email
// joined in. Codes whose redeemer no longer resolves keep an empty email
// rather than failing the listing.
func (s *CodeStore) List() ([]model.CodeListing, error) {
	rows, err := s.db.Query(
		`SELECT rc.id, rc.code, rc.issued_by, rc.issued_at, rc.redeemed_by, rc.redeemed_at, rc.point_value,
		        COALESCE(u.email, '')
		 FROM reward_codes rc
		 LEFT JOIN users u ON u.id = rc.redeemed_by
		 ORDER BY rc.issued_at DESC, rc.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reward codes: %w", err)
	}
	defer rows.Close()

	var listings []model.CodeListing
	for rows.Next() {
		var l model.CodeListing
		var redeemedBy sql.NullInt64
		var redeemedAt sql.NullTime
		err := rows.Scan(&l.ID, &l.Code, &l.IssuedBy, &l.IssuedAt, &redeemedBy, &redeemedAt, &l.PointValue, &l.RedeemerEmail)
		if err != nil {
			return nil, fmt.Errorf("scan reward code: %w", err)
		}
		if redeemedBy.Valid {
			l.RedeemedBy = &redeemedBy.Int64
		}
		if redeemedAt.Valid {
			t := redeemedAt.Time
			l.RedeemedAt = &t
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
