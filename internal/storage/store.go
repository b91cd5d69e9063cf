// Package storage persists the client's read-through copy of claims.
// The backend owns every claim; rows here only ever hold server-confirmed
// state and are overwritten wholesale by each confirmed mutation.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jomfood/jomdeals/internal/common"
	"github.com/jomfood/jomdeals/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is a SQLite-backed claim store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the claim database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: storage path is required", common.ErrMissingConfig)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// SaveClaim upserts a server-confirmed claim copy.
func (s *Store) SaveClaim(ctx context.Context, claim *model.Claim) error {
	if claim == nil {
		return fmt.Errorf("claim cannot be nil")
	}
	if claim.ID == "" {
		return fmt.Errorf("claim id cannot be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO claims (id, deal_id, deal_title, status, claimed_at, expires_at, redeemed_at, preferred_datetime, qr_code_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			deal_id = excluded.deal_id,
			deal_title = excluded.deal_title,
			status = excluded.status,
			claimed_at = excluded.claimed_at,
			expires_at = excluded.expires_at,
			redeemed_at = excluded.redeemed_at,
			preferred_datetime = excluded.preferred_datetime,
			qr_code_url = excluded.qr_code_url,
			updated_at = excluded.updated_at`,
		claim.ID,
		claim.DealID,
		claim.DealTitle,
		string(claim.Status),
		formatTime(claim.ClaimedAt),
		formatTime(claim.ExpiresAt),
		formatTimePtr(claim.RedeemedAt),
		formatTimePtr(claim.PreferredDatetime),
		claim.QRCodeURL,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save claim: %w", err)
	}
	return nil
}

// GetClaim returns the local copy of one claim, or common.ErrNotFound.
func (s *Store) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, deal_id, deal_title, status, claimed_at, expires_at, redeemed_at, preferred_datetime, qr_code_url
		FROM claims WHERE id = ?`, id)

	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// ListClaims returns every locally cached claim, newest first.
func (s *Store) ListClaims(ctx context.Context) ([]model.Claim, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deal_id, deal_title, status, claimed_at, expires_at, redeemed_at, preferred_datetime, qr_code_url
		FROM claims ORDER BY claimed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		claim, scanErr := scanClaim(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", scanErr)
		}
		claims = append(claims, *claim)
	}
	return claims, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var claim model.Claim
	var status, claimedAt, expiresAt string
	var redeemedAt, preferredDatetime sql.NullString

	if err := row.Scan(
		&claim.ID,
		&claim.DealID,
		&claim.DealTitle,
		&status,
		&claimedAt,
		&expiresAt,
		&redeemedAt,
		&preferredDatetime,
		&claim.QRCodeURL,
	); err != nil {
		return nil, err
	}

	claim.Status = model.ClaimStatus(status)

	var err error
	if claim.ClaimedAt, err = parseTime(claimedAt); err != nil {
		return nil, err
	}
	if claim.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if claim.RedeemedAt, err = parseTimePtr(redeemedAt); err != nil {
		return nil, err
	}
	if claim.PreferredDatetime, err = parseTimePtr(preferredDatetime); err != nil {
		return nil, err
	}
	return &claim, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
