package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attendance-api/internal/database"
	"github.com/attendance-api/internal/models"
)

// userRepo is the concrete implementation of UserRepository
type userRepo struct {
	db *database.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *database.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `u.id, u.name, u.email, u.role, u.barcode_id, u.is_active, u.created_at`

// GetActiveByBarcode retrieves an active user by personal barcode
func (r *userRepo) GetActiveByBarcode(ctx context.Context, barcode string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.barcode_id = $1 AND u.is_active`
	return r.scanOne(r.db.Conn(ctx).QueryRowContext(ctx, query, barcode))
}

// GetActiveBySessionToken retrieves the active owner of an unexpired session
func (r *userRepo) GetActiveBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1 AND s.expires_at > $2 AND u.is_active
	`
	return r.scanOne(r.db.Conn(ctx).QueryRowContext(ctx, query, token, now))
}

func (r *userRepo) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Role, &user.BarcodeID,
		&user.Active, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
