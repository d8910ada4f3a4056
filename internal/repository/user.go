package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"

	"go.uber.org/zap"
)

// PostgresUserRepository 用户仓库（PostgreSQL）
type PostgresUserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresUserRepository 创建用户仓库
func NewPostgresUserRepository(db *sql.DB, logger *zap.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{
		db:     db,
		logger: logger,
	}
}

var _ UserRepository = (*PostgresUserRepository)(nil)

// FindByID 查询提醒收件人
func (r *PostgresUserRepository) FindByID(ctx context.Context, ownerID string) (*models.OwnerContact, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	query := `
		SELECT user_id, name, first_name, last_name, email
		FROM users
		WHERE user_id = $1
	`

	var u models.OwnerContact
	var firstName, lastName sql.NullString
	err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&u.OwnerID,
		&u.Name,
		&firstName,
		&lastName,
		&u.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", ownerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.FirstName = stringPtr(firstName)
	u.LastName = stringPtr(lastName)
	return &u, nil
}

// Upsert 新建或更新用户联系方式
func (r *PostgresUserRepository) Upsert(ctx context.Context, u *models.OwnerContact) error {
	if u == nil || u.OwnerID == "" {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}

	query := `
		INSERT INTO users (user_id, name, first_name, last_name, email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email
	`

	_, err := r.db.ExecContext(ctx, query,
		u.OwnerID,
		u.Name,
		nullString(u.FirstName),
		nullString(u.LastName),
		u.Email,
	)
	if err != nil {
		r.logger.Error("Failed to upsert user",
			zap.String("user_id", u.OwnerID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
