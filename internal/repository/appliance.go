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

// PostgresApplianceRepository 家电仓库（PostgreSQL）
type PostgresApplianceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresApplianceRepository 创建家电仓库
func NewPostgresApplianceRepository(db *sql.DB, logger *zap.Logger) *PostgresApplianceRepository {
	return &PostgresApplianceRepository{
		db:     db,
		logger: logger,
	}
}

var _ ApplianceRepository = (*PostgresApplianceRepository)(nil)

const applianceColumns = `
			appliance_id,
			owner_id,
			name,
			description,
			category,
			brand,
			model,
			serial_number,
			purchase_date,
			warranty_months,
			condition_text,
			notes,
			alert_date,
			alert_status,
			snooze_until,
			recurring_interval,
			recurring_interval_days,
			fired_for,
			created_at,
			updated_at`

// ============================================
// 查询
// ============================================

// FindDueBefore 巡检候选集
func (r *PostgresApplianceRepository) FindDueBefore(ctx context.Context, asOf models.Date) ([]*models.Appliance, error) {
	query := `
		SELECT ` + applianceColumns + `
		FROM appliances
		WHERE alert_date IS NOT NULL
		  AND alert_date < $1
		  AND (fired_for IS NULL OR fired_for <> alert_date)
		ORDER BY alert_date, appliance_id
	`

	return r.queryAppliances(ctx, query, asOf)
}

// FindByOwnerAndID 按 owner 查询单个家电
func (r *PostgresApplianceRepository) FindByOwnerAndID(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if applianceID == "" {
		return nil, fmt.Errorf("appliance_id is required")
	}

	query := `
		SELECT ` + applianceColumns + `
		FROM appliances
		WHERE appliance_id = $1
		  AND owner_id = $2
	`

	a, err := scanAppliance(r.db.QueryRowContext(ctx, query, applianceID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appliance %s of owner %s: %w", applianceID, ownerID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get appliance: %w", err)
	}
	return a, nil
}

// ListByOwner 查询 owner 的全部家电
func (r *PostgresApplianceRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Appliance, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	query := `
		SELECT ` + applianceColumns + `
		FROM appliances
		WHERE owner_id = $1
		ORDER BY name, appliance_id
	`

	return r.queryAppliances(ctx, query, ownerID)
}

// ListUpcoming 即将到期的提醒
func (r *PostgresApplianceRepository) ListUpcoming(ctx context.Context, ownerID string, from, to models.Date) ([]*models.Appliance, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}

	query := `
		SELECT ` + applianceColumns + `
		FROM appliances
		WHERE owner_id = $1
		  AND alert_date IS NOT NULL
		  AND alert_date >= $2
		  AND alert_date <= $3
		  AND alert_status <> 'CANCELLED'
		ORDER BY alert_date, name
	`

	return r.queryAppliances(ctx, query, ownerID, from, to)
}

// ============================================
// 写入
// ============================================

// Save 新建或更新家电，返回数据库中的时间戳
// 已存在记录的 owner_id 不同则视为不存在
func (r *PostgresApplianceRepository) Save(ctx context.Context, a *models.Appliance) (*models.Appliance, error) {
	if a == nil {
		return nil, fmt.Errorf("appliance is required")
	}
	if a.ID == "" {
		return nil, fmt.Errorf("appliance_id is required")
	}
	if a.OwnerID == "" {
		return nil, fmt.Errorf("owner_id is required")
	}
	if strings.TrimSpace(a.Name) == "" {
		return nil, fmt.Errorf("name is required")
	}

	query := `
		INSERT INTO appliances (
			appliance_id,
			owner_id,
			name,
			description,
			category,
			brand,
			model,
			serial_number,
			purchase_date,
			warranty_months,
			condition_text,
			notes,
			alert_date,
			alert_status,
			snooze_until,
			recurring_interval,
			recurring_interval_days,
			fired_for,
			created_at,
			updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, now(), now()
		)
		ON CONFLICT (appliance_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			brand = EXCLUDED.brand,
			model = EXCLUDED.model,
			serial_number = EXCLUDED.serial_number,
			purchase_date = EXCLUDED.purchase_date,
			warranty_months = EXCLUDED.warranty_months,
			condition_text = EXCLUDED.condition_text,
			notes = EXCLUDED.notes,
			alert_date = EXCLUDED.alert_date,
			alert_status = EXCLUDED.alert_status,
			snooze_until = EXCLUDED.snooze_until,
			recurring_interval = EXCLUDED.recurring_interval,
			recurring_interval_days = EXCLUDED.recurring_interval_days,
			fired_for = EXCLUDED.fired_for,
			updated_at = now()
		WHERE appliances.owner_id = EXCLUDED.owner_id
		RETURNING created_at, updated_at
	`

	interval := a.RecurringInterval
	if interval == "" {
		interval = models.RecurringNone
	}

	saved := a.Clone()
	saved.RecurringInterval = interval
	err := r.db.QueryRowContext(ctx, query,
		a.ID,
		a.OwnerID,
		a.Name,
		nullString(a.Description),
		nullString(a.Category),
		nullString(a.Brand),
		nullString(a.Model),
		nullString(a.SerialNumber),
		nullString(a.PurchaseDate),
		nullInt(a.WarrantyMonths),
		nullString(a.ConditionText),
		nullString(a.Notes),
		nullDate(a.AlertDate),
		string(a.Alert.Status()),
		nullDate(a.Alert.SnoozeUntilPtr()),
		string(interval),
		nullInt(a.RecurringIntervalDays),
		nullDate(a.FiredFor),
	).Scan(&saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// ON CONFLICT 的 WHERE 不满足：记录属于其他 owner
			return nil, fmt.Errorf("appliance %s of owner %s: %w", a.ID, a.OwnerID, models.ErrNotFound)
		}
		r.logger.Error("Failed to save appliance",
			zap.String("appliance_id", a.ID),
			zap.String("owner_id", a.OwnerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save appliance: %w", err)
	}

	return saved, nil
}

// Delete 删除家电
func (r *PostgresApplianceRepository) Delete(ctx context.Context, ownerID, applianceID string) error {
	if ownerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if applianceID == "" {
		return fmt.Errorf("appliance_id is required")
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM appliances WHERE appliance_id = $1 AND owner_id = $2`,
		applianceID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete appliance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("appliance %s of owner %s: %w", applianceID, ownerID, models.ErrNotFound)
	}
	return nil
}

// ============================================
// 扫描辅助
// ============================================

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresApplianceRepository) queryAppliances(ctx context.Context, query string, args ...any) ([]*models.Appliance, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appliances: %w", err)
	}
	defer rows.Close()

	appliances := make([]*models.Appliance, 0)
	for rows.Next() {
		a, err := scanAppliance(rows)
		if err != nil {
			// 状态字段脏数据只跳过该行，其余家电照常返回
			if errors.Is(err, models.ErrInvalidAlertState) {
				r.logger.Warn("Skipping appliance with invalid alert state", zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("failed to scan appliance: %w", err)
		}
		appliances = append(appliances, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appliances: %w", err)
	}

	return appliances, nil
}

func scanAppliance(row rowScanner) (*models.Appliance, error) {
	var a models.Appliance
	var description, category, brand, model, serial, purchaseDate, condition, notes sql.NullString
	var warranty, intervalDays sql.NullInt64
	var alertDate, snoozeUntil, firedFor models.Date
	var alertStatus, interval string

	err := row.Scan(
		&a.ID,
		&a.OwnerID,
		&a.Name,
		&description,
		&category,
		&brand,
		&model,
		&serial,
		&purchaseDate,
		&warranty,
		&condition,
		&notes,
		&alertDate,
		&alertStatus,
		&snoozeUntil,
		&interval,
		&intervalDays,
		&firedFor,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// 处理可空字段
	a.Description = stringPtr(description)
	a.Category = stringPtr(category)
	a.Brand = stringPtr(brand)
	a.Model = stringPtr(model)
	a.SerialNumber = stringPtr(serial)
	a.PurchaseDate = stringPtr(purchaseDate)
	a.ConditionText = stringPtr(condition)
	a.Notes = stringPtr(notes)
	a.WarrantyMonths = intPtr(warranty)
	a.RecurringIntervalDays = intPtr(intervalDays)
	a.AlertDate = datePtr(alertDate)
	a.FiredFor = datePtr(firedFor)

	if parsed, ok := models.ParseRecurringInterval(interval); ok {
		a.RecurringInterval = parsed
	} else {
		a.RecurringInterval = models.RecurringInterval(interval)
	}

	state, err := models.ParseAlertState(alertStatus, datePtr(snoozeUntil))
	if err != nil {
		return nil, fmt.Errorf("appliance %s: %w", a.ID, err)
	}
	a.Alert = state

	return &a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullDate(d *models.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time()
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func intPtr(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int64)
	return &v
}

func datePtr(d models.Date) *models.Date {
	if d.IsZero() {
		return nil
	}
	return &d
}
