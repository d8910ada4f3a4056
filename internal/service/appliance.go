package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidInput 请求参数不合法
var ErrInvalidInput = errors.New("invalid input")

// MaxUpcomingDays UpcomingAlerts 最大查询窗口
const MaxUpcomingDays = 366

// Today 当前日期来源（engine.Engine 实现）
type Today interface {
	Today() models.Date
}

// ApplianceInput 新建/修改家电的字段
type ApplianceInput struct {
	Name                  string       `json:"name"`
	Description           *string      `json:"description,omitempty"`
	Category              *string      `json:"category,omitempty"`
	Brand                 *string      `json:"brand,omitempty"`
	Model                 *string      `json:"model,omitempty"`
	SerialNumber          *string      `json:"serial_number,omitempty"`
	PurchaseDate          *string      `json:"purchase_date,omitempty"`
	WarrantyMonths        *int         `json:"warranty_months,omitempty"`
	ConditionText         *string      `json:"condition_text,omitempty"`
	Notes                 *string      `json:"notes,omitempty"`
	AlertDate             *models.Date `json:"alert_date,omitempty"`
	RecurringInterval     string       `json:"recurring_interval,omitempty"`
	RecurringIntervalDays *int         `json:"recurring_interval_days,omitempty"`
}

// ApplianceService 家电管理服务
type ApplianceService struct {
	repo   repository.ApplianceRepository
	today  Today
	logger *zap.Logger
}

// NewApplianceService 创建家电服务
func NewApplianceService(repo repository.ApplianceRepository, today Today, logger *zap.Logger) *ApplianceService {
	return &ApplianceService{
		repo:   repo,
		today:  today,
		logger: logger,
	}
}

// ListAppliances 查询 owner 的家电
func (s *ApplianceService) ListAppliances(ctx context.Context, ownerID string) ([]*models.Appliance, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner_id is required", ErrInvalidInput)
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// GetAppliance 查询单个家电
func (s *ApplianceService) GetAppliance(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error) {
	return s.repo.FindByOwnerAndID(ctx, ownerID, applianceID)
}

// CreateAppliance 新建家电（提醒状态为 ACTIVE）
func (s *ApplianceService) CreateAppliance(ctx context.Context, ownerID string, in ApplianceInput) (*models.Appliance, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner_id is required", ErrInvalidInput)
	}

	a := &models.Appliance{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Alert:   models.Active(),
	}
	if err := applyInput(a, in); err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, a)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appliance created",
		zap.String("appliance_id", saved.ID),
		zap.String("owner_id", ownerID),
	)
	return saved, nil
}

// UpdateAppliance 修改家电；alert_date 变化时提醒状态重置为 ACTIVE
func (s *ApplianceService) UpdateAppliance(ctx context.Context, ownerID, applianceID string, in ApplianceInput) (*models.Appliance, error) {
	a, err := s.repo.FindByOwnerAndID(ctx, ownerID, applianceID)
	if err != nil {
		return nil, err
	}

	if err := applyInput(a, in); err != nil {
		return nil, err
	}

	return s.repo.Save(ctx, a)
}

// DeleteAppliance 删除家电
func (s *ApplianceService) DeleteAppliance(ctx context.Context, ownerID, applianceID string) error {
	if err := s.repo.Delete(ctx, ownerID, applianceID); err != nil {
		return err
	}
	s.logger.Info("Appliance deleted",
		zap.String("appliance_id", applianceID),
		zap.String("owner_id", ownerID),
	)
	return nil
}

// UpcomingAlerts alert_date 在 [today, today+days] 且未取消的家电
func (s *ApplianceService) UpcomingAlerts(ctx context.Context, ownerID string, days int) ([]*models.Appliance, error) {
	if days < 0 || days > MaxUpcomingDays {
		return nil, fmt.Errorf("%w: days must be between 0 and %d", ErrInvalidInput, MaxUpcomingDays)
	}
	from := s.today.Today()
	return s.repo.ListUpcoming(ctx, ownerID, from, from.AddDays(days))
}

// applyInput 校验并写入字段
func applyInput(a *models.Appliance, in ApplianceInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	interval, ok := models.ParseRecurringInterval(in.RecurringInterval)
	if !ok {
		return fmt.Errorf("%w: unknown recurring_interval %q", ErrInvalidInput, in.RecurringInterval)
	}
	if in.RecurringIntervalDays != nil && *in.RecurringIntervalDays < 0 {
		return fmt.Errorf("%w: recurring_interval_days must be non-negative", ErrInvalidInput)
	}
	// CUSTOM 缺少天数时不会重复，直接拒绝
	if interval == models.RecurringCustom && (in.RecurringIntervalDays == nil || *in.RecurringIntervalDays <= 0) {
		return fmt.Errorf("%w: recurring_interval_days must be positive for CUSTOM", ErrInvalidInput)
	}
	if in.WarrantyMonths != nil && *in.WarrantyMonths < 0 {
		return fmt.Errorf("%w: warranty_months must be non-negative", ErrInvalidInput)
	}

	a.Name = name
	a.Description = in.Description
	a.Category = in.Category
	a.Brand = in.Brand
	a.Model = in.Model
	a.SerialNumber = in.SerialNumber
	a.PurchaseDate = in.PurchaseDate
	a.WarrantyMonths = in.WarrantyMonths
	a.ConditionText = in.ConditionText
	a.Notes = in.Notes
	a.RecurringInterval = interval
	a.RecurringIntervalDays = in.RecurringIntervalDays
	a.SetAlertDate(in.AlertDate)
	return nil
}
