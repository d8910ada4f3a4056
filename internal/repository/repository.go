package repository

import (
	"context"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// ApplianceRepository 家电Repository接口
// 所有按 owner 作用域的查询在找不到时返回 models.ErrNotFound（可用 errors.Is 判断）
type ApplianceRepository interface {
	// FindDueBefore 查询 alert_date 严格早于 asOf 的家电
	// 已对当前 alert_date 发出过的一次性提醒（fired_for = alert_date）不返回
	FindDueBefore(ctx context.Context, asOf models.Date) ([]*models.Appliance, error)
	FindByOwnerAndID(ctx context.Context, ownerID, applianceID string) (*models.Appliance, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Appliance, error)
	// ListUpcoming 查询 alert_date 在 [from, to] 且未取消的家电
	ListUpcoming(ctx context.Context, ownerID string, from, to models.Date) ([]*models.Appliance, error)
	// Save 新建或更新（owner_id 不可变）
	Save(ctx context.Context, appliance *models.Appliance) (*models.Appliance, error)
	Delete(ctx context.Context, ownerID, applianceID string) error
}

// UserRepository 用户Repository接口（只包含提醒需要的联系方式）
type UserRepository interface {
	FindByID(ctx context.Context, ownerID string) (*models.OwnerContact, error)
	Upsert(ctx context.Context, user *models.OwnerContact) error
}
