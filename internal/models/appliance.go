package models

import (
	"strings"
	"time"
)

// RecurringInterval 循环提醒间隔
type RecurringInterval string

const (
	RecurringNone    RecurringInterval = "NONE"
	RecurringMonthly RecurringInterval = "MONTHLY"
	RecurringYearly  RecurringInterval = "YEARLY"
	RecurringCustom  RecurringInterval = "CUSTOM"
)

// ParseRecurringInterval 大小写不敏感，空串视为 NONE
func ParseRecurringInterval(s string) (RecurringInterval, bool) {
	switch RecurringInterval(strings.ToUpper(strings.TrimSpace(s))) {
	case "", RecurringNone:
		return RecurringNone, true
	case RecurringMonthly:
		return RecurringMonthly, true
	case RecurringYearly:
		return RecurringYearly, true
	case RecurringCustom:
		return RecurringCustom, true
	default:
		return RecurringNone, false
	}
}

// Appliance 家电（对应 appliances 表）
type Appliance struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Category       *string `json:"category,omitempty"`
	Brand          *string `json:"brand,omitempty"`
	Model          *string `json:"model,omitempty"`
	SerialNumber   *string `json:"serial_number,omitempty"`
	PurchaseDate   *string `json:"purchase_date,omitempty"`
	WarrantyMonths *int    `json:"warranty_months,omitempty"`
	ConditionText  *string `json:"condition_text,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	// 提醒
	AlertDate             *Date             `json:"alert_date"`
	Alert                 AlertState        `json:"alert"`
	RecurringInterval     RecurringInterval `json:"recurring_interval"`
	RecurringIntervalDays *int              `json:"recurring_interval_days,omitempty"`
	// FiredFor 一次性提醒已发出时对应的 alert_date
	FiredFor *Date `json:"fired_for,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetAlertDate 修改提醒日期；日期变化时重置为 ACTIVE 并清除已发出标记
func (a *Appliance) SetAlertDate(d *Date) {
	if sameDate(a.AlertDate, d) {
		return
	}
	if d != nil && !d.IsZero() {
		v := *d
		a.AlertDate = &v
	} else {
		a.AlertDate = nil
	}
	a.Alert = Active()
	a.FiredFor = nil
}

// HasFired 一次性提醒是否已对当前 alert_date 发出
func (a *Appliance) HasFired() bool {
	return a.FiredFor != nil && a.AlertDate != nil && a.FiredFor.Equal(*a.AlertDate)
}

// CustomDays 仅 CUSTOM 时返回配置的天数
func (a *Appliance) CustomDays() *int {
	if a.RecurringInterval != RecurringCustom {
		return nil
	}
	return a.RecurringIntervalDays
}

// Clone 深拷贝（内存仓库使用，避免调用方修改共享指针）
func (a *Appliance) Clone() *Appliance {
	if a == nil {
		return nil
	}
	c := *a
	c.Description = cloneString(a.Description)
	c.Category = cloneString(a.Category)
	c.Brand = cloneString(a.Brand)
	c.Model = cloneString(a.Model)
	c.SerialNumber = cloneString(a.SerialNumber)
	c.PurchaseDate = cloneString(a.PurchaseDate)
	c.ConditionText = cloneString(a.ConditionText)
	c.Notes = cloneString(a.Notes)
	if a.WarrantyMonths != nil {
		v := *a.WarrantyMonths
		c.WarrantyMonths = &v
	}
	if a.RecurringIntervalDays != nil {
		v := *a.RecurringIntervalDays
		c.RecurringIntervalDays = &v
	}
	if a.AlertDate != nil {
		v := *a.AlertDate
		c.AlertDate = &v
	}
	if a.FiredFor != nil {
		v := *a.FiredFor
		c.FiredFor = &v
	}
	return &c
}

func sameDate(a, b *Date) bool {
	aZero := a == nil || a.IsZero()
	bZero := b == nil || b.IsZero()
	if aZero || bZero {
		return aZero == bZero
	}
	return a.Equal(*b)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// OwnerContact 家电所有者联系方式（对应 users 表的子集）
type OwnerContact struct {
	OwnerID   string  `json:"owner_id"`
	Name      string  `json:"name"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     string  `json:"email"`
}

// DisplayName 邮件称呼：优先 name，其次 first_name
func (o *OwnerContact) DisplayName() string {
	if strings.TrimSpace(o.Name) != "" {
		return o.Name
	}
	if o.FirstName != nil && *o.FirstName != "" {
		return *o.FirstName
	}
	return o.Email
}
