package recurrence

import (
	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// NextDate 计算下一次提醒日期，ok=false 表示不再重复
// MONTHLY/YEARLY 超出目标月天数时取月末；CUSTOM 仅在 customDays 为正时生效
func NextDate(current models.Date, interval models.RecurringInterval, customDays *int) (models.Date, bool) {
	if current.IsZero() {
		return models.Date{}, false
	}

	switch interval {
	case models.RecurringMonthly:
		return current.AddMonthsClamped(1), true
	case models.RecurringYearly:
		return current.AddYearsClamped(1), true
	case models.RecurringCustom:
		if customDays == nil || *customDays <= 0 {
			return models.Date{}, false
		}
		return current.AddDays(*customDays), true
	default:
		return models.Date{}, false
	}
}

// NextForAppliance 按家电的重复设置计算下一次提醒日期
func NextForAppliance(a *models.Appliance) (models.Date, bool) {
	if a == nil || a.AlertDate == nil {
		return models.Date{}, false
	}
	return NextDate(*a.AlertDate, a.RecurringInterval, a.CustomDays())
}
