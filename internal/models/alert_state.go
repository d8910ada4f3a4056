package models

import (
	"encoding/json"
	"fmt"
)

// AlertStatus 提醒状态（持久化为字符串）
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "ACTIVE"
	AlertStatusSnoozed   AlertStatus = "SNOOZED"
	AlertStatusCancelled AlertStatus = "CANCELLED"
)

// AlertState 提醒状态机的取值：Active | Snoozed{until} | Cancelled
// snoozeUntil 只有 Snoozed 才有，只能通过构造函数创建
type AlertState struct {
	status      AlertStatus
	snoozeUntil Date
}

// Active 正常提醒
func Active() AlertState { return AlertState{status: AlertStatusActive} }

// Snoozed 暂停到 until（含）之前
func Snoozed(until Date) AlertState {
	return AlertState{status: AlertStatusSnoozed, snoozeUntil: until}
}

// Cancelled 已取消
func Cancelled() AlertState { return AlertState{status: AlertStatusCancelled} }

// Status 零值视为 ACTIVE
func (s AlertState) Status() AlertStatus {
	if s.status == "" {
		return AlertStatusActive
	}
	return s.status
}

// SnoozeUntil 仅 Snoozed 状态返回 ok=true
func (s AlertState) SnoozeUntil() (Date, bool) {
	if s.status != AlertStatusSnoozed {
		return Date{}, false
	}
	return s.snoozeUntil, !s.snoozeUntil.IsZero()
}

func (s AlertState) IsActive() bool    { return s.Status() == AlertStatusActive }
func (s AlertState) IsSnoozed() bool   { return s.status == AlertStatusSnoozed }
func (s AlertState) IsCancelled() bool { return s.status == AlertStatusCancelled }

// Equal 比较状态与暂停日期
func (s AlertState) Equal(o AlertState) bool {
	return s.Status() == o.Status() && s.snoozeUntil.Equal(o.snoozeUntil)
}

func (s AlertState) String() string {
	if until, ok := s.SnoozeUntil(); ok {
		return fmt.Sprintf("%s(until=%s)", s.Status(), until)
	}
	return string(s.Status())
}

// SnoozeUntilPtr 供持久化使用（非 Snoozed 返回 nil）
func (s AlertState) SnoozeUntilPtr() *Date {
	if until, ok := s.SnoozeUntil(); ok {
		return &until
	}
	return nil
}

// ParseAlertState 从存储字段还原状态
// 空状态视为 ACTIVE；SNOOZED 允许缺少 snooze_until（视为已到期），
// 其它状态带 snooze_until 视为脏数据
func ParseAlertState(status string, snoozeUntil *Date) (AlertState, error) {
	switch AlertStatus(status) {
	case "", AlertStatusActive:
		if snoozeUntil != nil && !snoozeUntil.IsZero() {
			return AlertState{}, fmt.Errorf("%w: snooze_until set on ACTIVE alert", ErrInvalidAlertState)
		}
		return Active(), nil
	case AlertStatusCancelled:
		if snoozeUntil != nil && !snoozeUntil.IsZero() {
			return AlertState{}, fmt.Errorf("%w: snooze_until set on CANCELLED alert", ErrInvalidAlertState)
		}
		return Cancelled(), nil
	case AlertStatusSnoozed:
		if snoozeUntil == nil {
			return AlertState{status: AlertStatusSnoozed}, nil
		}
		return Snoozed(*snoozeUntil), nil
	default:
		return AlertState{}, fmt.Errorf("%w: unknown alert status %q", ErrInvalidAlertState, status)
	}
}

type alertStateJSON struct {
	AlertStatus AlertStatus `json:"alert_status"`
	SnoozeUntil *Date       `json:"snooze_until"`
}

// MarshalJSON {"alert_status":"SNOOZED","snooze_until":"2024-01-01"}
func (s AlertState) MarshalJSON() ([]byte, error) {
	return json.Marshal(alertStateJSON{AlertStatus: s.Status(), SnoozeUntil: s.SnoozeUntilPtr()})
}

// UnmarshalJSON 反序列化并校验
func (s *AlertState) UnmarshalJSON(b []byte) error {
	var raw alertStateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseAlertState(string(raw.AlertStatus), raw.SnoozeUntil)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
