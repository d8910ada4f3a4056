package models

import "errors"

var (
	// ErrNotFound 按 owner 作用域查找失败
	ErrNotFound = errors.New("not found")
	// ErrOrphanedAppliance 到期家电找不到所有者
	ErrOrphanedAppliance = errors.New("orphaned appliance: owner not found")
	// ErrInvalidAlertState 状态字段组合不合法
	ErrInvalidAlertState = errors.New("invalid alert state")
)
