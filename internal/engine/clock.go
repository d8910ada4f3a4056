package engine

import (
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
)

// Clock 时间源
type Clock interface {
	Now() time.Time
	Today() models.Date
}

type systemClock struct {
	loc *time.Location
}

// SystemClock 按指定时区取当天日期
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return systemClock{loc: loc}
}

func (c systemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c systemClock) Today() models.Date {
	return models.DateOf(c.Now())
}

// FixedClock 固定时间（测试、手动补跑）
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

func (c FixedClock) Today() models.Date {
	return models.DateOf(c.T)
}
