package models

import "time"

// SweepOutcome 单个家电在一次巡检中的处理结果
type SweepOutcome string

const (
	OutcomeNotified         SweepOutcome = "notified"
	OutcomeSkippedCancelled SweepOutcome = "skipped-cancelled"
	OutcomeSkippedSnoozed   SweepOutcome = "skipped-snoozed"
	OutcomeOrphaned         SweepOutcome = "orphaned"
	OutcomeNotifyFailed     SweepOutcome = "notify-failed"
	// OutcomeFailed 持久化等失败，只影响该家电
	OutcomeFailed SweepOutcome = "failed"
)

// AllOutcomes 报告中固定输出的结果类别
var AllOutcomes = []SweepOutcome{
	OutcomeNotified,
	OutcomeSkippedCancelled,
	OutcomeSkippedSnoozed,
	OutcomeOrphaned,
	OutcomeNotifyFailed,
	OutcomeFailed,
}

// SweepEntry 单个家电的巡检记录
type SweepEntry struct {
	ApplianceID   string       `json:"appliance_id"`
	OwnerID       string       `json:"owner_id"`
	ApplianceName string       `json:"appliance_name"`
	Outcome       SweepOutcome `json:"outcome"`
	Reactivated   bool         `json:"reactivated,omitempty"`
	NextAlertDate *Date        `json:"next_alert_date,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// SweepReport 一次巡检的汇总
type SweepReport struct {
	SweepDate  Date                 `json:"sweep_date"`
	AsOf       Date                 `json:"as_of"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Candidates int                  `json:"candidates"`
	Counts     map[SweepOutcome]int `json:"counts"`
	Entries    []SweepEntry         `json:"entries"`

	// Interrupted 调用方取消，部分候选未处理
	Interrupted bool `json:"interrupted,omitempty"`
}

// NewSweepReport 创建报告，所有类别计数初始化为 0
func NewSweepReport(sweepDate, asOf Date, startedAt time.Time) *SweepReport {
	counts := make(map[SweepOutcome]int, len(AllOutcomes))
	for _, o := range AllOutcomes {
		counts[o] = 0
	}
	return &SweepReport{
		SweepDate: sweepDate,
		AsOf:      asOf,
		StartedAt: startedAt,
		Counts:    counts,
		Entries:   make([]SweepEntry, 0),
	}
}

// Record 追加一条记录并计数
func (r *SweepReport) Record(e SweepEntry) {
	r.Entries = append(r.Entries, e)
	r.Counts[e.Outcome]++
}

// Count 某类结果数量
func (r *SweepReport) Count(o SweepOutcome) int {
	return r.Counts[o]
}

// Duration 巡检耗时
func (r *SweepReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
