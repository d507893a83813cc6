package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status is the five-tier classification of a single metric's percentage.
type Status string

const (
	StatusComplete  Status = "complete"
	StatusOnTrack   Status = "on_track"
	StatusAttention Status = "attention"
	StatusAtRisk    Status = "at_risk"
	StatusCritical  Status = "critical"
)

// SelfCheckStatus summarises the checklist.
type SelfCheckStatus string

const (
	SelfCheckExcellent      SelfCheckStatus = "excellent"
	SelfCheckNeedsAttention SelfCheckStatus = "needs_attention"
	SelfCheckPending        SelfCheckStatus = "pending"
)

// OverallStatus answers "are we on track?" for the period.
type OverallStatus string

const (
	OverallOnTrack        OverallStatus = "on_track"
	OverallNeedsAttention OverallStatus = "needs_attention"
	OverallBehindSchedule OverallStatus = "behind_schedule"
)

// MetricProgress is one content metric's line in a report.
type MetricProgress struct {
	Metric     Metric  `json:"metric"`
	Actual     float64 `json:"actual"`
	Goal       float64 `json:"goal"`
	Percentage float64 `json:"percentage"` // rounded to one decimal
	Status     Status  `json:"status"`
}

// RevenueMetrics is copied verbatim from the weekly counters.
type RevenueMetrics struct {
	WeeklyRevenue    float64 `json:"weekly_revenue"`
	NewSubscribers   int     `json:"new_subscribers"`
	CustomsCompleted int     `json:"customs_completed"`
}

// Report is a point-in-time snapshot derived from a tracker. It is never
// loaded back; only the metrics and self-check it was built from are.
type Report struct {
	Timestamp       time.Time        `json:"timestamp"`
	OverallStatus   OverallStatus    `json:"overall_status"`
	ContentProgress []MetricProgress `json:"content_progress"`
	AvgProgress     float64          `json:"avg_progress"`
	RevenueMetrics  RevenueMetrics   `json:"revenue_metrics"`
	SelfCheckStatus SelfCheckStatus  `json:"self_check_status"`
	Recommendations []string         `json:"recommendations"`
}

// ProgressPercentage returns actual as a percentage of goal, capped at 100.
// A zero goal counts as met when actual >= 0. NaN inputs count as 0.
func ProgressPercentage(actual, goal float64) float64 {
	if math.IsNaN(actual) || math.IsNaN(goal) {
		return 0
	}
	if goal == 0 {
		if actual >= goal {
			return 100
		}
		return 0
	}
	pct := actual / goal * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// StatusTier classifies a percentage. Thresholds are inclusive at the lower bound.
func StatusTier(pct float64) Status {
	switch {
	case pct >= 100:
		return StatusComplete
	case pct >= 75:
		return StatusOnTrack
	case pct >= 50:
		return StatusAttention
	case pct >= 25:
		return StatusAtRisk
	default:
		return StatusCritical
	}
}

// BuildReport scores the current period.
func (t *Tracker) BuildReport() Report {
	r := Report{
		Timestamp:       t.now(),
		ContentProgress: make([]MetricProgress, 0, len(contentMetrics)),
		Recommendations: []string{},
	}

	var total float64
	for _, m := range contentMetrics {
		actual := t.metrics.Count(m)
		goal := t.goals.Goal(m)
		pct := ProgressPercentage(actual, goal)
		total += pct

		r.ContentProgress = append(r.ContentProgress, MetricProgress{
			Metric:     m,
			Actual:     actual,
			Goal:       goal,
			Percentage: round1(pct),
			Status:     StatusTier(pct),
		})

		if pct < 50 {
			r.Recommendations = append(r.Recommendations,
				fmt.Sprintf("%s: behind schedule (%s/%s)", m.Label(), formatCount(actual), formatCount(goal)))
		}
	}
	r.AvgProgress = total / float64(len(contentMetrics))

	r.RevenueMetrics = RevenueMetrics{
		WeeklyRevenue:    t.metrics.Revenue,
		NewSubscribers:   t.metrics.NewSubscribers,
		CustomsCompleted: t.metrics.CustomsCompleted,
	}

	var failed []string
	r.SelfCheckStatus, failed = classifySelfCheck(t.check)
	if len(failed) > 0 {
		r.Recommendations = append(r.Recommendations,
			"Self-check concerns: "+strings.Join(failed, ", "))
	}

	r.OverallStatus = overallStatus(r.AvgProgress, r.SelfCheckStatus)
	return r
}

// classifySelfCheck returns the checklist category and the names of any flags
// explicitly answered false.
func classifySelfCheck(s SelfCheck) (SelfCheckStatus, []string) {
	allTrue := true
	var failed []string
	for _, f := range s.flags() {
		switch {
		case f.value == nil:
			allTrue = false
		case !*f.value:
			allTrue = false
			failed = append(failed, f.name)
		}
	}
	switch {
	case allTrue:
		return SelfCheckExcellent, nil
	case len(failed) > 0:
		return SelfCheckNeedsAttention, failed
	default:
		return SelfCheckPending, nil
	}
}

func overallStatus(avg float64, check SelfCheckStatus) OverallStatus {
	switch {
	case avg >= 75 && check == SelfCheckExcellent:
		return OverallOnTrack
	case avg >= 60 || check == SelfCheckExcellent:
		return OverallNeedsAttention
	default:
		return OverallBehindSchedule
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// formatCount prints counters without trailing zeros: 3, 1.5.
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
