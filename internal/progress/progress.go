package progress

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Metric names a weekly counter.
type Metric string

const (
	FeedPosts  Metric = "feed_posts"
	PPVDrops   Metric = "ppv_drops"
	StoryPosts Metric = "story_posts"
	RestDays   Metric = "rest_days"
)

// contentMetrics are the counters that feed the report, in report order.
// RestDays is tracked but never scored.
var contentMetrics = []Metric{FeedPosts, PPVDrops, StoryPosts}

// Label returns a display name ("feed_posts" -> "Feed Posts").
func (m Metric) Label() string {
	switch m {
	case FeedPosts:
		return "Feed Posts"
	case PPVDrops:
		return "PPV Drops"
	case StoryPosts:
		return "Story Posts"
	case RestDays:
		return "Rest Days"
	}
	return string(m)
}

// Metrics lists every counter UpdateContent accepts.
var Metrics = []Metric{FeedPosts, PPVDrops, StoryPosts, RestDays}

// ParseMetric accepts a counter name in snake or kebab case ("ppv-drops").
// Tracker methods ignore unknown names; callers taking user input use this
// to reject them instead.
func ParseMetric(s string) (Metric, error) {
	name := Metric(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, m := range Metrics {
		if m == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric %q (valid: feed_posts, ppv_drops, story_posts, rest_days)", s)
}

// WeeklyMetrics holds the counters for one tracking period.
type WeeklyMetrics struct {
	FeedPosts        float64 `json:"feed_posts"`
	PPVDrops         float64 `json:"ppv_drops"`
	StoryPosts       float64 `json:"story_posts"`
	RestDays         float64 `json:"rest_days"`
	Revenue          float64 `json:"revenue"`
	NewSubscribers   int     `json:"new_subscribers"`
	CustomsCompleted int     `json:"customs_completed"`
}

func (m *WeeklyMetrics) counter(kind Metric) *float64 {
	switch kind {
	case FeedPosts:
		return &m.FeedPosts
	case PPVDrops:
		return &m.PPVDrops
	case StoryPosts:
		return &m.StoryPosts
	case RestDays:
		return &m.RestDays
	}
	return nil
}

// Count returns the value of a content counter, or 0 for an unknown name.
func (m WeeklyMetrics) Count(kind Metric) float64 {
	if c := m.counter(kind); c != nil {
		return *c
	}
	return 0
}

// WeeklyGoals are the per-period targets. They are fixed once a tracker is built.
type WeeklyGoals struct {
	FeedPosts  float64 `json:"feed_posts"`
	PPVDrops   float64 `json:"ppv_drops"`
	StoryPosts float64 `json:"story_posts"` // 1-2 posts
	RestDays   float64 `json:"rest_days"`
}

// DefaultGoals returns the standard weekly targets.
func DefaultGoals() WeeklyGoals {
	return WeeklyGoals{
		FeedPosts:  3,
		PPVDrops:   2,
		StoryPosts: 1.5,
		RestDays:   1,
	}
}

// Goal returns the target for a metric, or 0 for an unknown name.
func (g WeeklyGoals) Goal(kind Metric) float64 {
	switch kind {
	case FeedPosts:
		return g.FeedPosts
	case PPVDrops:
		return g.PPVDrops
	case StoryPosts:
		return g.StoryPosts
	case RestDays:
		return g.RestDays
	}
	return 0
}

// SelfCheck is the weekly qualitative checklist. A nil flag has not been answered yet.
type SelfCheck struct {
	ProtectedEnergy *bool `json:"protected_energy"`
	ReinforcedValue *bool `json:"reinforced_value"`
	StayedCalm      *bool `json:"stayed_calm"`
	FeltIntentional *bool `json:"felt_intentional"`
}

type checkFlag struct {
	name  string
	value *bool
}

// flags lists the checklist in its fixed display order.
func (s SelfCheck) flags() []checkFlag {
	return []checkFlag{
		{"protected_energy", s.ProtectedEnergy},
		{"reinforced_value", s.ReinforcedValue},
		{"stayed_calm", s.StayedCalm},
		{"felt_intentional", s.FeltIntentional},
	}
}

// Completed reports whether every flag has been answered.
func (s SelfCheck) Completed() bool {
	for _, f := range s.flags() {
		if f.value == nil {
			return false
		}
	}
	return true
}

func (s SelfCheck) clone() SelfCheck {
	return SelfCheck{
		ProtectedEnergy: cloneBool(s.ProtectedEnergy),
		ReinforcedValue: cloneBool(s.ReinforcedValue),
		StayedCalm:      cloneBool(s.StayedCalm),
		FeltIntentional: cloneBool(s.FeltIntentional),
	}
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Tracker accumulates one period's metrics and self-check. It is not safe for
// concurrent use; callers sharing a tracker must synchronise access.
type Tracker struct {
	metrics WeeklyMetrics
	goals   WeeklyGoals
	check   SelfCheck
	now     func() time.Time
}

// New returns a tracker for a fresh period with the default goals.
func New() *Tracker {
	return &Tracker{
		goals: DefaultGoals(),
		now:   time.Now,
	}
}

// Metrics returns a copy of the current counters.
func (t *Tracker) Metrics() WeeklyMetrics { return t.metrics }

// Goals returns the tracker's targets.
func (t *Tracker) Goals() WeeklyGoals { return t.goals }

// SelfCheck returns a copy of the current checklist.
func (t *Tracker) SelfCheck() SelfCheck { return t.check.clone() }

// ErrInvalidAmount rejects NaN and infinite amounts, which cannot be saved.
var ErrInvalidAmount = errors.New("amount must be a finite number")

// CheckAmount returns ErrInvalidAmount unless v is finite.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return nil
}

// UpdateContent adds amount to the named counter. Unknown names are ignored.
func (t *Tracker) UpdateContent(kind Metric, amount float64) {
	if c := t.metrics.counter(kind); c != nil {
		*c += amount
	}
}

// UpdateRevenue adds amount to the weekly revenue. The amount is not bounds-checked.
func (t *Tracker) UpdateRevenue(amount float64) {
	t.metrics.Revenue += amount
}

// UpdateSubscribers adds count new subscribers.
func (t *Tracker) UpdateSubscribers(count int) {
	t.metrics.NewSubscribers += count
}

// UpdateCustoms adds count completed custom requests.
func (t *Tracker) UpdateCustoms(count int) {
	t.metrics.CustomsCompleted += count
}

// CompleteSelfCheck answers all four checklist items at once.
func (t *Tracker) CompleteSelfCheck(protectedEnergy, reinforcedValue, stayedCalm, feltIntentional bool) {
	t.check = SelfCheck{
		ProtectedEnergy: &protectedEnergy,
		ReinforcedValue: &reinforcedValue,
		StayedCalm:      &stayedCalm,
		FeltIntentional: &feltIntentional,
	}
}

// Clone returns an independent copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	c := *t
	c.check = t.check.clone()
	return &c
}

// Reset starts a new period: counters go to zero and the self-check is cleared.
func (t *Tracker) Reset() {
	t.metrics = WeeklyMetrics{}
	t.check = SelfCheck{}
}
