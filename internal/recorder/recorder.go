// Package recorder keeps a history of fan interactions and saved progress
// reports.
package recorder

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/oklog/ulid/v2"
)

// Message types written by the assistant.
const (
	TypeChat       = "chat"
	TypeGreeting   = "greeting"
	TypeSalesPitch = "sales_pitch"
	TypeTipThanks  = "tip_thanks"
	TypeGame       = "game"
	TypeStory      = "story"
	TypeCompliment = "compliment"
	TypeStarter    = "starter"
)

// Entry is one logged exchange with a fan.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	FanID     string    `json:"fan_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Type      string    `json:"type"`
}

// ReportRow is a stored progress report summary.
type ReportRow struct {
	ID              string                   `json:"id"`
	Timestamp       time.Time                `json:"timestamp"`
	OverallStatus   progress.OverallStatus   `json:"overall_status"`
	AvgProgress     float64                  `json:"avg_progress"`
	WeeklyRevenue   float64                  `json:"weekly_revenue"`
	NewSubscribers  int                      `json:"new_subscribers"`
	SelfCheckStatus progress.SelfCheckStatus `json:"self_check_status"`
	Report          progress.Report          `json:"report"`
}

// Recorder persists interaction and report history.
type Recorder interface {
	RecordMessage(ctx context.Context, e Entry) error
	RecentMessages(ctx context.Context, fanID string, limit int) ([]Entry, error)
	RecordReport(ctx context.Context, r progress.Report) error
	Reports(ctx context.Context, limit int) ([]ReportRow, error)
	Close() error
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a time-ordered unique ID. IDs minted in the same millisecond
// still sort in creation order.
func newID(ts time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(ts), entropy)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}
