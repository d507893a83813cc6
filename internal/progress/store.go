package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultFile is where the CLI keeps the current period.
const DefaultFile = "weekly_progress.json"

var (
	// ErrNotFound means there is no saved period; start fresh.
	ErrNotFound = errors.New("progress data not found")
	// ErrCorruptData means a saved period exists but cannot be read back.
	ErrCorruptData = errors.New("progress data is corrupt")
)

// savedState is the on-disk record. Report and Timestamp are written for
// auditing and ignored on load.
type savedState struct {
	Timestamp  string         `json:"timestamp"`
	WeeklyData *WeeklyMetrics `json:"weekly_data"`
	SelfCheck  *SelfCheck     `json:"self_check"`
	Report     *Report        `json:"report,omitempty"`
}

// Save writes the tracker's metrics, self-check and a report snapshot to path.
// The file is replaced atomically.
func (t *Tracker) Save(path string) error {
	report := t.BuildReport()
	metrics := t.metrics
	check := t.check.clone()
	state := savedState{
		Timestamp:  report.Timestamp.Format(time.RFC3339),
		WeeklyData: &metrics,
		SelfCheck:  &check,
		Report:     &report,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".progress-*.json")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write progress to %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("save progress to %s: %w", path, err)
	}
	committed = true
	return nil
}

// Load replaces the tracker's metrics and self-check with those saved at path.
// On any error the tracker is left unchanged; the error wraps ErrNotFound when
// the file does not exist and ErrCorruptData when it cannot be parsed.
func (t *Tracker) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: open %s: %v", ErrCorruptData, path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrCorruptData, path, err)
	}
	var state savedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrCorruptData, path, err)
	}
	if state.WeeklyData == nil || state.SelfCheck == nil {
		return fmt.Errorf("%w: %s is missing weekly_data or self_check", ErrCorruptData, path)
	}

	t.metrics = *state.WeeklyData
	t.check = state.SelfCheck.clone()
	return nil
}

// LoadFile returns a tracker restored from path.
func LoadFile(path string) (*Tracker, error) {
	t := New()
	if err := t.Load(path); err != nil {
		return nil, err
	}
	return t, nil
}
