package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/akeren/go-waitlist/pkg/constants"
)

// WaitlistEntry is one signup. Position is 1-based and never reused.
type WaitlistEntry struct {
	ID        uint      `gorm:"primaryKey"`
	Email     string    `gorm:"type:varchar(320);not null"`
	EmailKey  string    `gorm:"type:varchar(320);not null;uniqueIndex:idx_waitlist_entries_email_key"`
	Name      string    `gorm:"type:text;not null;default:''"`
	Position  int64     `gorm:"not null;uniqueIndex:idx_waitlist_entries_position"`
	Timestamp time.Time `gorm:"not null"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

// WaitlistCounter holds the last position handed out for a waitlist.
type WaitlistCounter struct {
	Name         string `gorm:"type:varchar(64);primaryKey"`
	LastPosition int64  `gorm:"not null;default:0"`
}

func (WaitlistCounter) TableName() string {
	return "waitlist_counters"
}

// NormalizeEmail is the identity used for duplicate detection.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatTimestamp renders t the way entries are stored and served.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(constants.ISO8601MillisFormat)
}

// storedEntry is the JSON shape kept in the key-value store.
type storedEntry struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Position  int64  `json:"position"`
}

func (e WaitlistEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedEntry{
		Email:     e.Email,
		Name:      e.Name,
		Timestamp: FormatTimestamp(e.Timestamp),
		Position:  e.Position,
	})
}

func (e *WaitlistEntry) UnmarshalJSON(data []byte) error {
	var stored storedEntry
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}

	var ts time.Time
	if stored.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339Nano, stored.Timestamp)
		if err != nil {
			return err
		}
		ts = parsed.UTC()
	}

	*e = WaitlistEntry{
		Email:     stored.Email,
		EmailKey:  NormalizeEmail(stored.Email),
		Name:      stored.Name,
		Position:  stored.Position,
		Timestamp: ts,
	}
	return nil
}
