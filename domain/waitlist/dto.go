package waitlist

import (
	"strings"
	"time"

	"github.com/akeren/go-waitlist/internal/models"
)

type SubmitWaitlistRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type SubmitWaitlistResponse struct {
	Position int64 `json:"position"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type WaitlistEntryResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
	Position  int64  `json:"position"`
}

func ToWaitlistEntryModel(req *SubmitWaitlistRequest, now time.Time) *models.WaitlistEntry {
	if req == nil {
		return nil
	}
	email := strings.TrimSpace(req.Email)
	return &models.WaitlistEntry{
		Email:     email,
		EmailKey:  models.NormalizeEmail(email),
		Name:      req.Name,
		Timestamp: now.UTC().Truncate(time.Millisecond),
	}
}

func ToWaitlistEntryResponse(entry *models.WaitlistEntry) WaitlistEntryResponse {
	if entry == nil {
		return WaitlistEntryResponse{}
	}
	return WaitlistEntryResponse{
		Email:     entry.Email,
		Name:      entry.Name,
		Timestamp: models.FormatTimestamp(entry.Timestamp),
		Position:  entry.Position,
	}
}
