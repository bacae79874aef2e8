package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core/user"
)

// Late check-ins are those recorded after this hour of the day.
const lateCheckInHour = 22

// mockable
var NowFunc = time.Now

type (
	Record struct {
		ID             string    `json:"id"`
		StudentID      string    `json:"student"`
		Date           time.Time `json:"date"` // midnight UTC of the day covered
		TimeIn         null.Time `json:"timeIn"`
		TimeOut        null.Time `json:"timeOut"`
		IsPresent      bool      `json:"isPresent"`
		IsLate         bool      `json:"isLate"`
		IsOnLeave      bool      `json:"isOnLeave"`
		ParentNotified bool      `json:"parentNotified"`
		NotifiedAt     null.Time `json:"notificationTime"`
		CreatedAt      time.Time `json:"createdAt"`
		UpdatedAt      time.Time `json:"updatedAt"`

		StudentInfo *user.PublicInfo `json:"studentInfo,omitempty"`
	}

	CheckRequest struct {
		StudentID string `json:"student" validate:"required"`
	}

	QueryFilter struct {
		StudentID string     `query:"-"`
		DateFrom  *time.Time `query:"dateFrom"`
		DateTo    *time.Time `query:"dateTo"`
	}
)

// Duration returns the hours spent in the hostel, 0 until both checks exist.
func (r *Record) Duration() float64 {
	if !r.TimeIn.Valid || !r.TimeOut.Valid {
		return 0
	}
	return r.TimeOut.Time.Sub(r.TimeIn.Time).Hours()
}

// DateOf truncates t to the day it covers.
func DateOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
