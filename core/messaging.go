package core

import (
	"fmt"
	"strings"
	"time"
)

type (
	// TextMessage is an outbound WhatsApp message.
	TextMessage struct {
		To   string // recipient mobile, without country prefix
		Body string
	}

	// MessagingService is any service that can deliver text messages.
	// Delivery, retries and provider formatting live behind this boundary.
	MessagingService interface {
		SendMessage(msg TextMessage) error
	}
)

func (m TextMessage) HasRecipient() bool {
	return m.To != ""
}

// timeOfDay greeting, matching the tone parents are used to.
func timeOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// NewLeaveRequestMessage is sent to a parent when their ward requests leave.
func NewLeaveRequestMessage(parentMobile, studentName string, startDate, endDate time.Time, reason string) TextMessage {
	return TextMessage{
		To: parentMobile,
		Body: fmt.Sprintf(
			"Good %s!\n\nYour ward %s has requested leave from %s to %s.\n\nReason: %s\n\n"+
				"Please reply with:\nYES to approve\nNO to reject",
			timeOfDay(time.Now()), studentName,
			startDate.Format("02 Jan 2006"), endDate.Format("02 Jan 2006"), reason,
		),
	}
}

// NewLeaveDecisionMessage is sent to a student when their request is decided.
func NewLeaveDecisionMessage(studentMobile, decision string, startDate, endDate time.Time) TextMessage {
	return TextMessage{
		To: studentMobile,
		Body: fmt.Sprintf(
			"Good %s!\n\nYour leave request from %s to %s has been %s.\n\n"+
				"Please check your dashboard for more details.",
			timeOfDay(time.Now()),
			startDate.Format("02 Jan 2006"), endDate.Format("02 Jan 2006"), strings.ToLower(decision),
		),
	}
}

// NewAbsenceAlertMessage is sent to a parent when their ward missed an
// attendance check.
func NewAbsenceAlertMessage(parentMobile, studentName string, checkTime time.Time) TextMessage {
	return TextMessage{
		To: parentMobile,
		Body: fmt.Sprintf(
			"Good %s!\n\nThis is to inform you that your ward %s was not present in the hostel "+
				"during the attendance check at %s.\n\nPlease contact the hostel administration for more information.",
			timeOfDay(time.Now()), studentName, checkTime.Format("15:04, 02 Jan 2006"),
		),
	}
}
