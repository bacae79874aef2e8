package leave

import (
	"math"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

// Statuses
const (
	StatusPending               = "Pending"
	StatusParentApprovalPending = "Parent Approval Pending"
	StatusApproved              = "Approved"
	StatusRejected              = "Rejected"
)

var NowFunc = time.Now // mockable

type LeaveRequest struct {
	ID                 string      `json:"id"`
	StudentID          string      `json:"student"` // owner, immutable
	Reason             string      `json:"reason"`
	StartDate          time.Time   `json:"startDate"`
	EndDate            time.Time   `json:"endDate"`
	Status             string      `json:"status"`
	ParentApproval     bool        `json:"parentApproval"`
	ParentApprovalDate null.Time   `json:"parentApprovalDate,omitempty"`
	AdminApproval      bool        `json:"adminApproval"`
	AdminApprovalDate  null.Time   `json:"adminApprovalDate,omitempty"`
	ApprovedBy         null.String `json:"approvedBy,omitempty"`
	RejectionReason    string      `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"` // UTC
	UpdatedAt          time.Time   `json:"updatedAt"` // UTC

	// expanded for display on reads; never persisted
	StudentInfo  *user.PublicInfo `json:"studentInfo,omitempty"`
	ApproverInfo *user.PublicInfo `json:"approverInfo,omitempty"`
}

// IsActive reports whether the student is currently out on this leave.
func (lr *LeaveRequest) IsActive() bool {
	now := NowFunc()
	return lr.Status == StatusApproved && !now.Before(lr.StartDate) && !now.After(lr.EndDate)
}

// Duration is the leave length in days, rounded up.
func (lr *LeaveRequest) Duration() int {
	return int(math.Ceil(lr.EndDate.Sub(lr.StartDate).Hours() / 24))
}

func (lr *LeaveRequest) IsOwnedBy(usr user.User) bool {
	return lr.StudentID == usr.ID
}

// NewLeaveRequest contains information needed to request leave.
type NewLeaveRequest struct {
	Reason    string    `json:"reason" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
}

func (nl *NewLeaveRequest) Validate(validate *validator.Validate) error {
	nl.Reason = core.CleanString(nl.Reason)
	return validate.Struct(nl)
}

// UpdateLeaveRequest defines the admin-mutable fields. The parent replies
// off-channel; the warden records the response through ParentApproval.
type UpdateLeaveRequest struct {
	Status          string `json:"status" validate:"omitempty,oneof=Pending 'Parent Approval Pending' Approved Rejected"`
	ParentApproval  *bool  `json:"parentApproval"`
	RejectionReason string `json:"rejectionReason"`
}

func (ul *UpdateLeaveRequest) Validate(validate *validator.Validate) error {
	ul.RejectionReason = core.CleanString(ul.RejectionReason)
	return validate.Struct(ul)
}

type QueryFilter struct {
	Status string `query:"status"`
	// StudentID scopes the query; set server-side for student callers.
	StudentID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
}

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(leaveStructValidation, NewLeaveRequest{})
	core.RegisterCustomTranslation(validate, translator, dateOrderTag, dateOrderText)
}

var (
	dateOrderTag  = "dateorder"
	dateOrderText = "endDate must not be before startDate"
)

// leaveStructValidation checks startDate <= endDate.
func leaveStructValidation(sl validator.StructLevel) {
	if nl, ok := sl.Current().Interface().(NewLeaveRequest); ok {
		if nl.EndDate.Before(nl.StartDate) {
			sl.ReportError(nl.EndDate, "endDate", "EndDate", dateOrderTag, "")
		}
	}
}
