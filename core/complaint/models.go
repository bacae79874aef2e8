package complaint

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

// Complaint types
const (
	TypeMaintenance = "Maintenance"
	TypeFood        = "Food"
	TypeCleanliness = "Cleanliness"
	TypeSecurity    = "Security"
	TypeOther       = "Other"
)

// Statuses
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
)

// Vote types
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

type Complaint struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	StudentID   string      `json:"student"` // owner, immutable
	Status      string      `json:"status"`
	IsAnonymous bool        `json:"isAnonymous"`
	Upvotes     []string    `json:"upvotes"`
	Downvotes   []string    `json:"downvotes"`
	ResolvedAt  null.Time   `json:"resolvedAt,omitempty"`
	ResolvedBy  null.String `json:"resolvedBy,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC
	UpdatedAt   time.Time   `json:"updatedAt"` // UTC

	// expanded for display on reads; never persisted
	StudentInfo  *user.PublicInfo `json:"studentInfo,omitempty"`
	ResolverInfo *user.PublicInfo `json:"resolverInfo,omitempty"`
}

// VoteCount is the net vote tally.
func (c *Complaint) VoteCount() int {
	return len(c.Upvotes) - len(c.Downvotes)
}

func (c *Complaint) IsOwnedBy(usr user.User) bool {
	return c.StudentID == usr.ID
}

// NewComplaint contains information needed to file a complaint.
type NewComplaint struct {
	Title       string `json:"title" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=Maintenance Food Cleanliness Security Other"`
	Description string `json:"description" validate:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (nc *NewComplaint) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateComplaint defines the mutable Complaint fields. Ownership, vote sets
// and resolution stamps cannot be set by clients.
type UpdateComplaint struct {
	Title       string `json:"title"`
	Type        string `json:"type" validate:"omitempty,oneof=Maintenance Food Cleanliness Security Other"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"omitempty,oneof=Pending 'In Progress' Resolved"`
	IsAnonymous *bool  `json:"isAnonymous"`
}

func (uc *UpdateComplaint) Validate(origCompl Complaint, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = origCompl.Title
	}
	if desc := core.CleanString(uc.Description); desc != "" {
		uc.Description = desc
	} else {
		uc.Description = origCompl.Description
	}
	if uc.Type == "" {
		uc.Type = origCompl.Type
	}
	if uc.Status == "" {
		uc.Status = origCompl.Status
	}
	return validate.Struct(uc)
}

// VoteRequest carries a caller's vote; any voteType other than
// upvote/downvote retracts the caller's votes.
type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required"`
}

func (vr *VoteRequest) Validate(validate *validator.Validate) error {
	vr.VoteType = core.CleanString(vr.VoteType, true /* lower */)
	return validate.Struct(vr)
}

type QueryFilter struct {
	Status string `query:"status"`
	Type   string `query:"type"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status)
	qf.Type = core.CleanString(qf.Type)
}
