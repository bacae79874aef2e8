package leave

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/notif"
	"github.com/nkashama/bweni/core/user"
)

var ErrNotFound = errors.New("leave request not found")

type (
	Repository interface {
		CreateLeaveRequest(ctx context.Context, lr LeaveRequest, exec ...core.DBExecutor) (LeaveRequest, error)
		GetLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) (LeaveRequest, error)
		QueryLeaveRequests(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]LeaveRequest, error)
		UpdateLeaveRequest(ctx context.Context, lr LeaveRequest, exec ...core.DBExecutor) (LeaveRequest, error)
		DeleteLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nl NewLeaveRequest, owner user.User) (LeaveRequest, error)
		GetByID(ctx context.Context, id string) (LeaveRequest, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]LeaveRequest, error)
		Update(ctx context.Context, origReq LeaveRequest, ul UpdateLeaveRequest, caller user.User) (LeaveRequest, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		notifRepo notif.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, notifRepo notif.Repository) Service {
	return &service{db: db, repo: repo, usrRepo: usrRepo, notifRepo: notifRepo}
}

// Create persists a Pending request and enqueues the parent notification in
// the same transaction: either both are recorded or neither is.
func (svc *service) Create(ctx context.Context, nl NewLeaveRequest, owner user.User) (LeaveRequest, error) {
	now := time.Now().UTC()
	lr := LeaveRequest{
		StudentID: owner.ID,
		Reason:    nl.Reason,
		StartDate: nl.StartDate,
		EndDate:   nl.EndDate,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if lr, err = svc.repo.CreateLeaveRequest(ctx, lr, tx); err != nil {
			return err
		}
		msg := core.NewLeaveRequestMessage(owner.ParentMobile, owner.Name, lr.StartDate, lr.EndDate, lr.Reason)
		return notif.Enqueue(ctx, svc.notifRepo, msg, tx)
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	return lr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (LeaveRequest, error) {
	lr, err := svc.repo.GetLeaveRequest(ctx, id)
	if err != nil {
		return LeaveRequest{}, err
	}
	if err = svc.expandRefs(ctx, &lr); err != nil {
		return LeaveRequest{}, err
	}
	return lr, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]LeaveRequest, error) {
	requests, err := svc.repo.QueryLeaveRequests(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if err = svc.expandRefs(ctx, &requests[i]); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// Update applies an admin decision. A transition into Approved stamps the
// approver and the admin approval flag; recording parentApproval=true stamps
// its date. When the resulting status is Approved or Rejected the student's
// decision notification is enqueued in the same transaction.
func (svc *service) Update(ctx context.Context, origReq LeaveRequest, ul UpdateLeaveRequest, caller user.User) (LeaveRequest, error) {
	now := time.Now().UTC()
	decided := false

	if ul.Status != "" {
		origReq.Status = ul.Status
		if ul.Status == StatusApproved {
			origReq.ApprovedBy = null.StringFrom(caller.ID)
			origReq.AdminApproval = true
			origReq.AdminApprovalDate = null.TimeFrom(now)
		}
		decided = ul.Status == StatusApproved || ul.Status == StatusRejected
	}
	if ul.ParentApproval != nil {
		origReq.ParentApproval = *ul.ParentApproval
		if *ul.ParentApproval {
			origReq.ParentApprovalDate = null.TimeFrom(now)
		}
	}
	if ul.RejectionReason != "" {
		origReq.RejectionReason = ul.RejectionReason
	}
	origReq.UpdatedAt = now

	var lr LeaveRequest
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if lr, err = svc.repo.UpdateLeaveRequest(ctx, origReq, tx); err != nil {
			return err
		}
		if !decided {
			return nil
		}
		student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: lr.StudentID}, tx)
		if err != nil {
			return err
		}
		msg := core.NewLeaveDecisionMessage(student.StudentMobile, lr.Status, lr.StartDate, lr.EndDate)
		return notif.Enqueue(ctx, svc.notifRepo, msg, tx)
	})
	if err != nil {
		return LeaveRequest{}, err
	}
	if err = svc.expandRefs(ctx, &lr); err != nil {
		return LeaveRequest{}, err
	}
	return lr, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteLeaveRequest(ctx, id)
}

func (svc *service) expandRefs(ctx context.Context, lr *LeaveRequest) error {
	if usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: lr.StudentID}); err == nil {
		info := usr.PublicInfo()
		lr.StudentInfo = &info
	} else if errors.Cause(err) != user.ErrNotFound {
		return errors.Wrap(err, "expanding leave student")
	}
	if lr.ApprovedBy.Valid {
		if usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: lr.ApprovedBy.String}); err == nil {
			info := usr.PublicInfo()
			info.RollNumber = "" // approver is staff; name only
			lr.ApproverInfo = &info
		} else if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "expanding leave approver")
		}
	}
	return nil
}
