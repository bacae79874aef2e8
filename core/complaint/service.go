package complaint

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

var ErrNotFound = errors.New("complaint not found")

type (
	Repository interface {
		CreateComplaint(ctx context.Context, compl Complaint, exec ...core.DBExecutor) (Complaint, error)
		GetComplaint(ctx context.Context, id string, exec ...core.DBExecutor) (Complaint, error)
		QueryComplaints(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Complaint, error)
		UpdateComplaint(ctx context.Context, compl Complaint, exec ...core.DBExecutor) (Complaint, error)
		DeleteComplaint(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nc NewComplaint, owner user.User) (Complaint, error)
		GetByID(ctx context.Context, id string) (Complaint, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Complaint, error)
		Update(ctx context.Context, origCompl Complaint, uc UpdateComplaint, caller user.User) (Complaint, error)
		Delete(ctx context.Context, id string) error
		Vote(ctx context.Context, id, voterID, voteType string) (Complaint, error)
	}

	service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrRepo user.Repository) Service {
	return &service{repo: repo, usrRepo: usrRepo}
}

func (svc *service) Create(ctx context.Context, nc NewComplaint, owner user.User) (Complaint, error) {
	now := time.Now().UTC()
	compl := Complaint{
		Title:       nc.Title,
		Type:        nc.Type,
		Description: nc.Description,
		StudentID:   owner.ID,
		Status:      StatusPending,
		IsAnonymous: nc.IsAnonymous,
		Upvotes:     []string{},
		Downvotes:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateComplaint(ctx, compl)
}

func (svc *service) GetByID(ctx context.Context, id string) (Complaint, error) {
	compl, err := svc.repo.GetComplaint(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if err = svc.expandRefs(ctx, &compl); err != nil {
		return Complaint{}, err
	}
	return compl, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Complaint, error) {
	complaints, err := svc.repo.QueryComplaints(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range complaints {
		if err = svc.expandRefs(ctx, &complaints[i]); err != nil {
			return nil, err
		}
	}
	return complaints, nil
}

// Update applies the allow-listed fields; a transition into Resolved stamps
// resolvedAt and resolvedBy with the caller, whoever issued the update.
func (svc *service) Update(ctx context.Context, origCompl Complaint, uc UpdateComplaint, caller user.User) (Complaint, error) {
	origCompl.Title = uc.Title
	origCompl.Type = uc.Type
	origCompl.Description = uc.Description
	if uc.IsAnonymous != nil {
		origCompl.IsAnonymous = *uc.IsAnonymous
	}
	now := time.Now().UTC()
	if uc.Status == StatusResolved && origCompl.Status != StatusResolved {
		origCompl.ResolvedAt = null.TimeFrom(now)
		origCompl.ResolvedBy = null.StringFrom(caller.ID)
	}
	origCompl.Status = uc.Status
	origCompl.UpdatedAt = now

	compl, err := svc.repo.UpdateComplaint(ctx, origCompl)
	if err != nil {
		return Complaint{}, err
	}
	if err = svc.expandRefs(ctx, &compl); err != nil {
		return Complaint{}, err
	}
	return compl, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteComplaint(ctx, id)
}

// Vote removes the voter from both sets, then adds them to the set matching
// voteType. Calling it twice with the same voteType is a no-op; an unknown
// voteType is a retraction.
func (svc *service) Vote(ctx context.Context, id, voterID, voteType string) (Complaint, error) {
	compl, err := svc.repo.GetComplaint(ctx, id)
	if err != nil {
		return Complaint{}, err
	}

	compl.Upvotes = removeID(compl.Upvotes, voterID)
	compl.Downvotes = removeID(compl.Downvotes, voterID)
	switch voteType {
	case VoteUp:
		compl.Upvotes = append(compl.Upvotes, voterID)
	case VoteDown:
		compl.Downvotes = append(compl.Downvotes, voterID)
	}
	compl.UpdatedAt = time.Now().UTC()

	if compl, err = svc.repo.UpdateComplaint(ctx, compl); err != nil {
		return Complaint{}, err
	}
	if err = svc.expandRefs(ctx, &compl); err != nil {
		return Complaint{}, err
	}
	return compl, nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (svc *service) expandRefs(ctx context.Context, compl *Complaint) error {
	if !compl.IsAnonymous {
		if usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: compl.StudentID}); err == nil {
			info := usr.PublicInfo()
			compl.StudentInfo = &info
		} else if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "expanding complaint student")
		}
	}
	if compl.ResolvedBy.Valid {
		if usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: compl.ResolvedBy.String}); err == nil {
			info := usr.PublicInfo()
			info.RollNumber = "" // resolver is staff; name only
			compl.ResolverInfo = &info
		} else if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "expanding complaint resolver")
		}
	}
	return nil
}
