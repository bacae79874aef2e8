package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/notif"
	"github.com/nkashama/bweni/core/user"
)

var ErrNotFound = errors.New("attendance record not found")

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (Record, error)
		GetRecordForDate(ctx context.Context, studentID string, date time.Time, exec ...core.DBExecutor) (Record, error)
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Record, error)
		UpdateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
	}

	Service interface {
		CheckIn(ctx context.Context, studentID string) (Record, error)
		CheckOut(ctx context.Context, studentID string) (Record, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		AlertAbsence(ctx context.Context, id string) (Record, error)
	}

	service struct {
		db        core.DB
		repo      Repository
		usrRepo   user.Repository
		leaveRepo leave.Repository
		notifRepo notif.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, leaveRepo leave.Repository, notifRepo notif.Repository) Service {
	return &service{db: db, repo: repo, usrRepo: usrRepo, leaveRepo: leaveRepo, notifRepo: notifRepo}
}

// CheckIn records the student as present for today, creating the day's record
// on first call and updating it otherwise.
func (svc *service) CheckIn(ctx context.Context, studentID string) (Record, error) {
	if _, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: studentID}); err != nil {
		return Record{}, err
	}
	now := NowFunc().UTC()
	rec, err := svc.repo.GetRecordForDate(ctx, studentID, DateOf(now))
	switch errors.Cause(err) {
	case nil:
	case ErrNotFound:
		rec = Record{StudentID: studentID, Date: DateOf(now), CreatedAt: now}
	default:
		return Record{}, err
	}

	rec.TimeIn = null.TimeFrom(now)
	rec.IsPresent = true
	rec.IsLate = now.Hour() >= lateCheckInHour
	rec.IsOnLeave, err = svc.onLeave(ctx, studentID)
	if err != nil {
		return Record{}, err
	}
	rec.UpdatedAt = now

	if rec.ID == "" {
		return svc.repo.CreateRecord(ctx, rec)
	}
	return svc.repo.UpdateRecord(ctx, rec)
}

// CheckOut stamps the departure time on today's record.
func (svc *service) CheckOut(ctx context.Context, studentID string) (Record, error) {
	now := NowFunc().UTC()
	rec, err := svc.repo.GetRecordForDate(ctx, studentID, DateOf(now))
	if err != nil {
		return Record{}, err
	}
	rec.TimeOut = null.TimeFrom(now)
	rec.UpdatedAt = now
	return svc.repo.UpdateRecord(ctx, rec)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	records, err := svc.repo.QueryRecords(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if err = svc.expandStudent(ctx, &records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// AlertAbsence marks the record absent and enqueues the parent alert in the
// same transaction, stamping the notification time.
func (svc *service) AlertAbsence(ctx context.Context, id string) (Record, error) {
	var rec Record
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if rec, err = svc.repo.GetRecord(ctx, id, tx); err != nil {
			return err
		}
		student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: rec.StudentID}, tx)
		if err != nil {
			return err
		}

		now := NowFunc().UTC()
		rec.IsPresent = false
		rec.ParentNotified = true
		rec.NotifiedAt = null.TimeFrom(now)
		rec.UpdatedAt = now
		if rec, err = svc.repo.UpdateRecord(ctx, rec, tx); err != nil {
			return err
		}

		msg := core.NewAbsenceAlertMessage(student.ParentMobile, student.Name, now)
		return notif.Enqueue(ctx, svc.notifRepo, msg, tx)
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (svc *service) onLeave(ctx context.Context, studentID string) (bool, error) {
	requests, err := svc.leaveRepo.QueryLeaveRequests(ctx, &leave.QueryFilter{
		Status:    leave.StatusApproved,
		StudentID: studentID,
	}, nil)
	if err != nil {
		return false, err
	}
	for i := range requests {
		if requests[i].IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (svc *service) expandStudent(ctx context.Context, rec *Record) error {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: rec.StudentID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "expanding attendance student")
	}
	info := usr.PublicInfo()
	rec.StudentInfo = &info
	return nil
}
