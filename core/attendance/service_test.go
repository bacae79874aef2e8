package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/nkashama/bweni/core/attendance"
	"github.com/nkashama/bweni/core/leave"
	"github.com/nkashama/bweni/core/user"
	dummydb "github.com/nkashama/bweni/storage/database/dummy"
	testutil "github.com/nkashama/bweni/tests"
)

func setup(t *testing.T) (attendance.Service, user.Repository, leave.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	leaveRepo := dummydb.NewLeaveRepository(db)
	svc := attendance.NewService(
		db,
		dummydb.NewAttendanceRepository(db),
		usrRepo,
		leaveRepo,
		dummydb.NewNotifRepository(db),
	)
	return svc, usrRepo, leaveRepo
}

func mockNow(t *testing.T, at time.Time) {
	t.Helper()

	orig := attendance.NowFunc
	attendance.NowFunc = func() time.Time { return at }
	t.Cleanup(func() { attendance.NowFunc = orig })
}

func TestService_CheckIn_lateThreshold(t *testing.T) {
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		late bool
	}{
		{"morning", day.Add(7 * time.Hour), false},
		{"just before curfew", day.Add(21*time.Hour + 59*time.Minute), false},
		{"at curfew", day.Add(22 * time.Hour), true},
		{"past curfew", day.Add(23*time.Hour + 30*time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, usrRepo, _ := setup(t)
			hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
			mockNow(t, tt.at)

			rec, err := svc.CheckIn(context.Background(), hero.ID)
			if err != nil {
				t.Fatalf("CheckIn() failed: %v", err)
			}
			if rec.IsLate != tt.late {
				t.Errorf("failed! isLate = %v; want %v", rec.IsLate, tt.late)
			}
			if !rec.IsPresent || !rec.TimeIn.Valid {
				t.Errorf("failed! check-in not stamped: %+v", rec)
			}
			if want := attendance.DateOf(tt.at); !rec.Date.Equal(want) {
				t.Errorf("failed! date = %v; want %v", rec.Date, want)
			}
		})
	}
}

func TestService_CheckIn_sameDayUpdates(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	ctx := context.Background()
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	mockNow(t, day.Add(7*time.Hour))
	first, err := svc.CheckIn(ctx, hero.ID)
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	// a second check-in the same day restamps the existing record
	mockNow(t, day.Add(23*time.Hour))
	second, err := svc.CheckIn(ctx, hero.ID)
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("failed! record duplicated: %s != %s", second.ID, first.ID)
	}
	if !second.IsLate {
		t.Errorf("failed! isLate = false; want true")
	}

	records, err := svc.Query(ctx, &attendance.QueryFilter{StudentID: hero.ID}, nil)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("failed! records = %d; want 1", len(records))
	}
}

func TestService_CheckIn_onLeave(t *testing.T) {
	svc, usrRepo, leaveRepo := setup(t)
	ctx := context.Background()
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)

	now := time.Now().UTC()
	_, err := leaveRepo.CreateLeaveRequest(ctx, leave.LeaveRequest{
		StudentID: hero.ID,
		Reason:    "family visit",
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
		Status:    leave.StatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateLeaveRequest() failed: %v", err)
	}

	rec, err := svc.CheckIn(ctx, hero.ID)
	if err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}
	if !rec.IsOnLeave {
		t.Errorf("failed! isOnLeave = false; want true")
	}
}

func TestService_CheckOut(t *testing.T) {
	svc, usrRepo, _ := setup(t)
	ctx := context.Background()
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	// no record for today yet
	mockNow(t, day.Add(17*time.Hour))
	if _, err := svc.CheckOut(ctx, hero.ID); err == nil {
		t.Fatalf("CheckOut() succeeded without a check-in")
	}

	mockNow(t, day.Add(7*time.Hour))
	if _, err := svc.CheckIn(ctx, hero.ID); err != nil {
		t.Fatalf("CheckIn() failed: %v", err)
	}

	mockNow(t, day.Add(17*time.Hour))
	rec, err := svc.CheckOut(ctx, hero.ID)
	if err != nil {
		t.Fatalf("CheckOut() failed: %v", err)
	}
	if !rec.TimeOut.Valid {
		t.Errorf("failed! check-out not stamped: %+v", rec)
	}
	if got := rec.Duration(); got != 10 {
		t.Errorf("failed! duration = %v; want 10", got)
	}
}
