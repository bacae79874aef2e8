package complaint_test

import (
	"context"
	"testing"

	"github.com/nkashama/bweni/core/complaint"
	"github.com/nkashama/bweni/core/user"
	dummydb "github.com/nkashama/bweni/storage/database/dummy"
	testutil "github.com/nkashama/bweni/tests"
)

func setup(t *testing.T) (complaint.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return complaint.NewService(dummydb.NewComplaintRepository(db), dummydb.NewUserRepository(db)), dummydb.NewUserRepository(db)
}

func file(t *testing.T, svc complaint.Service, owner user.User, anonymous bool) complaint.Complaint {
	t.Helper()

	compl, err := svc.Create(context.Background(), complaint.NewComplaint{
		Title:       "Broken tap",
		Type:        complaint.TypeMaintenance,
		Description: "the tap in a101 leaks",
		IsAnonymous: anonymous,
	}, owner)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	return compl
}

func TestService_Vote(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	king := testutil.CreateUser(t, usrRepo, "King", "hst002", "king@test.cd", "", user.RoleStudent, true)
	compl := file(t, svc, hero, false)

	tests := []struct {
		name     string
		voterID  string
		voteType string
		want     int
	}{
		{"upvote counts", hero.ID, complaint.VoteUp, 1},
		{"repeat vote is a no-op", hero.ID, complaint.VoteUp, 1},
		{"second voter counts", king.ID, complaint.VoteUp, 2},
		{"switching sides moves the vote", king.ID, complaint.VoteDown, 0},
		{"unknown voteType retracts", king.ID, "meh", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Vote(ctx, compl.ID, tt.voterID, tt.voteType)
			if err != nil {
				t.Fatalf("Vote() failed: %v", err)
			}
			if count := got.VoteCount(); count != tt.want {
				t.Errorf("failed! voteCount = %d; want %d", count, tt.want)
			}
		})
	}
}

func TestService_Update_resolution(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Warden", "stf001", "warden@test.cd", "", user.RoleAdmin, true)
	compl := file(t, svc, hero, false)

	update := complaint.UpdateComplaint{
		Title:       compl.Title,
		Type:        compl.Type,
		Description: compl.Description,
		Status:      complaint.StatusResolved,
	}
	got, err := svc.Update(ctx, compl, update, admin)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Status != complaint.StatusResolved {
		t.Errorf("failed! status = %s; want %s", got.Status, complaint.StatusResolved)
	}
	if !got.ResolvedAt.Valid || got.ResolvedBy.String != admin.ID {
		t.Errorf("failed! resolution not stamped: %+v", got)
	}
	if got.ResolverInfo == nil || got.ResolverInfo.Name != admin.Name || got.ResolverInfo.RollNumber != "" {
		t.Errorf("failed! resolverInfo = %+v", got.ResolverInfo)
	}
	firstResolvedAt := got.ResolvedAt.Time

	// resolving again does not restamp
	got, err = svc.Update(ctx, got, update, hero)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.ResolvedBy.String != admin.ID || !got.ResolvedAt.Time.Equal(firstResolvedAt) {
		t.Errorf("failed! resolution restamped: %+v", got)
	}
}

func TestService_anonymity(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	named := file(t, svc, hero, false)
	anonymous := file(t, svc, hero, true)

	got, err := svc.GetByID(ctx, named.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.StudentInfo == nil || got.StudentInfo.RollNumber != hero.RollNumber {
		t.Errorf("failed! studentInfo = %+v", got.StudentInfo)
	}

	got, err = svc.GetByID(ctx, anonymous.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.StudentInfo != nil {
		t.Errorf("failed! studentInfo = %+v; want hidden", got.StudentInfo)
	}
}
