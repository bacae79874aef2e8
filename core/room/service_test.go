package room_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/room"
	"github.com/nkashama/bweni/core/user"
	dummydb "github.com/nkashama/bweni/storage/database/dummy"
	testutil "github.com/nkashama/bweni/tests"
)

func setup(t *testing.T) (room.Service, room.Repository, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	roomRepo := dummydb.NewRoomRepository(db)
	usrRepo := dummydb.NewUserRepository(db)
	return room.NewService(db, roomRepo, usrRepo), roomRepo, usrRepo
}

func wantValidationError(t *testing.T, err error, want string) {
	t.Helper()

	if err == nil {
		t.Fatalf("failed! err = nil; want %q", want)
	}
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	if !ok {
		t.Fatalf("failed! err = %v (%T); want *core.ValidationError", err, errors.Cause(err))
	}
	if vErr.Error() != want {
		t.Errorf("failed! err = %q; want %q", vErr.Error(), want)
	}
}

func TestService_AssignRemove(t *testing.T) {
	svc, roomRepo, usrRepo := setup(t)
	ctx := context.Background()

	rm := testutil.CreateRoom(t, roomRepo, "a101", 1, 2)
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	king := testutil.CreateUser(t, usrRepo, "King", "hst002", "king@test.cd", "", user.RoleStudent, true)
	prince := testutil.CreateUser(t, usrRepo, "Prince", "hst003", "prince@test.cd", "", user.RoleStudent, true)

	// assign sets the occupant list and the student's backlink together
	got, err := svc.Assign(ctx, rm.ID, hero.ID)
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if len(got.Occupants) != 1 || got.Occupants[0] != hero.ID {
		t.Errorf("failed! occupants = %v; want [%s]", got.Occupants, hero.ID)
	}
	if !got.IsOccupied {
		t.Errorf("failed! room not marked occupied")
	}
	hero, err = usrRepo.GetUser(ctx, user.GetFilter{ID: hero.ID})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !hero.RoomID.Valid || hero.RoomID.String != rm.ID {
		t.Errorf("failed! roomID = %v; want %s", hero.RoomID, rm.ID)
	}

	// a student holds at most one bed
	_, err = svc.Assign(ctx, rm.ID, hero.ID)
	wantValidationError(t, err, "student already assigned to a room")

	if _, err = svc.Assign(ctx, rm.ID, king.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	// a full room takes no one else
	_, err = svc.Assign(ctx, rm.ID, prince.ID)
	wantValidationError(t, err, "room is full")

	// remove frees the bed and clears the backlink
	got, err = svc.Remove(ctx, rm.ID, hero.ID)
	if err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if len(got.Occupants) != 1 || got.Occupants[0] != king.ID {
		t.Errorf("failed! occupants = %v; want [%s]", got.Occupants, king.ID)
	}
	hero, err = usrRepo.GetUser(ctx, user.GetFilter{ID: hero.ID})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if hero.RoomID.Valid {
		t.Errorf("failed! roomID = %v; want cleared", hero.RoomID)
	}

	// the freed bed is available again
	if _, err = svc.Assign(ctx, rm.ID, prince.ID); err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	// re-assigning an occupant of a full room reports the assignment, not
	// the capacity
	_, err = svc.Assign(ctx, rm.ID, king.ID)
	wantValidationError(t, err, "student already assigned to a room")

	// unknown room and student
	if _, err = svc.Assign(ctx, "lol", hero.ID); errors.Cause(err) != room.ErrNotFound {
		t.Errorf("failed! err = %v; want %v", err, room.ErrNotFound)
	}
	if _, err = svc.Assign(ctx, rm.ID, "lol"); errors.Cause(err) != user.ErrNotFound {
		t.Errorf("failed! err = %v; want %v", err, user.ErrNotFound)
	}
}

func TestService_Layout(t *testing.T) {
	svc, roomRepo, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	testutil.CreateRoom(t, roomRepo, "a101", 1, 2, hero.ID)
	testutil.CreateRoom(t, roomRepo, "a102", 1, 3)
	testutil.CreateRoom(t, roomRepo, "b201", 2, 2)

	layout, err := svc.Layout(ctx, 1)
	if err != nil {
		t.Fatalf("Layout() failed: %v", err)
	}
	if layout.Floor != 1 || layout.TotalRooms != 2 {
		t.Errorf("failed! layout = %+v; want floor 1 with 2 rooms", layout)
	}
	if layout.TwoPersonRooms != 1 || layout.ThreePersonRooms != 1 {
		t.Errorf("failed! room type tally = %d/%d; want 1/1", layout.TwoPersonRooms, layout.ThreePersonRooms)
	}
	if layout.OccupiedRooms != 1 {
		t.Errorf("failed! occupiedRooms = %d; want 1", layout.OccupiedRooms)
	}
	if len(layout.Rooms[0].OccupantInfo) != 1 || layout.Rooms[0].OccupantInfo[0].RollNumber != hero.RollNumber {
		t.Errorf("failed! occupantInfo = %+v", layout.Rooms[0].OccupantInfo)
	}

	// a floor with no rooms reports empty tallies
	layout, err = svc.Layout(ctx, 7)
	if err != nil {
		t.Fatalf("Layout() failed: %v", err)
	}
	if layout.TotalRooms != 0 || len(layout.Rooms) != 0 {
		t.Errorf("failed! layout = %+v; want empty", layout)
	}
}

func TestService_Delete(t *testing.T) {
	svc, roomRepo, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hst001", "hero@test.cd", "", user.RoleStudent, true)
	occupied := testutil.CreateRoom(t, roomRepo, "a101", 1, 2, hero.ID)
	vacant := testutil.CreateRoom(t, roomRepo, "a102", 1, 2)

	wantValidationError(t, svc.Delete(ctx, occupied.ID), "cannot delete occupied room")

	if err := svc.Delete(ctx, vacant.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := svc.GetByID(ctx, vacant.ID); errors.Cause(err) != room.ErrNotFound {
		t.Errorf("failed! err = %v; want %v", err, room.ErrNotFound)
	}
}
