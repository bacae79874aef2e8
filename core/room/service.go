package room

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("room not found")
	ErrRoomNumberExists = errors.New("a room with this number already exists")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyAssigned  = errors.New("student already assigned to a room")
	ErrRoomOccupied     = errors.New("cannot delete occupied room")

	errCapacityBelowOccupancy = errors.New("capacity cannot drop below current occupancy")
)

type (
	Repository interface {
		CheckRoomNumberUniqueness(ctx context.Context, roomNumber string, excludedRooms []Room, exec ...core.DBExecutor) error
		CreateRoom(ctx context.Context, rm Room, exec ...core.DBExecutor) (Room, error)
		GetRoom(ctx context.Context, id string, exec ...core.DBExecutor) (Room, error)
		QueryRooms(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Room, error)
		// UpdateRoom persists the room, recomputing is_occupied from the
		// occupant list on every write.
		UpdateRoom(ctx context.Context, rm Room, exec ...core.DBExecutor) (Room, error)
		DeleteRoom(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, nr NewRoom) (Room, error)
		GetByID(ctx context.Context, id string) (Room, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Room, error)
		Update(ctx context.Context, origRoom Room, ur UpdateRoom) (Room, error)
		Delete(ctx context.Context, id string) error
		Assign(ctx context.Context, roomID, studentID string) (Room, error)
		Remove(ctx context.Context, roomID, studentID string) (Room, error)
		Layout(ctx context.Context, floor int) (Layout, error)
		CheckRoomNumberUniqueness(roomNumber string, exclRooms ...Room) error
	}

	service struct {
		db      core.DB
		repo    Repository
		usrRepo user.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository) Service {
	return &service{db: db, repo: repo, usrRepo: usrRepo}
}

func (svc *service) CheckRoomNumberUniqueness(roomNumber string, exclRooms ...Room) error {
	if err := svc.repo.CheckRoomNumberUniqueness(context.Background(), roomNumber, exclRooms); err != nil {
		if errors.Cause(err) == ErrRoomNumberExists {
			return core.NewValidationError(err, core.FieldError{Field: "roomNumber", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nr NewRoom) (Room, error) {
	now := time.Now().UTC()
	rm := Room{
		RoomNumber: nr.RoomNumber,
		Floor:      nr.Floor,
		Capacity:   nr.Capacity,
		Type:       TypeForCapacity(nr.Capacity),
		Occupants:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateRoom(ctx, rm)
}

func (svc *service) GetByID(ctx context.Context, id string) (Room, error) {
	rm, err := svc.repo.GetRoom(ctx, id)
	if err != nil {
		return Room{}, err
	}
	if err = svc.expandOccupants(ctx, &rm); err != nil {
		return Room{}, err
	}
	return rm, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Room, error) {
	rooms, err := svc.repo.QueryRooms(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		if err = svc.expandOccupants(ctx, &rooms[i]); err != nil {
			return nil, err
		}
	}
	return rooms, nil
}

func (svc *service) Update(ctx context.Context, origRoom Room, ur UpdateRoom) (Room, error) {
	origRoom.RoomNumber = ur.RoomNumber
	if ur.Floor != nil {
		origRoom.Floor = *ur.Floor
	}
	if ur.Capacity != nil {
		origRoom.Capacity = *ur.Capacity
		origRoom.Type = TypeForCapacity(*ur.Capacity)
	}
	origRoom.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRoom(ctx, origRoom)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	rm, err := svc.repo.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if len(rm.Occupants) > 0 {
		return core.NewValidationError(ErrRoomOccupied)
	}
	return svc.repo.DeleteRoom(ctx, id)
}

// Assign adds a student to a room and sets the student's room backlink.
// Both writes happen in one transaction so the occupancy invariant cannot be
// half-applied.
func (svc *service) Assign(ctx context.Context, roomID, studentID string) (Room, error) {
	var rm Room
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if rm, err = svc.repo.GetRoom(ctx, roomID, tx); err != nil {
			return err
		}
		student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: studentID}, tx)
		if err != nil {
			return err
		}
		if student.RoomID.Valid {
			return core.NewValidationError(ErrAlreadyAssigned)
		}
		if rm.IsFull() {
			return core.NewValidationError(ErrRoomFull)
		}

		rm.Occupants = append(rm.Occupants, student.ID)
		rm.UpdatedAt = time.Now().UTC()
		if rm, err = svc.repo.UpdateRoom(ctx, rm, tx); err != nil {
			return err
		}
		return svc.usrRepo.SetUserRoom(ctx, student.ID, null.StringFrom(rm.ID), tx)
	})
	if err != nil {
		return Room{}, err
	}
	if err = svc.expandOccupants(ctx, &rm); err != nil {
		return Room{}, err
	}
	return rm, nil
}

// Remove takes a student out of a room and clears the backlink, in one
// transaction.
func (svc *service) Remove(ctx context.Context, roomID, studentID string) (Room, error) {
	var rm Room
	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if rm, err = svc.repo.GetRoom(ctx, roomID, tx); err != nil {
			return err
		}
		student, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: studentID}, tx)
		if err != nil {
			return err
		}

		occupants := make([]string, 0, len(rm.Occupants))
		for _, id := range rm.Occupants {
			if id != student.ID {
				occupants = append(occupants, id)
			}
		}
		rm.Occupants = occupants
		rm.UpdatedAt = time.Now().UTC()
		if rm, err = svc.repo.UpdateRoom(ctx, rm, tx); err != nil {
			return err
		}
		return svc.usrRepo.SetUserRoom(ctx, student.ID, null.String{}, tx)
	})
	if err != nil {
		return Room{}, err
	}
	if err = svc.expandOccupants(ctx, &rm); err != nil {
		return Room{}, err
	}
	return rm, nil
}

func (svc *service) Layout(ctx context.Context, floor int) (Layout, error) {
	rooms, err := svc.Query(ctx, &QueryFilter{Floor: &floor}, []core.DBOrdering{{Field: "room_number", Ascending: true}})
	if err != nil {
		return Layout{}, err
	}
	layout := Layout{Floor: floor, TotalRooms: len(rooms), Rooms: rooms}
	for _, rm := range rooms {
		switch rm.Type {
		case TypeTwoPerson:
			layout.TwoPersonRooms++
		case TypeThreePerson:
			layout.ThreePersonRooms++
		}
		if rm.IsOccupied {
			layout.OccupiedRooms++
		}
	}
	return layout, nil
}

func (svc *service) expandOccupants(ctx context.Context, rm *Room) error {
	if len(rm.Occupants) == 0 {
		return nil
	}
	users, err := svc.usrRepo.GetUsersByID(ctx, rm.Occupants)
	if err != nil {
		return errors.Wrap(err, "expanding occupants")
	}
	rm.OccupantInfo = make([]user.PublicInfo, 0, len(users))
	for i := range users {
		rm.OccupantInfo = append(rm.OccupantInfo, users[i].PublicInfo())
	}
	return nil
}
