package room

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

// Room types, derived from capacity.
const (
	TypeTwoPerson   = "two-person"
	TypeThreePerson = "three-person"
)

// TypeForCapacity maps a capacity to its room type.
func TypeForCapacity(capacity int) string {
	if capacity == 3 {
		return TypeThreePerson
	}
	return TypeTwoPerson
}

type Room struct {
	ID         string    `json:"id"`
	RoomNumber string    `json:"roomNumber"`
	Floor      int       `json:"floor"`
	Capacity   int       `json:"capacity"`
	Type       string    `json:"type"`
	Occupants  []string  `json:"occupants"`
	IsOccupied bool      `json:"isOccupied"`
	CreatedAt  time.Time `json:"createdAt"` // UTC
	UpdatedAt  time.Time `json:"updatedAt"` // UTC

	// expanded for display on reads; never persisted
	OccupantInfo []user.PublicInfo `json:"occupantInfo,omitempty"`
}

func (r *Room) IsFull() bool {
	return len(r.Occupants) >= r.Capacity
}

func (r *Room) HasOccupant(userID string) bool {
	for _, id := range r.Occupants {
		if id == userID {
			return true
		}
	}
	return false
}

// NewRoom contains information needed to create a Room.
type NewRoom struct {
	RoomNumber string `json:"roomNumber" validate:"required,alphanum_"`
	Floor      int    `json:"floor" validate:"min=0"`
	Capacity   int    `json:"capacity" validate:"required,oneof=2 3"`
}

func (nr *NewRoom) Validate(validate *validator.Validate, svc Service) error {
	nr.RoomNumber = core.CleanString(nr.RoomNumber, true /* lower */)
	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckRoomNumberUniqueness(nr.RoomNumber)
}

// UpdateRoom defines the mutable Room fields; occupants are mutated only
// through Assign/Remove.
type UpdateRoom struct {
	RoomNumber string `json:"roomNumber"`
	Floor      *int   `json:"floor" validate:"omitempty,min=0"`
	Capacity   *int   `json:"capacity" validate:"omitempty,oneof=2 3"`
}

func (ur *UpdateRoom) Validate(origRoom Room, validate *validator.Validate, svc Service) error {
	if num := core.CleanString(ur.RoomNumber, true /* lower */); num != "" {
		ur.RoomNumber = num
	} else {
		ur.RoomNumber = origRoom.RoomNumber
	}
	if err := validate.Struct(ur); err != nil {
		return err
	}
	if ur.Capacity != nil && *ur.Capacity < len(origRoom.Occupants) {
		return core.NewValidationError(errCapacityBelowOccupancy,
			core.FieldError{Field: "capacity", Error: errCapacityBelowOccupancy.Error()})
	}
	return svc.CheckRoomNumberUniqueness(ur.RoomNumber, origRoom)
}

type QueryFilter struct {
	Floor      *int   `query:"floor"`
	Type       string `query:"type"`
	IsOccupied *bool  `query:"isOccupied"`
}

func (qf *QueryFilter) Clean() {
	qf.Type = core.CleanString(qf.Type, true /* lower */)
}

// AssignRequest names the student joining or leaving a room.
type AssignRequest struct {
	StudentID string `json:"studentId" validate:"required"`
}

func (ar *AssignRequest) Validate(validate *validator.Validate) error {
	ar.StudentID = core.CleanString(ar.StudentID)
	return validate.Struct(ar)
}

// Layout aggregates one floor's rooms.
type Layout struct {
	Floor            int    `json:"floor"`
	TotalRooms       int    `json:"totalRooms"`
	TwoPersonRooms   int    `json:"twoPersonRooms"`
	ThreePersonRooms int    `json:"threePersonRooms"`
	OccupiedRooms    int    `json:"occupiedRooms"`
	Rooms            []Room `json:"rooms"`
}
