package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/room"
)

type roomRepository struct {
	db *roomTable
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(db *DB) room.Repository {
	return &roomRepository{db: db.room}
}

func (repo *roomRepository) query() []room.Room {
	rooms := make([]room.Room, 0, len(repo.db.table))
	for _, rm := range repo.db.table {
		rooms = append(rooms, *rm)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })
	return rooms
}

func (repo *roomRepository) CheckRoomNumberUniqueness(ctx context.Context, roomNumber string, excludedRooms []room.Room, exec ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rm := range repo.query() {
		excluded := false
		for _, excl := range excludedRooms {
			if rm.ID == excl.ID {
				excluded = true
				break
			}
		}
		if !excluded && rm.RoomNumber == roomNumber {
			return room.ErrRoomNumberExists
		}
	}
	return nil
}

func (repo *roomRepository) CreateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rm.ID = uuid.New().String()
	rm.IsOccupied = len(rm.Occupants) > 0
	repo.db.table[rm.ID] = &rm
	return rm, nil
}

func (repo *roomRepository) GetRoom(ctx context.Context, id string, exec ...core.DBExecutor) (room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rm, ok := repo.db.table[id]; ok {
		return *rm, nil
	}
	return room.Room{}, room.ErrNotFound
}

func (repo *roomRepository) QueryRooms(ctx context.Context, filter *room.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]room.Room, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	rooms := repo.query()
	if filter == nil {
		return rooms, nil
	}

	if filter.Floor != nil {
		var filtered []room.Room
		for _, rm := range rooms {
			if rm.Floor == *filter.Floor {
				filtered = append(filtered, rm)
			}
		}
		rooms = filtered
	}
	if filter.Type != "" {
		var filtered []room.Room
		for _, rm := range rooms {
			if rm.Type == filter.Type {
				filtered = append(filtered, rm)
			}
		}
		rooms = filtered
	}
	if filter.IsOccupied != nil {
		var filtered []room.Room
		for _, rm := range rooms {
			if rm.IsOccupied == *filter.IsOccupied {
				filtered = append(filtered, rm)
			}
		}
		rooms = filtered
	}
	return rooms, nil
}

func (repo *roomRepository) UpdateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rm.ID]; !ok {
		return room.Room{}, room.ErrNotFound
	}
	rm.IsOccupied = len(rm.Occupants) > 0
	repo.db.table[rm.ID] = &rm
	return rm, nil
}

func (repo *roomRepository) DeleteRoom(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return room.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
