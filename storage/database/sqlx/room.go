package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/room"
)

type roomRow struct {
	ID         string         `db:"id"`
	RoomNumber string         `db:"room_number"`
	Floor      int            `db:"floor"`
	Capacity   int            `db:"capacity"`
	Type       string         `db:"type"`
	Occupants  pq.StringArray `db:"occupants"`
	IsOccupied bool           `db:"is_occupied"`
	CreatedAt  null.Time      `db:"created_at"`
	UpdatedAt  null.Time      `db:"updated_at"`
}

type roomRepository struct {
	exec core.DBExecutor
}

var _ room.Repository = (*roomRepository)(nil) // interface compliance check

func NewRoomRepository(exec core.DBExecutor) *roomRepository {
	return &roomRepository{exec: exec}
}

func (repo roomRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo roomRepository) unrow(row roomRow) room.Room {
	return room.Room{
		ID:         row.ID,
		RoomNumber: row.RoomNumber,
		Floor:      row.Floor,
		Capacity:   row.Capacity,
		Type:       row.Type,
		Occupants:  row.Occupants,
		IsOccupied: row.IsOccupied,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo roomRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return room.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo roomRepository) CheckRoomNumberUniqueness(ctx context.Context, roomNumber string, excludedRooms []room.Room, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := `SELECT EXISTS (SELECT 1 FROM room WHERE room_number = ?`
	args := []interface{}{roomNumber}
	if len(excludedRooms) > 0 {
		ids := make([]string, 0, len(excludedRooms))
		for _, rm := range excludedRooms {
			ids = append(ids, rm.ID)
		}
		var err error
		q, args, err = sqlx.In(q+" AND id NOT IN (?)", roomNumber, ids)
		if err != nil {
			return errors.Wrap(err, "checking room number uniqueness")
		}
	}
	q += ")"

	var exists bool
	if err := sqlx.GetContext(ctx, exe, &exists, exe.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking room number uniqueness")
	}
	if exists {
		return room.ErrRoomNumberExists
	}
	return nil
}

func (repo roomRepository) CreateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	rm.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO room (id, room_number, floor, capacity, type, occupants, is_occupied, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := exe.ExecContext(ctx, q,
		rm.ID, rm.RoomNumber, rm.Floor, rm.Capacity, rm.Type,
		pq.Array(rm.Occupants), len(rm.Occupants) > 0,
		rm.CreatedAt.UTC(), rm.UpdatedAt.UTC(),
	)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "inserting room")
	}
	return rm, nil
}

func (repo roomRepository) GetRoom(ctx context.Context, id string, exec ...core.DBExecutor) (room.Room, error) {
	if _, err := uuid.Parse(id); err != nil {
		return room.Room{}, room.ErrNotFound
	}
	exe := repo.getExec(exec)

	var row roomRow
	q := exe.Rebind(`SELECT * FROM room WHERE id = ?`)
	if err := sqlx.GetContext(ctx, exe, &row, q, id); err != nil {
		return room.Room{}, repo.trapNoRowsErr(err, "getting room")
	}
	return repo.unrow(row), nil
}

func (repo roomRepository) QueryRooms(ctx context.Context, filter *room.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]room.Room, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.Floor != nil {
			conds = append(conds, "floor = ?")
			args = append(args, *filter.Floor)
		}
		if filter.Type != "" {
			conds = append(conds, "type = ?")
			args = append(args, filter.Type)
		}
		if filter.IsOccupied != nil {
			conds = append(conds, "is_occupied = ?")
			args = append(args, *filter.IsOccupied)
		}
	}

	q := `SELECT * FROM room`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []roomRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying rooms")
	}
	rooms := make([]room.Room, 0, len(rows))
	for _, row := range rows {
		rooms = append(rooms, repo.unrow(row))
	}
	return rooms, nil
}

func (repo roomRepository) UpdateRoom(ctx context.Context, rm room.Room, exec ...core.DBExecutor) (room.Room, error) {
	exe := repo.getExec(exec)

	rm.IsOccupied = len(rm.Occupants) > 0
	q := exe.Rebind(`
UPDATE room
SET room_number = ?, floor = ?, capacity = ?, type = ?, occupants = ?, is_occupied = ?, updated_at = ?
WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q,
		rm.RoomNumber, rm.Floor, rm.Capacity, rm.Type,
		pq.Array(rm.Occupants), rm.IsOccupied, rm.UpdatedAt.UTC(), rm.ID,
	)
	if err != nil {
		return room.Room{}, errors.Wrap(err, "updating room")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return room.Room{}, room.ErrNotFound
	}
	return rm, nil
}

func (repo roomRepository) DeleteRoom(ctx context.Context, id string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM room WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "deleting room")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return room.ErrNotFound
	}
	return nil
}
