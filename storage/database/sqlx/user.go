package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/user"
)

type userRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	Email         string      `db:"email"`
	RollNumber    string      `db:"roll_number"`
	Role          string      `db:"role"`
	ParentName    string      `db:"parent_name"`
	ParentMobile  string      `db:"parent_mobile"`
	StudentMobile string      `db:"student_mobile"`
	PhotoURL      string      `db:"photo_url"`
	RoomID        null.String `db:"room_id"`
	IsActive      null.Bool   `db:"is_active"`
	PasswordHash  []byte      `db:"password_hash"`
	CreatedAt     null.Time   `db:"created_at"`
	UpdatedAt     null.Time   `db:"updated_at"`
	LastLogin     null.Time   `db:"last_login"`
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo userRepository) row(usr user.User) userRow {
	return userRow{
		ID:            usr.ID,
		Name:          usr.Name,
		Email:         usr.Email,
		RollNumber:    usr.RollNumber,
		Role:          usr.Role,
		ParentName:    usr.ParentName,
		ParentMobile:  usr.ParentMobile,
		StudentMobile: usr.StudentMobile,
		PhotoURL:      usr.PhotoURL,
		RoomID:        usr.RoomID,
		IsActive:      null.BoolFromPtr(usr.IsActive),
		PasswordHash:  usr.PasswordHash,
		CreatedAt:     null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:     null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:     null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) unrow(row userRow) user.User {
	return user.User{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		RollNumber:    row.RollNumber,
		Role:          row.Role,
		ParentName:    row.ParentName,
		ParentMobile:  row.ParentMobile,
		StudentMobile: row.StudentMobile,
		PhotoURL:      row.PhotoURL,
		RoomID:        row.RoomID,
		IsActive:      row.IsActive.Ptr(),
		PasswordHash:  row.PasswordHash,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
		LastLogin:     row.LastLogin.Time,
	}
}

func (repo userRepository) unrowSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unrow(row))
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, email, rollNumber string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := `SELECT email, roll_number FROM "user" WHERE (email = ? OR roll_number = ?)`
	args := []interface{}{email, rollNumber}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		q, args, err = sqlx.In(q+" AND id NOT IN (?)", email, rollNumber, ids)
		if err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
	}

	var clashes []userRow
	if err := sqlx.SelectContext(ctx, exe, &clashes, exe.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range clashes {
		if row.Email == email {
			return user.ErrEmailExists
		}
		if row.RollNumber == rollNumber {
			return user.ErrRollNumberExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	exe := repo.getExec(exec)

	q := exe.Rebind(`
INSERT INTO "user" (id, name, email, roll_number, role, parent_name, parent_mobile, student_mobile,
                    photo_url, room_id, is_active, password_hash, created_at, updated_at, last_login)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	row := repo.row(usr)
	_, err := exe.ExecContext(ctx, q,
		row.ID, row.Name, row.Email, row.RollNumber, row.Role, row.ParentName, row.ParentMobile,
		row.StudentMobile, row.PhotoURL, row.RoomID, row.IsActive, row.PasswordHash,
		row.CreatedAt, row.UpdatedAt, row.LastLogin,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)

	var cond string
	var arg interface{}
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		cond, arg = "id = ?", filter.ID
	case filter.Email != "":
		cond, arg = "email = ?", filter.Email
	case filter.RollNumber != "":
		cond, arg = "roll_number = ?", filter.RollNumber
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	q := exe.Rebind(`SELECT * FROM "user" WHERE ` + cond)
	if err := sqlx.GetContext(ctx, exe, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return repo.unrow(row), nil
}

func (repo userRepository) GetUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	exe := repo.getExec(exec)

	q, args, err := sqlx.In(`SELECT * FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "getting users")
	}
	var rows []userRow
	if err = sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "getting users")
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter != nil {
		// users with Name, Email or Roll Number matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			conds = append(conds, "(name ILIKE ? OR email ILIKE ? OR roll_number ILIKE ?)")
			args = append(args, val, val, val)
		}
		if filter.Role != "" {
			conds = append(conds, "role = ?")
			args = append(args, filter.Role)
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = ?")
			args = append(args, *filter.IsActive)
		}
	}

	q := `SELECT * FROM "user"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering)

	var rows []userRow
	if err := sqlx.SelectContext(ctx, exe, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unrowSlice(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)

	q := exe.Rebind(`
UPDATE "user"
SET name = ?, email = ?, parent_name = ?, parent_mobile = ?, student_mobile = ?, photo_url = ?,
    is_active = ?, password_hash = ?, updated_at = ?, last_login = ?
WHERE id = ?`)
	row := repo.row(usr)
	res, err := exe.ExecContext(ctx, q,
		row.Name, row.Email, row.ParentName, row.ParentMobile, row.StudentMobile, row.PhotoURL,
		row.IsActive, row.PasswordHash, row.UpdatedAt, row.LastLogin, row.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) SetUserRoom(ctx context.Context, userID string, roomID null.String, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := exe.Rebind(`UPDATE "user" SET room_id = ?, updated_at = now() WHERE id = ?`)
	res, err := exe.ExecContext(ctx, q, roomID, userID)
	if err != nil {
		return errors.Wrap(err, "setting user room")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	exe := repo.getExec(exec)

	q, args, err := sqlx.In(`DELETE FROM "user" WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	res, err := exe.ExecContext(ctx, exe.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(n), nil
}
