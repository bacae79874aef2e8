package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) query() []attendance.Record {
	records := make([]attendance.Record, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		if rec, ok := repo.db.table[id]; ok {
			records = append(records, *rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records
}

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec.ID = uuid.New().String()
	repo.db.table[rec.ID] = &rec
	repo.db.order = append(repo.db.order, rec.ID)
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, id string, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) GetRecordForDate(ctx context.Context, studentID string, date time.Time, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.StudentID == studentID && rec.Date.Equal(date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter *attendance.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := repo.query()
	if filter == nil {
		return records, nil
	}

	if filter.StudentID != "" {
		var filtered []attendance.Record
		for _, rec := range records {
			if rec.StudentID == filter.StudentID {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if filter.DateFrom != nil {
		var filtered []attendance.Record
		for _, rec := range records {
			if !rec.Date.Before(*filter.DateFrom) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if filter.DateTo != nil {
		var filtered []attendance.Record
		for _, rec := range records {
			if !rec.Date.After(*filter.DateTo) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	return records, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	repo.db.table[rec.ID] = &rec
	return rec, nil
}
