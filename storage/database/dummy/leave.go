package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/leave"
)

type leaveRepository struct {
	db *leaveTable
}

var _ leave.Repository = (*leaveRepository)(nil) // interface compliance check

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db.leave}
}

func (repo *leaveRepository) query() []leave.LeaveRequest {
	requests := make([]leave.LeaveRequest, 0, len(repo.db.table))
	for _, lr := range repo.db.table {
		requests = append(requests, *lr)
	}
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].CreatedAt.Equal(requests[j].CreatedAt) {
			return requests[i].ID < requests[j].ID
		}
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests
}

func (repo *leaveRepository) CreateLeaveRequest(ctx context.Context, lr leave.LeaveRequest, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	lr.ID = uuid.New().String()
	repo.db.table[lr.ID] = &lr
	return lr, nil
}

func (repo *leaveRepository) GetLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if lr, ok := repo.db.table[id]; ok {
		return *lr, nil
	}
	return leave.LeaveRequest{}, leave.ErrNotFound
}

func (repo *leaveRepository) QueryLeaveRequests(ctx context.Context, filter *leave.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]leave.LeaveRequest, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	requests := repo.query()
	if filter == nil {
		return requests, nil
	}

	if filter.Status != "" {
		var filtered []leave.LeaveRequest
		for _, lr := range requests {
			if lr.Status == filter.Status {
				filtered = append(filtered, lr)
			}
		}
		requests = filtered
	}
	if filter.StudentID != "" {
		var filtered []leave.LeaveRequest
		for _, lr := range requests {
			if lr.StudentID == filter.StudentID {
				filtered = append(filtered, lr)
			}
		}
		requests = filtered
	}
	return requests, nil
}

func (repo *leaveRepository) UpdateLeaveRequest(ctx context.Context, lr leave.LeaveRequest, exec ...core.DBExecutor) (leave.LeaveRequest, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[lr.ID]; !ok {
		return leave.LeaveRequest{}, leave.ErrNotFound
	}
	repo.db.table[lr.ID] = &lr
	return lr, nil
}

func (repo *leaveRepository) DeleteLeaveRequest(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return leave.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
