package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/nkashama/bweni/core"
	"github.com/nkashama/bweni/core/complaint"
)

type complaintRepository struct {
	db *complaintTable
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *DB) complaint.Repository {
	return &complaintRepository{db: db.complaint}
}

func (repo *complaintRepository) query() []complaint.Complaint {
	complaints := make([]complaint.Complaint, 0, len(repo.db.table))
	for _, compl := range repo.db.table {
		complaints = append(complaints, *compl)
	}
	sort.Slice(complaints, func(i, j int) bool {
		if complaints[i].CreatedAt.Equal(complaints[j].CreatedAt) {
			return complaints[i].ID < complaints[j].ID
		}
		return complaints[i].CreatedAt.Before(complaints[j].CreatedAt)
	})
	return complaints
}

func (repo *complaintRepository) CreateComplaint(ctx context.Context, compl complaint.Complaint, exec ...core.DBExecutor) (complaint.Complaint, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	compl.ID = uuid.New().String()
	repo.db.table[compl.ID] = &compl
	return compl, nil
}

func (repo *complaintRepository) GetComplaint(ctx context.Context, id string, exec ...core.DBExecutor) (complaint.Complaint, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if compl, ok := repo.db.table[id]; ok {
		return *compl, nil
	}
	return complaint.Complaint{}, complaint.ErrNotFound
}

func (repo *complaintRepository) QueryComplaints(ctx context.Context, filter *complaint.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]complaint.Complaint, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	complaints := repo.query()
	if filter == nil {
		return complaints, nil
	}

	if filter.Status != "" {
		var filtered []complaint.Complaint
		for _, compl := range complaints {
			if compl.Status == filter.Status {
				filtered = append(filtered, compl)
			}
		}
		complaints = filtered
	}
	if filter.Type != "" {
		var filtered []complaint.Complaint
		for _, compl := range complaints {
			if compl.Type == filter.Type {
				filtered = append(filtered, compl)
			}
		}
		complaints = filtered
	}
	return complaints, nil
}

func (repo *complaintRepository) UpdateComplaint(ctx context.Context, compl complaint.Complaint, exec ...core.DBExecutor) (complaint.Complaint, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[compl.ID]; !ok {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	repo.db.table[compl.ID] = &compl
	return compl, nil
}

func (repo *complaintRepository) DeleteComplaint(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return complaint.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
