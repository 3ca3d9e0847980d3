package service

import (
	"context"
	"time"

	"github.com/siteops/siteops-backend/internal/budget/repository"
	"github.com/siteops/siteops-backend/pkg/tenant"
)

// AllocationStore is the persistence surface the budget service needs
// for allocations. Satisfied by repository.AllocationRepository.
type AllocationStore interface {
	Create(ctx context.Context, scope tenant.Scope, alloc *repository.Allocation) error
	GetByID(ctx context.Context, scope tenant.Scope, id string) (*repository.Allocation, error)
	GetByKey(ctx context.Context, scope tenant.Scope, locationID *string, category string, fiscalYear int) (*repository.Allocation, error)
	ListByYear(ctx context.Context, scope tenant.Scope, fiscalYear int) ([]*repository.Allocation, error)
	Update(ctx context.Context, scope tenant.Scope, alloc *repository.Allocation) error
	SoftDelete(ctx context.Context, scope tenant.Scope, id string) error
}

// CostSource provides completed ticket costs. Satisfied by
// repository.CostRecordRepository.
type CostSource interface {
	ListCompleted(ctx context.Context, scope tenant.Scope, start, end time.Time, locationID *string) ([]repository.CostRecord, error)
}
