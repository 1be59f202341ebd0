package service

import (
	"context"

	"pdl-records/internal/model"
)

type statsReader interface {
	Stats(ctx context.Context) (model.DashboardStats, error)
}

// DashboardService is a thin read-only aggregate over pdl_records.
type DashboardService struct {
	repo statsReader
}

func NewDashboardService(repo statsReader) *DashboardService {
	return &DashboardService{repo: repo}
}

func (s *DashboardService) Stats(ctx context.Context) (model.DashboardStats, error) {
	return s.repo.Stats(ctx)
}
