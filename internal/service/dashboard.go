package service

import (
	"context"

	"github.com/Skotchmaster/resto_admin/internal/repo"
	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type DashboardService struct {
	Repo *repo.GormRepo
}

// Stats counts menu items and orders, the latter also per status.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	items, err := s.Repo.CountMenuItems(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var orders int64
	for _, n := range byStatus {
		orders += n
	}
	return &domain.DashboardStats{MenuItems: items, Orders: orders, ByStatus: byStatus}, nil
}
