package application

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
	"github.com/oksasatya/go-library-management/internal/domain/repository"
)

type DashboardService struct {
	Stats repository.StatsRepository
}

func NewDashboardService(stats repository.StatsRepository) *DashboardService {
	return &DashboardService{Stats: stats}
}

// Summary returns the dashboard counters. Readers get their own active loan
// count; counts that cannot be read are reported as zero.
func (s *DashboardService) Summary(ctx context.Context, p Principal) entity.Stats {
	return s.Stats.Snapshot(ctx, p.scope())
}
