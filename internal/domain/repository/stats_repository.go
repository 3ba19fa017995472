package repository

import (
	"context"

	"github.com/oksasatya/go-library-management/internal/domain/entity"
)

// StatsRepository produces dashboard counters. Counts that cannot be read
// come back as zero instead of failing the whole snapshot.
type StatsRepository interface {
	Snapshot(ctx context.Context, activeLoansOf *int64) entity.Stats
}
