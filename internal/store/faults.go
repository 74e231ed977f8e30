package store

import (
	"context"
	"fmt"
	"time"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) ListFaults(ctx context.Context, f FaultFilter) ([]model.FaultHistory, error) {
	q := s.db.WithContext(ctx).Order("fault_date DESC").Order("id DESC")
	if f.Serial != "" {
		q = q.Where("device_serial_number = ?", f.Serial)
	}
	if f.Resolved != nil {
		q = q.Where("resolved = ?", *f.Resolved)
	}
	var faults []model.FaultHistory
	if err := q.Find(&faults).Error; err != nil {
		return nil, fmt.Errorf("failed to list faults: %w", err)
	}
	return faults, nil
}

// ResolveFault marks a fault resolved. Resolving twice keeps the first
// resolution time.
func (s *gormStore) ResolveFault(ctx context.Context, id int64) (*model.FaultHistory, error) {
	var fault model.FaultHistory
	if err := s.db.WithContext(ctx).First(&fault, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("fault %d", id))
	}
	if fault.Resolved {
		return &fault, nil
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&fault).Updates(map[string]any{"resolved": true, "resolved_at": now}).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve fault %d: %w", id, err)
	}
	fault.Resolved = true
	fault.ResolvedAt = &now
	return &fault, nil
}
