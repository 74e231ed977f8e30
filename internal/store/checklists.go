package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) ListChecklists(ctx context.Context) ([]model.InspectionChecklist, error) {
	var lists []model.InspectionChecklist
	if err := s.db.WithContext(ctx).Order("code").Find(&lists).Error; err != nil {
		return nil, fmt.Errorf("failed to list checklists: %w", err)
	}
	return lists, nil
}

func (s *gormStore) GetChecklist(ctx context.Context, code string) (*model.InspectionChecklist, error) {
	var c model.InspectionChecklist
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, notFound(err, "checklist "+code)
	}
	return &c, nil
}

// SaveChecklist replaces the whole definition stored under c.Code.
func (s *gormStore) SaveChecklist(ctx context.Context, c *model.InspectionChecklist) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "items", "updated_at"}),
	}).Create(c).Error
	if err != nil {
		return fmt.Errorf("upsert checklist %s failed: %w", c.Code, err)
	}
	return nil
}

func (s *gormStore) DeleteChecklist(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("code = ?", code).Delete(&model.InspectionChecklist{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete checklist %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("checklist %s: %w", code, ErrNotFound)
	}
	return nil
}
