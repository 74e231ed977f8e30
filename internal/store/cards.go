package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

func (s *gormStore) ListCards(ctx context.Context, kind string) ([]model.Card, error) {
	q := s.db.WithContext(ctx).Order("sort_order").Order("id")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var cards []model.Card
	if err := q.Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (s *gormStore) GetCard(ctx context.Context, id int64) (*model.Card, error) {
	var c model.Card
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("card %d", id))
	}
	return &c, nil
}

func (s *gormStore) CreateCard(ctx context.Context, c *model.Card) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateCard(ctx context.Context, c *model.Card) error {
	res := s.db.WithContext(ctx).Model(&model.Card{ID: c.ID}).
		Select("kind", "title", "description", "devices", "is_active", "sort_order", "updated_at").
		Updates(c)
	if res.Error != nil {
		return fmt.Errorf("failed to update card %d: %w", c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// ApproveCard deactivates a card once rotate accepts the current manager
// PIN, storing the PIN rotate returns. Nothing changes when rotate fails.
func (s *gormStore) ApproveCard(ctx context.Context, id int64, rotate RotateFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card model.Card
		if err := tx.Select("id").First(&card, id).Error; err != nil {
			return notFound(err, fmt.Sprintf("card %d", id))
		}

		var current model.SystemSetting
		if err := tx.Where(&model.SystemSetting{Key: model.SettingManagerPIN}).Limit(1).Find(&current).Error; err != nil {
			return fmt.Errorf("failed to read manager pin: %w", err)
		}

		next, err := rotate(current.Value)
		if err != nil {
			return err
		}

		if err := tx.Model(&card).UpdateColumn("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate card %d: %w", id, err)
		}
		return upsertSetting(tx, model.SettingManagerPIN, next)
	})
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := model.SystemSetting{Key: key, Value: value}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}
